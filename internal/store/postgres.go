package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gavelworks/appraise/internal/model"
)

// PostgresSink implements Sink using pgxpool, for deployments where several
// engine instances share one vote journal.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgresSink with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresSink, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS votes (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	provider_id TEXT NOT NULL,
	vote        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
	run_id     TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_votes_run_id ON votes(run_id);
CREATE INDEX IF NOT EXISTS idx_results_category ON results(category);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSink) RecordVote(ctx context.Context, runID string, vote model.Vote) error {
	voteJSON, err := json.Marshal(vote)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal vote")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO votes (id, run_id, provider_id, vote, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), runID, vote.ProviderID, voteJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert vote")
}

func (s *PostgresSink) RecordResult(ctx context.Context, runID string, result model.ConsensusResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO results (run_id, category, result, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO UPDATE SET category = $2, result = $3`,
		runID, result.Category, resultJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert result")
}

func (s *PostgresSink) ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error) {
	query := `SELECT run_id, result, created_at FROM results`
	var args []any

	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var out []model.StoredResult
	for rows.Next() {
		var sr model.StoredResult
		var resultJSON []byte
		if err := rows.Scan(&sr.RunID, &resultJSON, &sr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if err := json.Unmarshal(resultJSON, &sr.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		out = append(out, sr)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate results")
}
