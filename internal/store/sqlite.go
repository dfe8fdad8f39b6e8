package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gavelworks/appraise/internal/model"
)

// SQLiteSink implements Sink using modernc.org/sqlite.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS votes (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	provider_id TEXT NOT NULL,
	vote        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS results (
	run_id     TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_votes_run_id ON votes(run_id);
CREATE INDEX IF NOT EXISTS idx_results_category ON results(category);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) RecordVote(ctx context.Context, runID string, vote model.Vote) error {
	voteJSON, err := json.Marshal(vote)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal vote")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO votes (id, run_id, provider_id, vote, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, vote.ProviderID, string(voteJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert vote")
}

func (s *SQLiteSink) RecordResult(ctx context.Context, runID string, result model.ConsensusResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results (run_id, category, result, created_at) VALUES (?, ?, ?, ?)`,
		runID, result.Category, string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert result")
}

func (s *SQLiteSink) ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error) {
	query := `SELECT run_id, result, created_at FROM results WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var out []model.StoredResult
	for rows.Next() {
		var sr model.StoredResult
		var resultJSON string
		if err := rows.Scan(&sr.RunID, &resultJSON, &sr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		if err := json.Unmarshal([]byte(resultJSON), &sr.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		out = append(out, sr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate results")
}
