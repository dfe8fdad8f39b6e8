// Package store persists votes and consensus results. The engine treats it
// as a fire-and-forget sink; nothing here is on the valuation critical path.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gavelworks/appraise/internal/config"
	"github.com/gavelworks/appraise/internal/model"
)

// ResultFilter specifies criteria for listing stored results.
type ResultFilter struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Sink defines the persistence interface for valuation runs.
type Sink interface {
	RecordVote(ctx context.Context, runID string, vote model.Vote) error
	RecordResult(ctx context.Context, runID string, result model.ConsensusResult) error
	ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a sink from config. An empty driver yields a no-op sink.
func Open(ctx context.Context, cfg config.StoreConfig) (Sink, error) {
	switch cfg.Driver {
	case "", "none":
		return NoopSink{}, nil
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// NoopSink discards everything. Used when persistence is disabled.
type NoopSink struct{}

func (NoopSink) RecordVote(context.Context, string, model.Vote) error              { return nil }
func (NoopSink) RecordResult(context.Context, string, model.ConsensusResult) error { return nil }
func (NoopSink) ListResults(context.Context, ResultFilter) ([]model.StoredResult, error) {
	return nil, nil
}
func (NoopSink) Migrate(context.Context) error { return nil }
func (NoopSink) Close() error                  { return nil }
