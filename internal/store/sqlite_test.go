package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/appraise/internal/config"
	"github.com/gavelworks/appraise/internal/model"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := NewSQLite(filepath.Join(t.TempDir(), "appraise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	require.NoError(t, sink.Migrate(context.Background()))
	return sink
}

func sampleResult(category string, value float64) model.ConsensusResult {
	return model.ConsensusResult{
		ItemName:       "1921 Morgan Dollar",
		Category:       category,
		EstimatedValue: value,
		Decision:       model.DecisionBuy,
		Confidence:     91,
		TotalVotes:     4,
		QualityTier:    model.TierDegraded,
	}
}

func TestSQLiteRecordAndListResults(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	runID := uuid.New().String()
	require.NoError(t, sink.RecordResult(ctx, runID, sampleResult("coins", 85)))

	results, err := sink.ListResults(ctx, ResultFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, runID, results[0].RunID)
	assert.Equal(t, "coins", results[0].Result.Category)
	assert.InDelta(t, 85, results[0].Result.EstimatedValue, 1e-9)
	assert.False(t, results[0].CreatedAt.IsZero())
}

func TestSQLiteRecordResultUpserts(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	runID := uuid.New().String()
	require.NoError(t, sink.RecordResult(ctx, runID, sampleResult("coins", 85)))
	require.NoError(t, sink.RecordResult(ctx, runID, sampleResult("coins", 90)))

	results, err := sink.ListResults(ctx, ResultFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 90, results[0].Result.EstimatedValue, 1e-9)
}

func TestSQLiteListResultsCategoryFilter(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.RecordResult(ctx, uuid.New().String(), sampleResult("coins", 85)))
	require.NoError(t, sink.RecordResult(ctx, uuid.New().String(), sampleResult("stamps", 12)))

	coins, err := sink.ListResults(ctx, ResultFilter{Category: "coins"})
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "coins", coins[0].Result.Category)

	none, err := sink.ListResults(ctx, ResultFilter{Category: "vehicles"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteListResultsLimitOffset(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.RecordResult(ctx, uuid.New().String(), sampleResult("coins", float64(i))))
	}

	page, err := sink.ListResults(ctx, ResultFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := sink.ListResults(ctx, ResultFilter{Limit: 10, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestSQLiteRecordVote(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	err := sink.RecordVote(ctx, uuid.New().String(), model.Vote{
		ProviderID:     "anthropic",
		ItemName:       "1921 Morgan Dollar",
		EstimatedValue: 85,
		Decision:       model.DecisionBuy,
		SelfConfidence: 0.8,
		Weight:         0.8,
		LatencyMs:      900,
	})
	assert.NoError(t, err)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	sink, err := Open(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, NoopSink{}, sink)

	sink, err = Open(ctx, config.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, NoopSink{}, sink)

	sink, err = Open(ctx, config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteSink{}, sink)
	sink.Close()

	_, err = Open(ctx, config.StoreConfig{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestNoopSink(t *testing.T) {
	ctx := context.Background()
	var sink Sink = NoopSink{}

	assert.NoError(t, sink.Migrate(ctx))
	assert.NoError(t, sink.RecordVote(ctx, "run", model.Vote{}))
	assert.NoError(t, sink.RecordResult(ctx, "run", model.ConsensusResult{}))
	results, err := sink.ListResults(ctx, ResultFilter{})
	assert.NoError(t, err)
	assert.Nil(t, results)
	assert.NoError(t, sink.Close())
}
