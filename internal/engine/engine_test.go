package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/appraise/internal/category"
	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
)

type recordingSink struct {
	mu      sync.Mutex
	votes   []model.Vote
	results []model.ConsensusResult
	fail    bool
}

func (s *recordingSink) RecordVote(ctx context.Context, runID string, vote model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.votes = append(s.votes, vote)
	return nil
}

func (s *recordingSink) RecordResult(ctx context.Context, runID string, result model.ConsensusResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.results = append(s.results, result)
	return nil
}

func (s *recordingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes), len(s.results)
}

func newTestEngine(t *testing.T, reg *registry.Registry, sink Sink) *Engine {
	t.Helper()
	tables := category.DefaultTables()
	require.NoError(t, tables.Validate())
	classifier := category.NewClassifier(tables)
	orch := NewOrchestrator(reg, nil, time.Second, time.Minute, 1.25)
	return New(reg, classifier, orch, nil, sink, DefaultTuning())
}

func TestValuateRequiresInput(t *testing.T) {
	reg := registry.New()
	addProvider(reg, "a", textCaps(), 1, false,
		&mockClient{id: "a", analyze: goodAnalysis("x", 10)})
	eng := newTestEngine(t, reg, nil)

	_, err := eng.Valuate(context.Background(), nil, "", "")
	assert.Error(t, err)
}

func TestValuateRequiresProviders(t *testing.T) {
	eng := newTestEngine(t, registry.New(), nil)

	_, err := eng.Valuate(context.Background(), nil, "Abbey Road vinyl", "")
	assert.Error(t, err)
}

func TestValuateHappyPath(t *testing.T) {
	reg := registry.New()
	for _, id := range []string{"a", "b", "c"} {
		addProvider(reg, id, textCaps(), 1, false,
			&mockClient{id: id, analyze: goodAnalysis("Abbey Road UK Pressing", 120)})
	}
	sink := &recordingSink{}
	eng := newTestEngine(t, reg, sink)

	result, err := eng.Valuate(context.Background(), nil, "Abbey Road vinyl", "")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Abbey Road UK Pressing", result.ItemName)
	assert.Equal(t, "vinyl_records", result.Category)
	assert.InDelta(t, 120, result.EstimatedValue, 1e-9)
	assert.Equal(t, model.DecisionBuy, result.Decision)
	assert.Equal(t, 3, result.TotalVotes)

	// The sink write is detached; give it a beat.
	require.Eventually(t, func() bool {
		v, r := sink.counts()
		return v == 3 && r == 1
	}, time.Second, 10*time.Millisecond)
}

func TestValuateZeroVotesIsFallbackNotError(t *testing.T) {
	reg := registry.New()
	addProvider(reg, "a", textCaps(), 1, false,
		&mockClient{id: "a", analyze: func(registry.AnalysisRequest) (*model.Analysis, error) {
			return nil, errors.New("boom")
		}})
	eng := newTestEngine(t, reg, nil)

	result, err := eng.Valuate(context.Background(), nil, "Abbey Road vinyl", "")
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalVotes)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, model.DecisionSell, result.Decision)
	assert.Equal(t, model.TierFallback, result.QualityTier)
	// The caller's hint survives as the item identity.
	assert.Equal(t, "Abbey Road vinyl", result.ItemName)
}

func TestValuateFailingSinkDoesNotFailRun(t *testing.T) {
	reg := registry.New()
	addProvider(reg, "a", textCaps(), 1, false,
		&mockClient{id: "a", analyze: goodAnalysis("Abbey Road UK Pressing", 120)})
	sink := &recordingSink{fail: true}
	eng := newTestEngine(t, reg, sink)

	result, err := eng.Valuate(context.Background(), nil, "Abbey Road vinyl", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalVotes)
}

func TestValuateUsesAICategoryVote(t *testing.T) {
	reg := registry.New()
	addProvider(reg, "a", textCaps(), 1, false,
		&mockClient{id: "a", analyze: func(req registry.AnalysisRequest) (*model.Analysis, error) {
			return &model.Analysis{
				ItemName:       "Action Comics #1 reprint",
				EstimatedValue: 80,
				Decision:       model.DecisionBuy,
				SelfConfidence: 0.9,
				Category:       "Comic Books",
			}, nil
		}})
	eng := newTestEngine(t, reg, nil)

	result, err := eng.Valuate(context.Background(), nil, "odd old magazine thing", "")
	require.NoError(t, err)
	assert.Equal(t, "comics", result.Category)
}

func TestAICategoryVotePicksHeaviest(t *testing.T) {
	votes := []model.Vote{
		{Category: "toys", Weight: 0.5},
		{Category: "comics", Weight: 2},
		{Category: "", Weight: 9},
	}
	assert.Equal(t, "comics", aiCategoryVote(votes))
	assert.Equal(t, "", aiCategoryVote(nil))
}
