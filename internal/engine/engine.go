// Package engine implements the consensus valuation core: staged
// multi-provider orchestration, weighted-consensus computation, and optional
// grounding against authority reference catalogs.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gavelworks/appraise/internal/category"
	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
)

// sinkTimeout bounds each fire-and-forget persistence write.
const sinkTimeout = 5 * time.Second

// Sink receives one record per vote and one per consensus result.
// Writes are fire-and-forget: failures must never fail or alter the
// returned result.
type Sink interface {
	RecordVote(ctx context.Context, runID string, vote model.Vote) error
	RecordResult(ctx context.Context, runID string, result model.ConsensusResult) error
}

// Engine is the public entry point of the consensus valuation core.
// Safe for concurrent use: runs for different items share no mutable state.
type Engine struct {
	reg        *registry.Registry
	classifier *category.Classifier
	orch       *Orchestrator
	blender    *Blender
	sink       Sink
	tuning     Tuning
}

// New wires the engine. blender and sink may be nil; both concerns are
// optional.
func New(reg *registry.Registry, classifier *category.Classifier, orch *Orchestrator, blender *Blender, sink Sink, tuning Tuning) *Engine {
	return &Engine{
		reg:        reg,
		classifier: classifier,
		orch:       orch,
		blender:    blender,
		sink:       sink,
		tuning:     tuning,
	}
}

// Valuate runs one consensus valuation: classify, orchestrate the provider
// stages, optionally enrich from an authority catalog, and fuse everything
// into a single calibrated result. Synchronous from the caller's
// perspective; concurrent inside. The only hard errors are input validation
// and an empty provider roster; a run that collects zero votes still
// returns a well-formed zero-confidence FALLBACK result.
func (e *Engine) Valuate(ctx context.Context, images []model.Image, itemHint, categoryHint string) (*model.ConsensusResult, error) {
	if len(images) == 0 && itemHint == "" {
		return nil, eris.New("engine: at least one image or an item name is required")
	}
	if err := e.reg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))

	initial := e.classifier.Classify(itemHint, categoryHint, "")
	log.Info("valuation started",
		zap.String("item_hint", itemHint),
		zap.String("category", initial.Category),
		zap.String("category_source", string(initial.Source)),
		zap.Int("images", len(images)),
	)

	votes := e.orch.Run(ctx, images, buildBasePrompt(itemHint, initial.Category))

	// Re-classify with the providers' own category opinion so authority
	// routing benefits from what the models saw, while the override table
	// still corrects them.
	itemKey := consensusItemName(votes)
	if itemKey == "" {
		itemKey = itemHint
	}
	detection := e.classifier.Classify(itemKey, categoryHint, aiCategoryVote(votes))

	var authority *model.AuthorityRecord
	if e.blender != nil {
		authority = e.blender.MaybeEnrich(ctx, detection.Category, itemKey)
	}

	result := Compute(votes, authority, e.tuning)
	result.RunID = runID
	result.Category = detection.Category
	if result.ItemName == "" {
		result.ItemName = itemHint
	}

	e.record(runID, votes, result)

	log.Info("valuation complete",
		zap.String("item", result.ItemName),
		zap.String("category", result.Category),
		zap.Float64("estimated_value", result.EstimatedValue),
		zap.String("decision", string(result.Decision)),
		zap.Int("confidence", result.Confidence),
		zap.String("quality_tier", string(result.QualityTier)),
		zap.Int("total_votes", result.TotalVotes),
		zap.Bool("authority_verified", result.Metrics.AuthorityVerified),
	)

	return &result, nil
}

// aiCategoryVote returns the category opinion of the heaviest vote that
// offered one.
func aiCategoryVote(votes []model.Vote) string {
	best := ""
	bestWeight := -1.0
	for _, v := range votes {
		if v.Category != "" && v.Weight > bestWeight {
			best = v.Category
			bestWeight = v.Weight
		}
	}
	return best
}

// record persists the run asynchronously. Detached from the caller's
// context: a slow or failing sink can neither block nor fail the run.
func (e *Engine) record(runID string, votes []model.Vote, result model.ConsensusResult) {
	if e.sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		for _, v := range votes {
			if err := e.sink.RecordVote(ctx, runID, v); err != nil {
				zap.L().Warn("sink: vote not persisted",
					zap.String("run_id", runID),
					zap.String("provider", v.ProviderID),
					zap.Error(err),
				)
			}
		}
		if err := e.sink.RecordResult(ctx, runID, result); err != nil {
			zap.L().Warn("sink: result not persisted",
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
	}()
}
