package engine

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/internal/resilience"
)

// maxStageConcurrency bounds fan-out within a single stage.
const maxStageConcurrency = 8

// stageOrder is the fixed capability sequence. Stages run strictly in this
// order because each later stage's prompt is built from the best available
// output of earlier stages.
var stageOrder = []model.Capability{
	model.CapabilityImage,
	model.CapabilityText,
	model.CapabilitySearch,
}

// stageFor assigns a provider to exactly one stage, keeping the stages
// disjoint: a provider casts at most one vote per run no matter how many
// capabilities it advertises. Image-capable providers belong to the image
// stage, search-capable providers to the search stage so grounded lookups
// run after an identity exists, and the text stage takes the remainder.
func stageFor(p model.Provider) model.Capability {
	switch {
	case p.HasCapability(model.CapabilityImage):
		return model.CapabilityImage
	case p.HasCapability(model.CapabilitySearch):
		return model.CapabilitySearch
	default:
		return model.CapabilityText
	}
}

// Orchestrator runs provider calls in capability-ordered stages, fanning out
// concurrently within a stage and tolerating per-call failure. The per-run
// vote list is written only at stage-barrier points after all concurrent
// calls have settled, so it needs no lock.
type Orchestrator struct {
	reg         *registry.Registry
	breakers    *resilience.ProviderBreakers
	retry       resilience.RetryConfig
	callTimeout time.Duration
	runCeiling  time.Duration
	marketBonus float64
}

// NewOrchestrator builds an orchestrator over the loaded roster.
func NewOrchestrator(reg *registry.Registry, breakers *resilience.ProviderBreakers, callTimeout, runCeiling time.Duration, marketBonus float64) *Orchestrator {
	if marketBonus <= 0 {
		marketBonus = 1
	}
	return &Orchestrator{
		reg:         reg,
		breakers:    breakers,
		retry:       resilience.DefaultRetryConfig(),
		callTimeout: callTimeout,
		runCeiling:  runCeiling,
		marketBonus: marketBonus,
	}
}

// callResult is one settled provider call. Failures carry err and no
// analysis; they are logged and omitted, never propagated.
type callResult struct {
	entry     registry.Entry
	analysis  *model.Analysis
	latencyMs int64
	err       error
}

// Run executes the staged fan-out and returns every well-formed vote. Zero
// votes across all stages is a valid empty list, not an error; the
// calculator treats it as its explicit no-data case.
func (o *Orchestrator) Run(ctx context.Context, images []model.Image, basePrompt string) []model.Vote {
	log := zap.L().With(zap.String("component", "engine.orchestrator"))

	var deadline time.Time
	if o.runCeiling > 0 {
		deadline = time.Now().Add(o.runCeiling)
	}

	var votes []model.Vote
	var bestName, bestDescription string

	for _, cap := range stageOrder {
		// Ceiling expiry stops issuing further stages; votes already
		// collected are never abandoned.
		if !deadline.IsZero() && time.Now().After(deadline) {
			log.Warn("run ceiling reached, skipping remaining stages",
				zap.String("stage", string(cap)),
				zap.Int("votes_so_far", len(votes)),
			)
			break
		}

		var entries []registry.Entry
		for _, e := range o.reg.ByCapability(cap) {
			if stageFor(e.Provider) == cap {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			continue
		}

		prompt := stagePrompt(cap, basePrompt, bestName, bestDescription)
		req := registry.AnalysisRequest{Prompt: prompt}
		if cap == model.CapabilityImage {
			req.Images = images
		}

		results := o.fanOut(ctx, entries, req)

		// Settle-then-append: the barrier above has joined every call in
		// the stage, so this is the only writer.
		identityEstablished := bestName != ""
		for _, r := range results {
			if r.err != nil {
				o.reg.MarkError(r.entry.Provider.ID, r.err)
				log.Warn("provider call failed",
					zap.String("provider", r.entry.Provider.ID),
					zap.String("stage", string(cap)),
					zap.Error(r.err),
				)
				continue
			}
			vote, ok := o.toVote(r, identityEstablished)
			if !ok {
				log.Warn("provider result malformed, vote omitted",
					zap.String("provider", r.entry.Provider.ID),
					zap.String("stage", string(cap)),
				)
				continue
			}
			votes = append(votes, vote)

			if cap == model.CapabilityImage && bestName == "" &&
				vote.ItemName != "" && r.analysis.Rationale != "" {
				// First image-stage result with both a name and a
				// rationale seeds every later stage's prompt.
				bestName = vote.ItemName
				bestDescription = r.analysis.Rationale
			}
		}

		log.Info("stage complete",
			zap.String("stage", string(cap)),
			zap.Int("providers", len(entries)),
			zap.Int("votes_total", len(votes)),
		)
	}

	return votes
}

// fanOut issues every provider call in the stage concurrently and joins with
// a true barrier: it waits for all calls to settle and collects a result per
// call. One provider's failure or timeout never cancels its siblings.
func (o *Orchestrator) fanOut(ctx context.Context, entries []registry.Entry, req registry.AnalysisRequest) []callResult {
	results := make([]callResult, len(entries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxStageConcurrency)

	for i, entry := range entries {
		g.Go(func() error {
			results[i] = o.call(gCtx, entry, req)
			// Failures are recorded per slot, never returned: returning an
			// error here would cancel sibling calls.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) call(ctx context.Context, entry registry.Entry, req registry.AnalysisRequest) callResult {
	res := callResult{entry: entry}

	var breaker *resilience.Breaker
	if o.breakers != nil {
		breaker = o.breakers.Get(entry.Provider.ID)
		if !breaker.Allow() {
			res.err = resilience.ErrProviderSkipped
			return res
		}
	}

	callCtx := ctx
	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}

	start := time.Now()
	analysis, err := resilience.DoVal(callCtx, o.retry, func(ctx context.Context) (*model.Analysis, error) {
		return entry.Client.Analyze(ctx, req)
	})
	res.latencyMs = time.Since(start).Milliseconds()

	if breaker != nil {
		breaker.Record(err)
	}
	if err != nil {
		res.err = err
		return res
	}
	res.analysis = analysis
	return res
}

// toVote converts a settled provider result into a Vote. A result qualifies
// only with a well-formed item name, a non-negative finite value, and a
// decision; anything else is omitted.
func (o *Orchestrator) toVote(r callResult, identityEstablished bool) (model.Vote, bool) {
	a := r.analysis
	if a == nil {
		return model.Vote{}, false
	}

	name := strings.TrimSpace(a.ItemName)
	if name == "" {
		return model.Vote{}, false
	}
	if a.EstimatedValue < 0 || math.IsNaN(a.EstimatedValue) || math.IsInf(a.EstimatedValue, 0) {
		return model.Vote{}, false
	}
	if a.Decision != model.DecisionBuy && a.Decision != model.DecisionSell {
		return model.Vote{}, false
	}

	conf := a.SelfConfidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	weight := r.entry.Provider.BaseWeight * conf
	if r.entry.Provider.MarketLookup && identityEstablished {
		// Grounded real-time search is more authoritative once the item
		// has been identified.
		weight *= o.marketBonus
	}

	return model.Vote{
		ProviderID:     r.entry.Provider.ID,
		ItemName:       name,
		EstimatedValue: a.EstimatedValue,
		Decision:       a.Decision,
		SelfConfidence: conf,
		Weight:         weight,
		LatencyMs:      r.latencyMs,
		Category:       a.Category,
		Raw:            a.Raw,
	}, true
}
