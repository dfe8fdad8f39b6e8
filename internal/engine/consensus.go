package engine

import (
	"math"

	"github.com/gavelworks/appraise/internal/config"
	"github.com/gavelworks/appraise/internal/model"
)

// Tuning holds the consensus constants. The specific numbers are empirically
// tuned starting points; every one is named here and overridable from
// config, because none of them is derived.
type Tuning struct {
	// TargetProviderCount is the "full roster" against which participation
	// is measured.
	TargetProviderCount int
	// MinVotesForConsensus is the floor below which the low-participation
	// cap applies: agreement between two voters is not a reliable consensus.
	MinVotesForConsensus int
	// LowParticipationCap is the confidence ceiling under MinVotes.
	LowParticipationCap int

	// Confidence blend weights. Must sum to 1 for the formula to stay a
	// bounded function of agreement and participation.
	WeightAvgConfidence     float64
	WeightDecisionAgreement float64
	WeightValueAgreement    float64
	WeightParticipation     float64

	// AuthorityBoost is added to the base confidence when a verified
	// authority record was supplied.
	AuthorityBoost float64

	// Quality tier thresholds on the final 0..99 confidence.
	OptimalThreshold  int
	DegradedThreshold int

	// Plausibility band for authority point values, as multiples of the
	// AI estimate. Outside the band the catalog match is assumed wrong and
	// ignored for pricing.
	PlausibilityLow  float64
	PlausibilityHigh float64
	// AuthorityBlendAIShare is the AI estimate's share when blending with
	// an in-band authority value.
	AuthorityBlendAIShare float64

	// MarketLookupBonus multiplies the weight of designated market-lookup
	// providers once a textual identity has been established.
	MarketLookupBonus float64
}

// DefaultTuning returns the reference tuning.
func DefaultTuning() Tuning {
	return Tuning{
		TargetProviderCount:     10,
		MinVotesForConsensus:    3,
		LowParticipationCap:     75,
		WeightAvgConfidence:     0.35,
		WeightDecisionAgreement: 0.25,
		WeightValueAgreement:    0.25,
		WeightParticipation:     0.15,
		AuthorityBoost:          0.05,
		OptimalThreshold:        97,
		DegradedThreshold:       90,
		PlausibilityLow:         0.3,
		PlausibilityHigh:        3.0,
		AuthorityBlendAIShare:   0.6,
		MarketLookupBonus:       1.25,
	}
}

// TuningFromConfig overlays configured values onto the defaults.
func TuningFromConfig(cfg config.EngineConfig) Tuning {
	t := DefaultTuning()
	if cfg.TargetProviderCount > 0 {
		t.TargetProviderCount = cfg.TargetProviderCount
	}
	if cfg.MinVotesForConsensus > 0 {
		t.MinVotesForConsensus = cfg.MinVotesForConsensus
	}
	if cfg.LowParticipationCap > 0 {
		t.LowParticipationCap = cfg.LowParticipationCap
	}
	if cfg.AuthorityBoost > 0 {
		t.AuthorityBoost = cfg.AuthorityBoost
	}
	if cfg.MarketLookupBonus > 0 {
		t.MarketLookupBonus = cfg.MarketLookupBonus
	}
	return t
}

// Compute fuses an immutable vote list (plus an optional authority record)
// into one ConsensusResult. Pure and deterministic: no I/O, and vote order
// only matters for the first-seen item-name tie-break.
func Compute(votes []model.Vote, authority *model.AuthorityRecord, t Tuning) model.ConsensusResult {
	if len(votes) == 0 {
		// Total data exhaustion is a well-formed result, not an error.
		return model.ConsensusResult{
			EstimatedValue: 0,
			Decision:       model.DecisionSell,
			Confidence:     0,
			TotalVotes:     0,
			QualityTier:    model.TierFallback,
		}
	}

	totalWeight := 0.0
	for _, v := range votes {
		totalWeight += v.Weight
	}
	// All-zero weights degenerate to an unweighted vote.
	weightOf := func(v model.Vote) float64 {
		if totalWeight <= 0 {
			return 1
		}
		return v.Weight
	}
	effTotal := totalWeight
	if effTotal <= 0 {
		effTotal = float64(len(votes))
	}

	var weightedValue, buyWeight, sellWeight, confSum float64
	for _, v := range votes {
		w := weightOf(v)
		weightedValue += v.EstimatedValue * w
		confSum += v.SelfConfidence
		if v.Decision == model.DecisionBuy {
			buyWeight += w
		} else {
			sellWeight += w
		}
	}

	estimatedValue := weightedValue / effTotal

	// Strictly greater buy weight wins; ties resolve to SELL, the
	// conservative default.
	decision := model.DecisionSell
	if buyWeight > sellWeight {
		decision = model.DecisionBuy
	}

	metrics := model.ConsensusMetrics{
		AvgConfidence:     confSum / float64(len(votes)),
		DecisionAgreement: math.Max(buyWeight, sellWeight) / effTotal,
		ValueAgreement:    valueAgreement(votes),
		ParticipationRate: math.Min(1, float64(len(votes))/float64(t.TargetProviderCount)),
	}

	boost := 0.0
	if authority != nil && authority.Verified {
		boost = t.AuthorityBoost
		metrics.AuthorityVerified = true
	}

	base := t.WeightAvgConfidence*metrics.AvgConfidence +
		t.WeightDecisionAgreement*metrics.DecisionAgreement +
		t.WeightValueAgreement*metrics.ValueAgreement +
		t.WeightParticipation*metrics.ParticipationRate

	confidence := int(math.Round(100 * (base + boost)))
	if confidence > 99 {
		confidence = 99
	}
	if confidence < 0 {
		confidence = 0
	}

	capped := false
	if len(votes) < t.MinVotesForConsensus {
		capped = true
		if confidence > t.LowParticipationCap {
			confidence = t.LowParticipationCap
		}
	}

	var tier model.QualityTier
	switch {
	case capped:
		tier = model.TierFallback
	case confidence >= t.OptimalThreshold:
		tier = model.TierOptimal
	case confidence >= t.DegradedThreshold:
		tier = model.TierDegraded
	default:
		tier = model.TierFallback
	}

	if authority != nil && authority.PointValue != nil && estimatedValue > 0 {
		av := *authority.PointValue
		if av >= t.PlausibilityLow*estimatedValue && av <= t.PlausibilityHigh*estimatedValue {
			share := t.AuthorityBlendAIShare
			estimatedValue = share*estimatedValue + (1-share)*av
		}
		// Outside the band the catalog value is ignored for pricing; the
		// verified boost above still stands.
	}

	return model.ConsensusResult{
		ItemName:       consensusItemName(votes),
		EstimatedValue: estimatedValue,
		Decision:       decision,
		Confidence:     confidence,
		TotalVotes:     len(votes),
		QualityTier:    tier,
		Metrics:        metrics,
	}
}

// valueAgreement rewards tight value clustering: 1 minus the coefficient of
// variation, floored at 0. Unweighted, so a minority of wildly divergent
// voters stays visible even when low-weight.
func valueAgreement(votes []model.Vote) float64 {
	n := float64(len(votes))
	var sum float64
	for _, v := range votes {
		sum += v.EstimatedValue
	}
	mean := sum / n
	if mean == 0 {
		return 1
	}

	var variance float64
	for _, v := range votes {
		d := v.EstimatedValue - mean
		variance += d * d
	}
	cv := math.Sqrt(variance/n) / mean

	return math.Max(0, 1-cv)
}

// consensusItemName picks the item identity by plurality, weighted by
// weight × selfConfidence per distinct name string. Ties break toward the
// first-seen name.
func consensusItemName(votes []model.Vote) string {
	scores := make(map[string]float64, len(votes))
	var order []string

	for _, v := range votes {
		if v.ItemName == "" {
			continue
		}
		if _, seen := scores[v.ItemName]; !seen {
			order = append(order, v.ItemName)
		}
		scores[v.ItemName] += v.Weight * v.SelfConfidence
	}

	best := ""
	bestScore := math.Inf(-1)
	for _, name := range order {
		if scores[name] > bestScore {
			best = name
			bestScore = scores[name]
		}
	}
	return best
}
