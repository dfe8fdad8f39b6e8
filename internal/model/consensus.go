package model

import "time"

// AuthorityRecord is an independently sourced reference data point used to
// corroborate or adjust the AI-derived value. Opaque beyond these fields.
type AuthorityRecord struct {
	Verified   bool     `json:"verified"`
	PointValue *float64 `json:"point_value,omitempty"`
}

// QualityTier is a discrete reliability label derived deterministically from
// confidence and participation, never inferred ad hoc.
type QualityTier string

const (
	TierOptimal  QualityTier = "OPTIMAL"
	TierDegraded QualityTier = "DEGRADED"
	TierFallback QualityTier = "FALLBACK"
)

// ConsensusMetrics breaks down the components of the calibrated confidence.
type ConsensusMetrics struct {
	AvgConfidence     float64 `json:"avg_confidence"`
	DecisionAgreement float64 `json:"decision_agreement"`
	ValueAgreement    float64 `json:"value_agreement"`
	ParticipationRate float64 `json:"participation_rate"`
	AuthorityVerified bool    `json:"authority_verified"`
}

// ConsensusResult is the weighted fusion of all votes into one
// identity/value/verdict. Produced once per run; never mutated afterward.
type ConsensusResult struct {
	RunID          string           `json:"run_id,omitempty"`
	ItemName       string           `json:"item_name"`
	Category       string           `json:"category,omitempty"`
	EstimatedValue float64          `json:"estimated_value"`
	Decision       Decision         `json:"decision"`
	Confidence     int              `json:"confidence"`
	TotalVotes     int              `json:"total_votes"`
	QualityTier    QualityTier      `json:"quality_tier"`
	Metrics        ConsensusMetrics `json:"metrics"`
}

// StoredResult is a persisted consensus result read back from the sink.
type StoredResult struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Result    ConsensusResult `json:"result"`
}
