package model

import "strings"

// Decision is a provider's (or the consensus) buy/sell verdict.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
)

// ParseDecision normalizes a free-form decision string from model output.
// Returns ("", false) for anything that is not recognizably buy or sell.
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "ACQUIRE", "HOLD_BUY":
		return DecisionBuy, true
	case "SELL", "PASS", "FLIP":
		return DecisionSell, true
	default:
		return "", false
	}
}

// Image is one item photo handed to image-capable providers.
type Image struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// Analysis is the normalized output of one provider call, before weighting.
// Adapters produce it from whatever shape their backing model returns.
type Analysis struct {
	ItemName       string   `json:"item_name"`
	EstimatedValue float64  `json:"estimated_value"`
	Decision       Decision `json:"decision"`
	SelfConfidence float64  `json:"self_confidence"`
	// Category is the provider's category opinion, if it offered one.
	Category string `json:"category,omitempty"`
	// Rationale is the provider's free-text reasoning about the item.
	Rationale string `json:"rationale,omitempty"`
	// Raw preserves the unparsed model output for the sink.
	Raw string `json:"-"`
}

// Vote is one provider's weighted opinion about an item. Created once per
// successful provider call and never mutated afterward.
type Vote struct {
	ProviderID     string   `json:"provider_id"`
	ItemName       string   `json:"item_name"`
	EstimatedValue float64  `json:"estimated_value"`
	Decision       Decision `json:"decision"`
	SelfConfidence float64  `json:"self_confidence"`
	// Weight is baseWeight × selfConfidence, plus any market-lookup bonus.
	Weight    float64 `json:"weight"`
	LatencyMs int64   `json:"latency_ms"`
	Category  string  `json:"category,omitempty"`
	Raw       string  `json:"raw,omitempty"`
}
