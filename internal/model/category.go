package model

// CategorySource identifies which classifier tier produced a detection.
// Exactly one source wins per classification call.
type CategorySource string

const (
	SourceNameOverride CategorySource = "name_override"
	SourceAIVote       CategorySource = "ai_vote"
	SourceHint         CategorySource = "hint"
	SourceNameParse    CategorySource = "name_parse"
	SourceKeywords     CategorySource = "keywords"
	SourceDefault      CategorySource = "default"
)

// CategoryGeneral is the fallback category when no tier matches.
const CategoryGeneral = "general"

// CategoryDetection is the classifier's answer for one item name.
type CategoryDetection struct {
	Category   string         `json:"category"`
	Confidence float64        `json:"confidence"`
	Source     CategorySource `json:"source"`
	// MatchedTerms lists the patterns or keywords that fired, in match order.
	MatchedTerms []string `json:"matched_terms,omitempty"`
}
