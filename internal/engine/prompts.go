package engine

import (
	"fmt"
	"strings"

	"github.com/gavelworks/appraise/internal/model"
)

// responseSchema is the JSON contract every provider is asked to honor.
// internal/providers parses model output against the same field names.
const responseSchema = `Respond with a single JSON object and nothing else:
{"item_name": "<specific item identity>", "category": "<collectible category>", "estimated_value": <fair market value in USD>, "decision": "BUY" or "SELL", "confidence": <0.0-1.0 how sure you are>, "rationale": "<one or two sentences on identity and condition>"}`

const basePromptTemplate = `You are appraising a collectible item for resale.
%s
Likely category: %s.

Identify the item as precisely as possible (maker, model, year, edition, condition), estimate its current fair market value in USD, and decide whether a reseller should BUY it at a typical asking price or SELL/pass.

%s`

// buildBasePrompt assembles the stage-1 prompt from the caller's hint and
// the preliminary category detection.
func buildBasePrompt(itemHint, category string) string {
	hintLine := "No item description was provided; rely on the photos."
	if strings.TrimSpace(itemHint) != "" {
		hintLine = fmt.Sprintf("The seller describes it as: %q.", itemHint)
	}
	return fmt.Sprintf(basePromptTemplate, hintLine, category, responseSchema)
}

// stagePrompt derives a later stage's prompt from the best available output
// of earlier stages. When stage 1 produced nothing usable, later stages fall
// back to the original prompt.
func stagePrompt(cap model.Capability, base, bestName, bestDescription string) string {
	switch cap {
	case model.CapabilityImage:
		return base

	case model.CapabilityText:
		if bestName == "" {
			return base
		}
		return fmt.Sprintf(`A visual analysis identified this item as: %s.
Analyst notes: %s

Without seeing the photos, independently assess that identification, estimate current fair market value in USD, and give a BUY or SELL verdict for a reseller.

%s`, bestName, bestDescription, responseSchema)

	case model.CapabilitySearch:
		subject := bestName
		if subject == "" {
			return base
		}
		return fmt.Sprintf(`Search current marketplace listings and recent sold comparables for: %s.
Context from earlier analysis: %s

Ground your value estimate in real asking and sold prices, then give a BUY or SELL verdict for a reseller.

%s`, subject, bestDescription, responseSchema)

	default:
		return base
	}
}
