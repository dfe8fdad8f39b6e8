// Package providers adapts external AI clients to the registry's Client
// interface and parses their free-form output into structured analyses.
package providers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gavelworks/appraise/internal/model"
)

var errEmptyCompletion = eris.New("providers: empty completion")

// wireAnalysis mirrors the JSON contract every provider prompt requests.
type wireAnalysis struct {
	ItemName       string          `json:"item_name"`
	Category       string          `json:"category"`
	EstimatedValue json.RawMessage `json:"estimated_value"`
	Decision       string          `json:"decision"`
	Confidence     json.RawMessage `json:"confidence"`
	Rationale      string          `json:"rationale"`
}

// ParseAnalysis extracts the structured analysis from raw model output.
// Models frequently wrap JSON in markdown fences or prose, so the payload is
// located by the outermost brace pair before unmarshalling.
func ParseAnalysis(raw string) (*model.Analysis, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return nil, eris.New("providers: no JSON object in response")
	}

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, eris.Wrap(err, "providers: unmarshal analysis")
	}

	value, err := toFloat(wire.EstimatedValue)
	if err != nil {
		return nil, eris.Wrap(err, "providers: parse estimated_value")
	}
	conf, err := toFloat(wire.Confidence)
	if err != nil {
		return nil, eris.Wrap(err, "providers: parse confidence")
	}

	decision, ok := model.ParseDecision(wire.Decision)
	if !ok {
		return nil, eris.Errorf("providers: unrecognized decision %q", wire.Decision)
	}

	return &model.Analysis{
		ItemName:       strings.TrimSpace(wire.ItemName),
		EstimatedValue: value,
		Decision:       decision,
		SelfConfidence: conf,
		Category:       strings.TrimSpace(wire.Category),
		Rationale:      strings.TrimSpace(wire.Rationale),
		Raw:            raw,
	}, nil
}

// cleanJSON strips markdown fences and surrounding prose, returning the text
// between the first '{' and the last '}'.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

// toFloat accepts numbers that arrive either as JSON numbers or as strings
// like "$1,200.50". A missing field parses as zero.
func toFloat(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return 0, eris.New("value is not finite")
		}
		return num, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, eris.Errorf("value %s is neither number nor string", string(raw))
	}

	str = strings.TrimSpace(str)
	str = strings.TrimPrefix(str, "$")
	str = strings.ReplaceAll(str, ",", "")
	if str == "" {
		return 0, nil
	}
	num, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", str)
	}
	return num, nil
}
