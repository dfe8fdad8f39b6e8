package category

import (
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/gavelworks/appraise/internal/model"
)

// Confidence tiers per detection source. Keyword confidence is computed from
// the match score instead.
const (
	confOverride  = 0.95
	confAIVote    = 0.90
	confHint      = 0.85
	confNameParse = 0.80
	confDefault   = 0.50

	keywordConfBase = 0.5
	keywordConfStep = 0.1
	keywordConfMax  = 0.95
)

// Classifier resolves item names to categories. Pure and deterministic: no
// I/O, no side effects, table data fixed at construction.
type Classifier struct {
	tables Tables
	// lexTerms holds lexicon terms sorted longest-first so that multi-word
	// terms win over their own substrings, with a stable order.
	lexTerms []string
	// keywordCats holds keyword categories in a stable evaluation order.
	keywordCats []string
}

// NewClassifier builds a classifier from validated tables.
func NewClassifier(t Tables) *Classifier {
	c := &Classifier{tables: t}

	c.lexTerms = make([]string, 0, len(t.Lexicon))
	for term := range t.Lexicon {
		c.lexTerms = append(c.lexTerms, term)
	}
	sort.Slice(c.lexTerms, func(i, j int) bool {
		if len(c.lexTerms[i]) != len(c.lexTerms[j]) {
			return len(c.lexTerms[i]) > len(c.lexTerms[j])
		}
		return c.lexTerms[i] < c.lexTerms[j]
	})

	c.keywordCats = make([]string, 0, len(t.Keywords))
	for cat := range t.Keywords {
		c.keywordCats = append(c.keywordCats, cat)
	}
	sort.Strings(c.keywordCats)

	return c
}

// Classify resolves an item name to a category. Resolution order: name
// override table, AI category vote, caller hint, name-parse heuristics,
// keyword scoring, default. Exactly one source wins; ambiguity is never an
// error, it resolves to "general".
func (c *Classifier) Classify(itemName, hint, aiVote string) model.CategoryDetection {
	text := matchText(itemName)

	if det, ok := c.classifyOverride(text); ok {
		if aiVote != "" && c.Normalize(aiVote) != det.Category {
			// High-precision lexical evidence corrects model mistakes.
			zap.L().Debug("category: override wins over ai vote",
				zap.String("override", det.Category),
				zap.String("ai_vote", aiVote),
			)
		}
		return det
	}

	if v := c.Normalize(aiVote); v != "" {
		return model.CategoryDetection{
			Category:   v,
			Confidence: confAIVote,
			Source:     model.SourceAIVote,
		}
	}

	if h := c.Normalize(hint); h != "" {
		return model.CategoryDetection{
			Category:   h,
			Confidence: confHint,
			Source:     model.SourceHint,
		}
	}

	if det, ok := c.classifyNameParse(text); ok {
		return det
	}

	if det, ok := c.classifyKeywords(text); ok {
		return det
	}

	return model.CategoryDetection{
		Category:   model.CategoryGeneral,
		Confidence: confDefault,
		Source:     model.SourceDefault,
	}
}

// classifyOverride scans every override entry against the name. Among all
// matching entries the highest priority wins; ties go to the first-declared
// entry. Checked before any generic identifier-shape heuristic so that
// misleading substrings across domains cannot misfire.
func (c *Classifier) classifyOverride(text string) (model.CategoryDetection, bool) {
	bestIdx := -1
	var bestTerms []string

	for i, entry := range c.tables.Overrides {
		var matched []string
		for _, p := range entry.Patterns {
			if strings.Contains(text, p) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}
		if bestIdx == -1 || entry.Priority > c.tables.Overrides[bestIdx].Priority {
			bestIdx = i
			bestTerms = matched
		}
	}

	if bestIdx == -1 {
		return model.CategoryDetection{}, false
	}
	return model.CategoryDetection{
		Category:     c.tables.Overrides[bestIdx].Category,
		Confidence:   confOverride,
		Source:       model.SourceNameOverride,
		MatchedTerms: bestTerms,
	}, true
}

// classifyNameParse runs the ordered pattern families: numeric barcode shape,
// vehicle identifier shape, then the domain lexicon. Each family yields at
// most one category; the first non-null result wins.
func (c *Classifier) classifyNameParse(text string) (model.CategoryDetection, bool) {
	tokens := strings.Fields(tokenText(text))

	// ISBN shape: 13 digits with a 978/979 bookland prefix.
	for _, tok := range tokens {
		if isDigits(tok) && len(tok) == 13 &&
			(strings.HasPrefix(tok, "978") || strings.HasPrefix(tok, "979")) {
			return model.CategoryDetection{
				Category:     "books",
				Confidence:   confNameParse,
				Source:       model.SourceNameParse,
				MatchedTerms: []string{tok},
			}, true
		}
	}

	// VIN shape: 17-character alphanumeric token without i/o/q, mixing
	// letters and digits. Evaluated only after the override table, which is
	// what keeps "vinyl" listings out of the vehicles bucket.
	for _, tok := range tokens {
		if isVINShape(tok) {
			return model.CategoryDetection{
				Category:     "vehicles",
				Confidence:   confNameParse,
				Source:       model.SourceNameParse,
				MatchedTerms: []string{tok},
			}, true
		}
	}

	padded := " " + tokenText(text) + " "
	for _, term := range c.lexTerms {
		if strings.Contains(padded, " "+term+" ") {
			return model.CategoryDetection{
				Category:     c.tables.Lexicon[term],
				Confidence:   confNameParse,
				Source:       model.SourceNameParse,
				MatchedTerms: []string{term},
			}, true
		}
	}

	return model.CategoryDetection{}, false
}

// classifyKeywords scores every category by the summed length-in-words of its
// matched keywords; the highest score wins. Ties break toward the longer
// (more specific) category name.
func (c *Classifier) classifyKeywords(text string) (model.CategoryDetection, bool) {
	padded := " " + tokenText(text) + " "

	var bestCat string
	var bestScore int
	var bestTerms []string

	for _, cat := range c.keywordCats {
		score := 0
		var terms []string
		for _, kw := range c.tables.Keywords[cat] {
			if strings.Contains(padded, " "+kw+" ") {
				score += len(strings.Fields(kw))
				terms = append(terms, kw)
			}
		}
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && len(cat) > len(bestCat)) {
			bestCat = cat
			bestScore = score
			bestTerms = terms
		}
	}

	if bestScore == 0 {
		return model.CategoryDetection{}, false
	}

	conf := keywordConfBase + keywordConfStep*float64(bestScore)
	if conf > keywordConfMax {
		conf = keywordConfMax
	}
	return model.CategoryDetection{
		Category:     bestCat,
		Confidence:   conf,
		Source:       model.SourceKeywords,
		MatchedTerms: bestTerms,
	}, true
}

// tokenText strips punctuation for word-boundary matching.
func tokenText(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// isVINShape reports whether a (case-folded) token looks like a vehicle
// identification number: 17 alphanumerics, no i/o/q, at least one letter and
// one digit.
func isVINShape(tok string) bool {
	if len(tok) != 17 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			if r == 'i' || r == 'o' || r == 'q' {
				return false
			}
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}
