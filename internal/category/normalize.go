package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// Normalize canonicalizes a category string: Unicode case folding, then
// non-alphanumerics collapsed to single underscores, then alias resolution.
// Idempotent: hints and AI category votes pass through the same normalizer
// as table data, so normalizing its own output must be a no-op.
func (c *Classifier) Normalize(s string) string {
	folded := foldCaser.String(s)

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	canon := strings.Join(strings.Fields(mapped), "_")
	if canon == "" {
		return ""
	}

	if target, ok := c.tables.Aliases[canon]; ok {
		return target
	}
	return canon
}

// matchText prepares an item name for pattern and keyword scanning: case
// folded with runs of whitespace collapsed, punctuation preserved so that
// patterns like "vin:" can still fire.
func matchText(name string) string {
	return strings.Join(strings.Fields(foldCaser.String(name)), " ")
}
