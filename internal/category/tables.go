// Package category classifies item names into collectible categories using
// layered lexical evidence. Classification is pure and deterministic; the
// pattern and keyword tables are data, loaded once, not code branches.
package category

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// OverrideEntry is one row of the name-pattern override table. Overrides are
// high-precision lexical rules that win over every other tier, including the
// AI's own category opinion. They exist to correct model mistakes caused by
// misleading substrings (a record format token is a substring of a
// vehicle-identifier token, for example).
type OverrideEntry struct {
	Priority int      `yaml:"priority"`
	Patterns []string `yaml:"patterns"`
	Category string   `yaml:"category"`
}

// Tables holds the versioned classification data: override patterns, the
// name-parse lexicon, and per-category keyword lists.
type Tables struct {
	Version   int                 `yaml:"version"`
	Overrides []OverrideEntry     `yaml:"overrides"`
	Lexicon   map[string]string   `yaml:"lexicon"`
	Keywords  map[string][]string `yaml:"keywords"`
	// Aliases map normalized variants onto canonical category names.
	// Every alias target must be a fixed point of normalization.
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultTables returns the built-in classification tables.
func DefaultTables() Tables {
	return Tables{
		Version: 1,
		Overrides: []OverrideEntry{
			// Longer, more specific patterns carry higher priority than short
			// ambiguous ones. "vinyl" must outrank the generic VIN-shape
			// heuristic, which never sees a name once an override fires.
			{Priority: 90, Patterns: []string{"vinyl", "lp record", "picture disc", "33 rpm", "45 rpm", "gatefold"}, Category: "vinyl_records"},
			{Priority: 85, Patterns: []string{"rookie card", "psa ", "bgs ", "topps", "panini prizm"}, Category: "sports_cards"},
			{Priority: 85, Patterns: []string{"booster box", "first edition holo", "charizard", "black lotus"}, Category: "trading_cards"},
			{Priority: 80, Patterns: []string{"cgc ", "variant cover", "comic book"}, Category: "comics"},
			{Priority: 80, Patterns: []string{"ngc ", "pcgs ", "mint mark", "uncirculated", "morgan dollar"}, Category: "coins"},
			{Priority: 75, Patterns: []string{"plate block", "first day cover", "philatelic"}, Category: "stamps"},
			{Priority: 70, Patterns: []string{"vin:", "odometer", "clean title"}, Category: "vehicles"},
			{Priority: 60, Patterns: []string{"wristwatch", "chronograph", "automatic movement"}, Category: "watches"},
		},
		Lexicon: map[string]string{
			"holo":       "trading_cards",
			"foil":       "trading_cards",
			"rookie":     "sports_cards",
			"autograph":  "sports_cards",
			"pressing":   "vinyl_records",
			"turntable":  "vinyl_records",
			"numismatic": "coins",
			"proof set":  "coins",
			"perforated": "stamps",
			"facsimile":  "comics",
			"deadstock":  "sneakers",
			"colorway":   "sneakers",
			"cartridge":  "video_games",
			"cib":        "video_games",
			"diecast":    "toys",
		},
		Keywords: map[string][]string{
			"vinyl_records": {"record", "album", "single", "pressing", "vinyl", "ep", "soundtrack"},
			"sports_cards":  {"card", "rookie", "baseball card", "basketball card", "football card", "graded", "refractor"},
			"trading_cards": {"pokemon", "magic the gathering", "yugioh", "booster", "holo", "tcg"},
			"coins":         {"coin", "penny", "nickel", "dime", "quarter", "dollar coin", "silver", "gold", "bullion"},
			"stamps":        {"stamp", "postage", "cover", "sheet", "airmail"},
			"comics":        {"comic", "issue", "graphic novel", "manga", "golden age", "silver age"},
			"vehicles":      {"car", "truck", "motorcycle", "sedan", "coupe", "convertible", "mileage"},
			"watches":       {"watch", "rolex", "omega", "seiko", "dial", "bezel", "movement"},
			"sneakers":      {"sneaker", "jordan", "nike", "adidas", "yeezy", "size"},
			"video_games":   {"game", "nintendo", "playstation", "xbox", "sega", "console", "sealed"},
			"toys":          {"toy", "action figure", "lego", "funko", "hot wheels", "doll"},
			"books":         {"book", "novel", "hardcover", "paperback", "signed copy", "first edition"},
			"art":           {"painting", "print", "lithograph", "sculpture", "canvas", "signed"},
			"jewelry":       {"ring", "necklace", "bracelet", "earring", "diamond", "carat"},
			"electronics":   {"camera", "lens", "amplifier", "receiver", "stereo", "radio"},
		},
		Aliases: map[string]string{
			"records":       "vinyl_records",
			"vinyl":         "vinyl_records",
			"lps":           "vinyl_records",
			"cards":         "sports_cards",
			"tcg":           "trading_cards",
			"ccg":           "trading_cards",
			"numismatics":   "coins",
			"currency":      "coins",
			"philately":     "stamps",
			"comic_books":   "comics",
			"autos":         "vehicles",
			"automobiles":   "vehicles",
			"timepieces":    "watches",
			"shoes":         "sneakers",
			"games":         "video_games",
			"figures":       "toys",
			"literature":    "books",
			"artwork":       "art",
			"fine_art":      "art",
			"miscellaneous": "general",
			"unknown":       "general",
		},
	}
}

// LoadTables reads a YAML table file and validates it. An empty path returns
// the built-in defaults.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, eris.Wrapf(err, "category: read tables %s", path)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, eris.Wrapf(err, "category: parse tables %s", path)
	}

	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Validate checks table integrity: every override and lexicon target must be
// a known category, and every alias target must be a normalization fixed
// point (otherwise normalization would not be idempotent).
func (t Tables) Validate() error {
	known := make(map[string]bool, len(t.Keywords)+1)
	known["general"] = true
	for cat := range t.Keywords {
		known[cat] = true
	}

	for _, o := range t.Overrides {
		if len(o.Patterns) == 0 {
			return eris.Errorf("category: override for %q has no patterns", o.Category)
		}
		if !known[o.Category] {
			return eris.Errorf("category: override targets unknown category %q", o.Category)
		}
	}
	for term, cat := range t.Lexicon {
		if !known[cat] {
			return eris.Errorf("category: lexicon term %q targets unknown category %q", term, cat)
		}
	}
	for alias, target := range t.Aliases {
		if !known[target] {
			return eris.Errorf("category: alias %q targets unknown category %q", alias, target)
		}
		if _, clash := t.Aliases[target]; clash {
			return eris.Errorf("category: alias target %q is itself aliased", target)
		}
	}
	return nil
}

// Categories returns every known category name, sorted, including "general".
func (t Tables) Categories() []string {
	out := make([]string, 0, len(t.Keywords)+1)
	for cat := range t.Keywords {
		out = append(out, cat)
	}
	out = append(out, "general")
	sort.Strings(out)
	return out
}
