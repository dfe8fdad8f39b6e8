package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		in   string
		want string
	}{
		{"Trading Cards", "trading_cards"},
		{"  Sports   Cards ", "sports_cards"},
		{"VINYL", "vinyl_records"},
		{"Comic-Books!", "comics"},
		{"fine art", "art"},
		{"general", "general"},
		{"weird/new/category", "weird_new_category"},
		{"", ""},
		{"  --  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	c := newTestClassifier(t)

	inputs := []string{
		"Trading Cards", "VINYL", "Comic-Books", "weird/new/category",
		"Straße", "CAFÉ collectibles",
	}
	inputs = append(inputs, c.tables.Categories()...)
	for alias := range c.tables.Aliases {
		inputs = append(inputs, alias)
	}

	for _, in := range inputs {
		once := c.Normalize(in)
		require.Equal(t, once, c.Normalize(once), "normalize must be a fixed point for %q", in)
	}
}

func TestMatchTextKeepsPunctuation(t *testing.T) {
	// Patterns like "vin:" depend on punctuation surviving the fold.
	assert.Equal(t, "vin: 1hgbh41jxmn109186", matchText("VIN:  1HGBH41JXMN109186"))
}
