package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gavelworks/appraise/internal/model"
)

// AuthorityFetcher looks up one reference record for an item in a
// category-specific price catalog. A nil record with a nil error means
// "not found".
type AuthorityFetcher interface {
	Fetch(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error)
}

// Blender decides whether a category is authority-backed and, if so, fetches
// one reference record with a bounded timeout. Every failure path yields nil:
// enrichment is strictly optional and the run proceeds without it.
type Blender struct {
	fetcher AuthorityFetcher
	backed  map[string]bool
	timeout time.Duration
}

// NewBlender builds a blender over the authority-backed category set.
func NewBlender(fetcher AuthorityFetcher, categories []string, timeout time.Duration) *Blender {
	backed := make(map[string]bool, len(categories))
	for _, c := range categories {
		backed[c] = true
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Blender{fetcher: fetcher, backed: backed, timeout: timeout}
}

// MaybeEnrich returns a reference record for the item, or nil when the
// category is not authority-backed, the item key is empty, or the lookup
// fails in any way.
func (b *Blender) MaybeEnrich(ctx context.Context, category, itemKey string) *model.AuthorityRecord {
	if b == nil || b.fetcher == nil {
		return nil
	}
	if itemKey == "" || !b.backed[category] {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	rec, err := b.fetcher.Fetch(fetchCtx, category, itemKey)
	if err != nil {
		zap.L().Warn("authority: lookup failed, proceeding without enrichment",
			zap.String("category", category),
			zap.String("item_key", itemKey),
			zap.Error(err),
		)
		return nil
	}
	if rec == nil {
		zap.L().Debug("authority: no catalog match",
			zap.String("category", category),
			zap.String("item_key", itemKey),
		)
		return nil
	}
	return rec
}
