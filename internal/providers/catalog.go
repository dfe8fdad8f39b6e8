package providers

import (
	"context"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/pkg/catalog"
)

// CatalogFetcher resolves authority records from the external price-guide
// service. A lookup that finds no close entry is not an error; it returns a
// nil record and the consensus stands on the votes alone.
type CatalogFetcher struct {
	client *catalog.Client
}

// NewCatalogFetcher wraps a catalog client as an authority fetcher.
func NewCatalogFetcher(client *catalog.Client) *CatalogFetcher {
	return &CatalogFetcher{client: client}
}

func (f *CatalogFetcher) Fetch(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
	rec, err := f.client.Lookup(ctx, category, itemKey)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &model.AuthorityRecord{
		Verified:   rec.Entry.Verified,
		PointValue: rec.Entry.PointValue,
	}, nil
}
