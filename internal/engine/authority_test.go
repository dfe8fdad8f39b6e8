package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gavelworks/appraise/internal/model"
)

type fetcherFunc func(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error)

func (f fetcherFunc) Fetch(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
	return f(ctx, category, itemKey)
}

func TestMaybeEnrichBackedCategory(t *testing.T) {
	record := &model.AuthorityRecord{Verified: true, PointValue: floatPtr(42)}
	b := NewBlender(fetcherFunc(func(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
		assert.Equal(t, "coins", category)
		assert.Equal(t, "1921 Morgan Dollar", itemKey)
		return record, nil
	}), []string{"coins", "stamps"}, time.Second)

	got := b.MaybeEnrich(context.Background(), "coins", "1921 Morgan Dollar")
	assert.Equal(t, record, got)
}

func TestMaybeEnrichSkipsUnbackedCategory(t *testing.T) {
	called := false
	b := NewBlender(fetcherFunc(func(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
		called = true
		return &model.AuthorityRecord{}, nil
	}), []string{"coins"}, time.Second)

	assert.Nil(t, b.MaybeEnrich(context.Background(), "toys", "tin robot"))
	assert.False(t, called)
}

func TestMaybeEnrichSkipsEmptyItemKey(t *testing.T) {
	called := false
	b := NewBlender(fetcherFunc(func(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
		called = true
		return &model.AuthorityRecord{}, nil
	}), []string{"coins"}, time.Second)

	assert.Nil(t, b.MaybeEnrich(context.Background(), "coins", ""))
	assert.False(t, called)
}

func TestMaybeEnrichSwallowsFetchError(t *testing.T) {
	b := NewBlender(fetcherFunc(func(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
		return nil, errors.New("catalog down")
	}), []string{"coins"}, time.Second)

	assert.Nil(t, b.MaybeEnrich(context.Background(), "coins", "1921 Morgan Dollar"))
}

func TestMaybeEnrichNilBlenderSafe(t *testing.T) {
	var b *Blender
	assert.Nil(t, b.MaybeEnrich(context.Background(), "coins", "anything"))
}

func TestMaybeEnrichNoMatchIsNil(t *testing.T) {
	b := NewBlender(fetcherFunc(func(ctx context.Context, category, itemKey string) (*model.AuthorityRecord, error) {
		return nil, nil
	}), []string{"coins"}, time.Second)

	assert.Nil(t, b.MaybeEnrich(context.Background(), "coins", "1921 Morgan Dollar"))
}
