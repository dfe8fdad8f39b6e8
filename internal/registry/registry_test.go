package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/appraise/internal/model"
)

type stubClient struct{ id string }

func (s *stubClient) ID() string { return s.id }

func (s *stubClient) Analyze(ctx context.Context, req AnalysisRequest) (*model.Analysis, error) {
	return &model.Analysis{}, nil
}

func provider(id string, caps ...model.Capability) model.Provider {
	return model.Provider{ID: id, Name: id, Capabilities: caps, BaseWeight: 1}
}

func TestByCapabilityPreservesRegistrationOrder(t *testing.T) {
	r := New()
	r.Register(provider("a", model.CapabilityImage, model.CapabilityText), &stubClient{id: "a"})
	r.Register(provider("b", model.CapabilityText), &stubClient{id: "b"})
	r.Register(provider("c", model.CapabilitySearch), &stubClient{id: "c"})

	text := r.ByCapability(model.CapabilityText)
	require.Len(t, text, 2)
	assert.Equal(t, "a", text[0].Provider.ID)
	assert.Equal(t, "b", text[1].Provider.ID)

	assert.Len(t, r.ByCapability(model.CapabilityImage), 1)
	assert.Len(t, r.ByCapability(model.CapabilitySearch), 1)
	assert.Equal(t, 3, r.Len())
}

func TestValidateEmptyRegistry(t *testing.T) {
	r := New()
	assert.Error(t, r.Validate())

	r.Register(provider("a", model.CapabilityText), &stubClient{id: "a"})
	assert.NoError(t, r.Validate())
}

func TestExcludedProvidersDoNotCountTowardRoster(t *testing.T) {
	r := New()
	r.MarkExcluded(provider("a", model.CapabilityText), "no API key configured")

	assert.Equal(t, 0, r.Len())
	assert.Error(t, r.Validate())

	statuses := r.Statuses()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Initialized)
	assert.Equal(t, "no API key configured", statuses[0].LastError)
}

func TestStatusesSortedAndTrackErrors(t *testing.T) {
	r := New()
	r.Register(provider("zeta", model.CapabilityText), &stubClient{id: "zeta"})
	r.Register(provider("alpha", model.CapabilityText), &stubClient{id: "alpha"})

	r.MarkError("zeta", errors.New("timeout"))
	r.MarkError("zeta", nil) // nil must not clear or record anything
	r.MarkError("missing", errors.New("ignored"))

	statuses := r.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "alpha", statuses[0].ID)
	assert.Equal(t, "zeta", statuses[1].ID)
	assert.Equal(t, "timeout", statuses[1].LastError)
	assert.True(t, statuses[0].HasCredential)
}
