// Package registry holds the configured AI providers and their clients.
// The registry is built once at process start and passed by handle into each
// valuation run; it is read-only during a run.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gavelworks/appraise/internal/model"
)

// AnalysisRequest is the input to one provider call.
type AnalysisRequest struct {
	Images []model.Image
	Prompt string
}

// Client is the contract a provider adapter must satisfy. Implementations
// live in internal/providers; each call is expected to be independently
// cancellable via ctx and may fail or time out without affecting siblings.
type Client interface {
	ID() string
	Analyze(ctx context.Context, req AnalysisRequest) (*model.Analysis, error)
}

// Entry pairs a provider descriptor with its live client.
type Entry struct {
	Provider model.Provider
	Client   Client
}

// Registry manages the loaded provider roster. Registration happens at
// startup; afterwards the roster is immutable and only per-provider status
// (last error) is updated, under the mutex.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	status  map[string]*model.ProviderStatus
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{status: make(map[string]*model.ProviderStatus)}
}

// Register adds an initialized provider to the roster.
func (r *Registry) Register(p model.Provider, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Provider: p, Client: c})
	r.status[p.ID] = &model.ProviderStatus{
		ID:            p.ID,
		Name:          p.Name,
		HasCredential: true,
		Initialized:   true,
	}
}

// MarkExcluded records a provider that was configured but could not be
// loaded (usually a missing credential). Exclusion is logged, not an error.
func (r *Registry) MarkExcluded(p model.Provider, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[p.ID] = &model.ProviderStatus{
		ID:        p.ID,
		Name:      p.Name,
		LastError: reason,
	}
	zap.L().Info("registry: provider excluded",
		zap.String("provider", p.ID),
		zap.String("reason", reason),
	)
}

// MarkError records the most recent call failure for a provider, for
// health-check callers.
func (r *Registry) MarkError(id string, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.status[id]; ok {
		st.LastError = err.Error()
	}
}

// ByCapability returns the loaded providers carrying the given tag, in
// registration order.
func (r *Registry) ByCapability(c model.Capability) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if e.Provider.HasCapability(c) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of loaded providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Statuses returns a sorted snapshot of every configured provider slot,
// including excluded ones.
func (r *Registry) Statuses() []model.ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProviderStatus, 0, len(r.status))
	for _, st := range r.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate returns a hard error when no provider loaded. A run with an
// empty roster is a configuration mistake, not a degraded result.
func (r *Registry) Validate() error {
	if r.Len() == 0 {
		return eris.New("registry: no providers loaded")
	}
	return nil
}
