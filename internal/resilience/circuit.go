package resilience

import (
	"sync"
	"time"
)

// BreakerState is the current mode of one provider's breaker.
type BreakerState int

const (
	// BreakerClosed is the normal state; calls flow through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cool-down elapses.
	BreakerOpen
	// BreakerHalfOpen admits one probe call to test recovery.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when a provider is taken out of rotation.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// breaker opens.
	FailureThreshold int
	// CoolDown is how long an open breaker rejects calls before admitting
	// a probe.
	CoolDown time.Duration
}

// DefaultBreakerConfig returns sensible defaults for AI provider calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 3, CoolDown: 60 * time.Second}
}

// Breaker is a minimal circuit breaker for one provider. A skipped provider
// costs the run one vote, not an error, so the breaker favors availability:
// any success closes it fully.
type Breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	probing     bool

	nowFunc func() time.Time
}

// NewBreaker creates a breaker with the given config.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 60 * time.Second
	}
	return &Breaker{cfg: cfg, nowFunc: time.Now}
}

// Allow reports whether a call may proceed. In the open state it admits a
// single probe once the cool-down has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.cfg.FailureThreshold {
		return true
	}
	if b.nowFunc().Sub(b.lastFailure) < b.cfg.CoolDown {
		return false
	}
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

// Record registers a call outcome.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	b.lastFailure = b.nowFunc()
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.cfg.FailureThreshold {
		return BreakerClosed
	}
	if b.nowFunc().Sub(b.lastFailure) >= b.cfg.CoolDown {
		return BreakerHalfOpen
	}
	return BreakerOpen
}

// ProviderBreakers manages one breaker per provider ID.
type ProviderBreakers struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	breakers map[string]*Breaker
}

// NewProviderBreakers creates a per-provider breaker registry.
func NewProviderBreakers(cfg BreakerConfig) *ProviderBreakers {
	return &ProviderBreakers{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// Get returns the breaker for a provider, creating it on first use.
func (pb *ProviderBreakers) Get(providerID string) *Breaker {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	b, ok := pb.breakers[providerID]
	if !ok {
		b = NewBreaker(pb.cfg)
		pb.breakers[providerID] = b
	}
	return b
}

// States returns a snapshot of every known breaker state.
func (pb *ProviderBreakers) States() map[string]BreakerState {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	out := make(map[string]BreakerState, len(pb.breakers))
	for id, b := range pb.breakers {
		out[id] = b.State()
	}
	return out
}
