package model

// Capability tags what kind of analysis a provider can perform.
type Capability string

const (
	// CapabilityImage marks providers that accept item photos.
	CapabilityImage Capability = "image"
	// CapabilityText marks text-only providers that reason over a description.
	CapabilityText Capability = "text"
	// CapabilitySearch marks providers with live market search access.
	CapabilitySearch Capability = "search"
)

// Provider describes one configured AI model service. Immutable after load;
// the registry owns the canonical copy.
type Provider struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
	// BaseWeight is the static reliability weight applied to every vote
	// from this provider before self-confidence scaling.
	BaseWeight float64 `json:"base_weight"`
	// MarketLookup marks providers whose votes earn the grounded-search
	// bonus once a textual identity has been established.
	MarketLookup bool `json:"market_lookup,omitempty"`
}

// HasCapability reports whether the provider carries the given tag.
func (p Provider) HasCapability(c Capability) bool {
	for _, pc := range p.Capabilities {
		if pc == c {
			return true
		}
	}
	return false
}

// ProviderStatus is the health-check view of one provider slot.
type ProviderStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HasCredential bool   `json:"has_credential"`
	Initialized   bool   `json:"initialized"`
	LastError     string `json:"last_error,omitempty"`
	CircuitState  string `json:"circuit_state,omitempty"`
}
