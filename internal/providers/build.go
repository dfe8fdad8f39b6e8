package providers

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gavelworks/appraise/internal/config"
	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/pkg/anthropic"
	"github.com/gavelworks/appraise/pkg/gemini"
	"github.com/gavelworks/appraise/pkg/openai"
	"github.com/gavelworks/appraise/pkg/perplexity"
)

// BuildRegistry loads every provider that has a credential configured.
// Providers without credentials are excluded from the roster, not treated as
// errors; the registry only fails validation when nothing loads at all.
func BuildRegistry(ctx context.Context, cfg config.ProvidersConfig) (*registry.Registry, error) {
	reg := registry.New()
	rps := cfg.RatePerSec

	anthropicProvider := model.Provider{
		ID:           "anthropic",
		Name:         "Anthropic Claude",
		Capabilities: []model.Capability{model.CapabilityImage, model.CapabilityText},
		BaseWeight:   cfg.Anthropic.Weight,
	}
	if cfg.Anthropic.Key == "" {
		reg.MarkExcluded(anthropicProvider, "no API key configured")
	} else {
		client := anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithRateLimit(rps))
		reg.Register(anthropicProvider, NewAnthropicAdapter(client, cfg.Anthropic.Model))
	}

	geminiProvider := model.Provider{
		ID:           "gemini",
		Name:         "Google Gemini",
		Capabilities: []model.Capability{model.CapabilityImage, model.CapabilityText},
		BaseWeight:   cfg.Gemini.Weight,
	}
	if cfg.Gemini.Key == "" {
		reg.MarkExcluded(geminiProvider, "no API key configured")
	} else {
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key, gemini.WithRateLimit(rps))
		if err != nil {
			return nil, eris.Wrap(err, "providers: init gemini")
		}
		reg.Register(geminiProvider, NewGeminiAdapter(client, cfg.Gemini.Model))
	}

	openaiProvider := model.Provider{
		ID:           "openai",
		Name:         "OpenAI GPT",
		Capabilities: []model.Capability{model.CapabilityImage, model.CapabilityText},
		BaseWeight:   cfg.OpenAI.Weight,
	}
	if cfg.OpenAI.Key == "" {
		reg.MarkExcluded(openaiProvider, "no API key configured")
	} else {
		client := openai.NewClient(cfg.OpenAI.Key,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithRateLimit(rps),
		)
		reg.Register(openaiProvider, NewOpenAIAdapter(client, cfg.OpenAI.Model))
	}

	perplexityProvider := model.Provider{
		ID:           "perplexity",
		Name:         "Perplexity Sonar",
		Capabilities: []model.Capability{model.CapabilityText, model.CapabilitySearch},
		BaseWeight:   cfg.Perplexity.Weight,
		MarketLookup: true,
	}
	if cfg.Perplexity.Key == "" {
		reg.MarkExcluded(perplexityProvider, "no API key configured")
	} else {
		opts := []perplexity.Option{perplexity.WithRateLimit(rps)}
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		client := perplexity.NewClient(cfg.Perplexity.Key, opts...)
		reg.Register(perplexityProvider, NewPerplexityAdapter(client, cfg.Perplexity.Model))
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
