package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	assert.Equal(t, 45, cfg.Providers.CallTimeoutSecs)
	assert.InDelta(t, 2.0, cfg.Providers.RatePerSec, 1e-9)
	assert.InDelta(t, 1.0, cfg.Providers.Anthropic.Weight, 1e-9)
	assert.InDelta(t, 1.2, cfg.Providers.Perplexity.Weight, 1e-9)

	assert.Equal(t, 10, cfg.Engine.TargetProviderCount)
	assert.Equal(t, 3, cfg.Engine.MinVotesForConsensus)
	assert.Equal(t, 75, cfg.Engine.LowParticipationCap)
	assert.InDelta(t, 0.05, cfg.Engine.AuthorityBoost, 1e-9)
	assert.InDelta(t, 1.25, cfg.Engine.MarketLookupBonus, 1e-9)
	assert.Equal(t, 180, cfg.Engine.RunCeilingSecs)

	assert.Equal(t, 10, cfg.Authority.TimeoutSecs)
	assert.Equal(t, 12, cfg.Authority.MaxNameDistance)
	assert.Contains(t, cfg.Authority.Categories, "coins")
	assert.Contains(t, cfg.Authority.Categories, "vinyl_records")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APPRAISE_PROVIDERS_ANTHROPIC_KEY", "sk-test")
	t.Setenv("APPRAISE_ENGINE_MIN_VOTES_FOR_CONSENSUS", "5")
	t.Setenv("APPRAISE_STORE_DRIVER", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Providers.Anthropic.Key)
	assert.Equal(t, 5, cfg.Engine.MinVotesForConsensus)
	assert.Equal(t, "none", cfg.Store.Driver)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, "config.yaml", `
log:
  level: debug
  format: console
engine:
  target_provider_count: 4
providers:
  perplexity:
    weight: 2.5
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Engine.TargetProviderCount)
	assert.InDelta(t, 2.5, cfg.Providers.Perplexity.Weight, 1e-9)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3, cfg.Engine.MinVotesForConsensus)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouty", Format: "json"}))
}
