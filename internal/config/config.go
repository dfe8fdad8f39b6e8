package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	Category  CategoryConfig  `yaml:"category" mapstructure:"category"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ProvidersConfig configures the AI provider roster.
type ProvidersConfig struct {
	Anthropic       AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini          GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	OpenAI          OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Perplexity      PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	CallTimeoutSecs int              `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	// RatePerSec caps outbound requests per provider client.
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key    string  `yaml:"key" mapstructure:"key"`
	Model  string  `yaml:"model" mapstructure:"model"`
	Weight float64 `yaml:"weight" mapstructure:"weight"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key    string  `yaml:"key" mapstructure:"key"`
	Model  string  `yaml:"model" mapstructure:"model"`
	Weight float64 `yaml:"weight" mapstructure:"weight"`
}

// OpenAIConfig holds settings for an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Model   string  `yaml:"model" mapstructure:"model"`
	Weight  float64 `yaml:"weight" mapstructure:"weight"`
}

// PerplexityConfig holds Perplexity API settings (search-capable provider).
type PerplexityConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Model   string  `yaml:"model" mapstructure:"model"`
	Weight  float64 `yaml:"weight" mapstructure:"weight"`
}

// EngineConfig holds the consensus tuning knobs. The numeric values are
// empirically tuned starting points; every one is overridable here.
type EngineConfig struct {
	TargetProviderCount  int     `yaml:"target_provider_count" mapstructure:"target_provider_count"`
	MinVotesForConsensus int     `yaml:"min_votes_for_consensus" mapstructure:"min_votes_for_consensus"`
	LowParticipationCap  int     `yaml:"low_participation_cap" mapstructure:"low_participation_cap"`
	AuthorityBoost       float64 `yaml:"authority_boost" mapstructure:"authority_boost"`
	MarketLookupBonus    float64 `yaml:"market_lookup_bonus" mapstructure:"market_lookup_bonus"`
	RunCeilingSecs       int     `yaml:"run_ceiling_secs" mapstructure:"run_ceiling_secs"`
}

// AuthorityConfig configures reference catalog lookups.
type AuthorityConfig struct {
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Key         string   `yaml:"key" mapstructure:"key"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Categories  []string `yaml:"categories" mapstructure:"categories"`
	// MaxNameDistance is the Levenshtein ceiling for catalog entry matching.
	MaxNameDistance int `yaml:"max_name_distance" mapstructure:"max_name_distance"`
}

// CategoryConfig configures the classifier tables.
type CategoryConfig struct {
	// TablePath optionally points at a YAML file overriding the built-in
	// override/keyword tables.
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
}

// StoreConfig configures the vote/result sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("APPRAISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "appraise.db")
	// Credentials default to empty so the env bindings exist; a provider
	// without a key is excluded from the roster, not an error.
	v.SetDefault("providers.anthropic.key", "")
	v.SetDefault("providers.gemini.key", "")
	v.SetDefault("providers.openai.key", "")
	v.SetDefault("providers.perplexity.key", "")
	v.SetDefault("authority.base_url", "")
	v.SetDefault("authority.key", "")
	v.SetDefault("category.table_path", "")
	v.SetDefault("providers.call_timeout_secs", 45)
	v.SetDefault("providers.rate_per_sec", 2.0)
	v.SetDefault("providers.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("providers.anthropic.weight", 1.0)
	v.SetDefault("providers.gemini.model", "gemini-3-flash-preview")
	v.SetDefault("providers.gemini.weight", 1.0)
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.model", "gpt-5.2")
	v.SetDefault("providers.openai.weight", 1.0)
	v.SetDefault("providers.perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("providers.perplexity.model", "sonar-pro")
	v.SetDefault("providers.perplexity.weight", 1.2)
	v.SetDefault("engine.target_provider_count", 10)
	v.SetDefault("engine.min_votes_for_consensus", 3)
	v.SetDefault("engine.low_participation_cap", 75)
	v.SetDefault("engine.authority_boost", 0.05)
	v.SetDefault("engine.market_lookup_bonus", 1.25)
	v.SetDefault("engine.run_ceiling_secs", 180)
	v.SetDefault("authority.timeout_secs", 10)
	v.SetDefault("authority.max_name_distance", 12)
	v.SetDefault("authority.categories", []string{
		"vinyl_records", "sports_cards", "trading_cards", "coins", "stamps", "comics",
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
