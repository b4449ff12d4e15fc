// Package config handles loading and validating the podsynth configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nadzzz/podsynth/internal/podcast"
)

// Config is the root configuration for podsynth.
type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Pipeline PipelineConfig           `mapstructure:"pipeline"`
	LLM      LLMConfig                `mapstructure:"llm"`
	Podcast  PodcastConfig            `mapstructure:"podcast"`
	Backends map[string]BackendConfig `mapstructure:"backends"`
	Logging  LoggingConfig            `mapstructure:"logging"`
}

// ServerConfig holds the ports used by the serve command.
type ServerConfig struct {
	HTTPPort   int `mapstructure:"http_port"`
	GRPCPort   int `mapstructure:"grpc_port"`
	HealthPort int `mapstructure:"health_port"`
}

// PipelineConfig tunes a single pipeline run.
type PipelineConfig struct {
	OutputDir      string        `mapstructure:"output_dir"`
	Concurrency    int           `mapstructure:"concurrency"`
	TrimSilence    bool          `mapstructure:"trim_silence"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	ScriptAttempts int           `mapstructure:"script_attempts"`
}

// LLMConfig configures the script generator (any OpenAI-compatible chat API).
type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	OutputLanguage string `mapstructure:"output_language"`
	Usetime        string `mapstructure:"usetime"`
	PromptDir      string `mapstructure:"prompt_dir"` // overrides for the built-in prompt templates
}

// PodcastConfig holds the default speaker roster and the voice catalog.
type PodcastConfig struct {
	Speakers    []podcast.Speaker `mapstructure:"speakers"`
	Voices      []podcast.Voice   `mapstructure:"voices"`
	TurnPattern string            `mapstructure:"turn_pattern"`
}

// BackendConfig defines one text-to-speech provider. The map key in
// Config.Backends is the name speakers refer to through their owner field.
type BackendConfig struct {
	Type         string            `mapstructure:"type"`     // "piper", "http" or "openai"
	Endpoint     string            `mapstructure:"endpoint"` // piper: Wyoming host:port; openai: base URL
	URLTemplate  string            `mapstructure:"url_template"`
	BodyTemplate string            `mapstructure:"body_template"`
	Method       string            `mapstructure:"method"`
	Headers      map[string]string `mapstructure:"headers"`
	APIKey       string            `mapstructure:"api_key"`
	Model        string            `mapstructure:"model"`
	Format       string            `mapstructure:"format"`
	RateLimit    float64           `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Timeout      time.Duration     `mapstructure:"timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./podsynth.yaml, ./configs/podsynth.yaml, /etc/podsynth/podsynth.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("pipeline.output_dir", "output")
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.trim_silence", true)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.retry_base_delay", time.Second)
	v.SetDefault("pipeline.script_attempts", 3)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("podcast.turn_pattern", "random")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("podsynth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/podsynth")
	}

	// Environment variables: PODSYNTH_PIPELINE_CONCURRENCY, PODSYNTH_LLM_API_KEY, etc.
	v.SetEnvPrefix("PODSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional; env vars and defaults are sufficient for a dry setup)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.LLM.APIKey = resolveEnvRef(cfg.LLM.APIKey)
	for name, b := range cfg.Backends {
		b.APIKey = resolveEnvRef(b.APIKey)
		for k, h := range b.Headers {
			b.Headers[k] = resolveEnvRef(h)
		}
		cfg.Backends[name] = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.MaxRetries < 1 {
		return fmt.Errorf("pipeline.max_retries must be at least 1, got %d", c.Pipeline.MaxRetries)
	}
	if c.Pipeline.ScriptAttempts < 1 {
		return fmt.Errorf("pipeline.script_attempts must be at least 1, got %d", c.Pipeline.ScriptAttempts)
	}
	for name, b := range c.Backends {
		switch strings.ToLower(b.Type) {
		case "piper", "http", "openai":
		default:
			return fmt.Errorf("backends.%s: unknown type %q (want piper, http or openai)", name, b.Type)
		}
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
