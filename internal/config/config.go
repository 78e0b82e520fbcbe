// Package config loads wordsmith settings from a YAML file, a .env file,
// WORDSMITH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/wordsmith/internal/llm"
	"github.com/abhisek/wordsmith/internal/logging"
	"github.com/abhisek/wordsmith/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. WORDSMITH_SERVER_ADDR.
const EnvPrefix = "WORDSMITH"

type Config struct {
	// DB is the SQLite path. Empty resolves to store.DefaultDBPath.
	DB string `mapstructure:"db"`

	Server      ServerConfig            `mapstructure:"server"`
	LLM         llm.Config              `mapstructure:"llm"`
	Assessment  AssessmentConfig        `mapstructure:"assessment"`
	Progression ProgressionConfig       `mapstructure:"progression"`
	Mastery     MasteryConfig           `mapstructure:"mastery"`
	Log         logging.Config          `mapstructure:"log"`
	Tracing     telemetry.TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr            string          `mapstructure:"addr"`
	Mode            string          `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`

	// ReconcileInterval is how often pending progression and mastery
	// updates are retried. Zero disables the reconciler.
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

// RateLimitConfig bounds oracle-backed requests per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AssessmentConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type ProgressionConfig struct {
	WriteAttempts int           `mapstructure:"write_attempts"`
	WriteBackoff  time.Duration `mapstructure:"write_backoff"`
}

type MasteryConfig struct {
	Window int `mapstructure:"window"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			Mode:              "release",
			ShutdownTimeout:   15 * time.Second,
			ReconcileInterval: time.Minute,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 1,
				Burst:             5,
			},
		},
		LLM: llm.DefaultConfig(),
		Assessment: AssessmentConfig{
			MaxTokens:   1536,
			Temperature: 0.2,
		},
		Progression: ProgressionConfig{
			WriteAttempts: 3,
			WriteBackoff:  50 * time.Millisecond,
		},
		Mastery: MasteryConfig{Window: 8},
		Log:     logging.DefaultConfig(),
		Tracing: telemetry.TracingConfig{ServiceName: "wordsmith"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	defaults := map[string]any{
		"db": d.DB,

		"server.addr":                          d.Server.Addr,
		"server.mode":                          d.Server.Mode,
		"server.shutdown_timeout":              d.Server.ShutdownTimeout,
		"server.reconcile_interval":            d.Server.ReconcileInterval,
		"server.rate_limit.requests_per_second": d.Server.RateLimit.RequestsPerSecond,
		"server.rate_limit.burst":              d.Server.RateLimit.Burst,

		"llm.provider":            d.LLM.Provider,
		"llm.timeout":             d.LLM.Timeout,
		"llm.max_tokens":          d.LLM.MaxTokens,
		"llm.anthropic.api_key":   d.LLM.Anthropic.APIKey,
		"llm.anthropic.model":     d.LLM.Anthropic.Model,
		"llm.openai.api_key":      d.LLM.OpenAI.APIKey,
		"llm.openai.model":        d.LLM.OpenAI.Model,
		"llm.openai.base_url":     d.LLM.OpenAI.BaseURL,
		"llm.gemini.api_key":      d.LLM.Gemini.APIKey,
		"llm.gemini.model":        d.LLM.Gemini.Model,
		"llm.gemini.base_url":     d.LLM.Gemini.BaseURL,
		"llm.openrouter.api_key":  d.LLM.OpenRouter.APIKey,
		"llm.openrouter.model":    d.LLM.OpenRouter.Model,
		"llm.openrouter.base_url": d.LLM.OpenRouter.BaseURL,
		"llm.openrouter.referer":  d.LLM.OpenRouter.Referer,
		"llm.retry.max_attempts":  d.LLM.Retry.MaxAttempts,
		"llm.retry.initial_wait":  d.LLM.Retry.InitialWait,
		"llm.retry.max_wait":      d.LLM.Retry.MaxWait,
		"llm.retry.multiplier":    d.LLM.Retry.Multiplier,
		"llm.retry.retry_invalid": d.LLM.Retry.RetryInvalid,

		"assessment.max_tokens":      d.Assessment.MaxTokens,
		"assessment.temperature":     d.Assessment.Temperature,
		"progression.write_attempts": d.Progression.WriteAttempts,
		"progression.write_backoff":  d.Progression.WriteBackoff,
		"mastery.window":             d.Mastery.Window,

		"log.level":        d.Log.Level,
		"log.format":       d.Log.Format,
		"log.file":         d.Log.File,
		"log.max_size_mb":  d.Log.MaxSizeMB,
		"log.max_backups":  d.Log.MaxBackups,
		"log.max_age_days": d.Log.MaxAgeDays,

		"tracing.enabled":      d.Tracing.Enabled,
		"tracing.endpoint":     d.Tracing.Endpoint,
		"tracing.service_name": d.Tracing.ServiceName,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"db":        "db",
	"addr":      "server.addr",
	"provider":  "llm.provider",
	"log-level": "log.level",
}

// Load reads settings in increasing priority: defaults, config file,
// environment (.env included), flags. An empty path searches for
// wordsmith.yaml in the working directory and $XDG_CONFIG_HOME/wordsmith.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal; the real environment still applies.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("wordsmith")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	llm.ApplyStandardKeys(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that do not depend on the chosen command. The
// LLM provider is validated by the commands that call it.
func (c *Config) Validate() error {
	var errs []string
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Sprintf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		errs = append(errs, "server.rate_limit values must not be negative")
	}
	if c.Progression.WriteAttempts < 1 {
		errs = append(errs, fmt.Sprintf("progression.write_attempts must be at least 1, got %d", c.Progression.WriteAttempts))
	}
	if c.Mastery.Window < 1 {
		errs = append(errs, fmt.Sprintf("mastery.window must be at least 1, got %d", c.Mastery.Window))
	}
	if c.Assessment.Temperature < 0 || c.Assessment.Temperature > 1 {
		errs = append(errs, fmt.Sprintf("assessment.temperature must be in [0, 1], got %g", c.Assessment.Temperature))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func configDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "wordsmith")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wordsmith")
}
