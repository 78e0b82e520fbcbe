package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds oracle provider configuration. It is filled by
// internal/config from the config file and WORDSMITH_* variables.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter",
	// "mock".
	Provider string `mapstructure:"provider"`

	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Retry      RetryConfig      `mapstructure:"retry"`

	// Timeout bounds a single attempt, not the whole retried call.
	Timeout time.Duration `mapstructure:"timeout"`

	MaxTokens int `mapstructure:"max_tokens"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`

	// Referer is sent as HTTP-Referer for OpenRouter's app rankings.
	Referer string `mapstructure:"referer"`
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	// MaxAttempts counts the first call. 2 means one retry.
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`

	// RetryInvalid allows one extra attempt after a reply that failed
	// validation. Scoring leaves it off: a bad answer is reported, not
	// re-rolled.
	RetryInvalid bool `mapstructure:"retry_invalid"`
}

// DefaultConfig returns the oracle defaults: 45s per attempt and exactly
// one retry on transient failure.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout:   45 * time.Second,
		MaxTokens: 2048,
	}
}

// modelAliases maps the short names accepted in config to provider model
// IDs. Names not listed pass through unchanged.
var modelAliases = map[string]map[string]string{
	"anthropic": {
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	},
	"openai": {
		"gpt":      "gpt-4o",
		"gpt-mini": "gpt-4o-mini",
	},
	"gemini": {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	},
}

func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

// standardKeys lists the vendor API key variables in discovery order.
var standardKeys = []struct {
	provider string
	env      string
}{
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"gemini", "GEMINI_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// ApplyStandardKeys fills empty API keys from the vendors' usual
// environment variables. When cfg.Provider is empty it picks the first
// provider whose key is present and reports whether one was found.
func ApplyStandardKeys(cfg *Config) bool {
	found := ""
	for _, k := range standardKeys {
		v := os.Getenv(k.env)
		if v == "" {
			continue
		}
		if found == "" {
			found = k.provider
		}
		switch k.provider {
		case "anthropic":
			if cfg.Anthropic.APIKey == "" {
				cfg.Anthropic.APIKey = v
			}
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				cfg.OpenAI.APIKey = v
			}
		case "gemini":
			if cfg.Gemini.APIKey == "" {
				cfg.Gemini.APIKey = v
			}
		case "openrouter":
			if cfg.OpenRouter.APIKey == "" {
				cfg.OpenRouter.APIKey = v
			}
		}
	}
	if cfg.Provider == "" && found != "" {
		cfg.Provider = found
	}
	return found != ""
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("WORDSMITH_LLM_ANTHROPIC_API_KEY or ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("WORDSMITH_LLM_OPENAI_API_KEY or OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("WORDSMITH_LLM_GEMINI_API_KEY or GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("WORDSMITH_LLM_OPENROUTER_API_KEY or OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
