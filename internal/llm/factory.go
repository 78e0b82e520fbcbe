package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → per-attempt timeout → logging → base, so every attempt
// is bounded and recorded on its own.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return Wrap(base, cfg, eventRepo, logger), nil
}

// Wrap applies the standard decorator chain to base.
func Wrap(base Provider, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) Provider {
	logged := WithLogging(base, eventRepo, logger)
	bounded := WithTimeout(logged, cfg.Timeout)
	return WithRetry(bounded, cfg.Retry)
}
