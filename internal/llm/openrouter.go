package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider targets OpenRouter's OpenAI-compatible API. Model
// names are OpenRouter slugs such as "google/gemini-2.0-flash-exp" and are
// never aliased. Requests carry the attribution headers OpenRouter uses to
// identify the calling app.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	header := http.Header{}
	header.Set("X-Title", "wordsmith")
	if cfg.Referer != "" {
		header.Set("HTTP-Referer", cfg.Referer)
	}
	return newChatProvider("openrouter", cfg.APIKey, baseURL, cfg.Model, header), nil
}
