package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func chatServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL + "/v1"
}

func TestOpenAIProvider_Assessment(t *testing.T) {
	var sent struct {
		Model          string `json:"model"`
		Messages       []struct{ Role string } `json:"messages"`
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string `json:"name"`
				Strict bool   `json:"strict"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	url := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"score":9,"passed":true,"badge":"Star"}`, "stop"))
	})
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini", BaseURL: url})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	resp, err := p.Generate(context.Background(), assessRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 || resp.Usage.TotalTokens != 65 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if resp.Model != "gpt-4o-mini-2024-07-18" {
		t.Fatalf("expected served model, got %q", resp.Model)
	}
	if sent.Model != "gpt-4o-mini" || len(sent.Messages) != 2 || sent.Messages[0].Role != "system" {
		t.Fatalf("unexpected request: %+v", sent)
	}
	if sent.ResponseFormat.Type != "json_schema" || sent.ResponseFormat.JSONSchema.Name != "writing-assessment-test" || !sent.ResponseFormat.JSONSchema.Strict {
		t.Fatalf("unexpected response format: %+v", sent.ResponseFormat)
	}
}

func TestOpenAIProvider_ErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl) && rl.RetryAfter == 3*time.Second
		}},
		{http.StatusInternalServerError, func(err error) bool {
			var u *ErrProviderUnavailable
			return errors.As(err, &u)
		}},
		{http.StatusNotFound, func(err error) bool {
			var rej *ErrRequestRejected
			return errors.As(err, &rej) && rej.Status == http.StatusNotFound
		}},
	}
	for _, tt := range tests {
		url := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "error", "message": http.StatusText(tt.status)},
			})
		})
		p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o", BaseURL: url})
		_, err := p.Generate(context.Background(), assessRequest())
		if !tt.check(err) {
			t.Errorf("%d: unexpected error %T (%v)", tt.status, err, err)
		}
	}
}

func TestOpenAIProvider_LengthFinishIsTruncation(t *testing.T) {
	url := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"score":`, "length"))
	})
	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o", BaseURL: url})

	_, err := p.Generate(context.Background(), assessRequest())
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	url := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := chatCompletion("", "stop")
		body["choices"] = []any{}
		json.NewEncoder(w).Encode(body)
	})
	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o", BaseURL: url})

	_, err := p.Generate(context.Background(), assessRequest())
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestOpenRouterProvider_SendsAttributionHeaders(t *testing.T) {
	var title, referer, auth string
	url := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		title, referer, auth = r.Header.Get("X-Title"), r.Header.Get("HTTP-Referer"), r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"score":5,"passed":false}`, "stop"))
	})
	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-exp",
		BaseURL: url,
		Referer: "https://school.example",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.Name() != "openrouter" || p.ModelID() != "google/gemini-2.0-flash-exp" {
		t.Fatalf("unexpected identity: %s %s", p.Name(), p.ModelID())
	}

	if _, err := p.Generate(context.Background(), assessRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "wordsmith" || referer != "https://school.example" || auth != "Bearer sk-or-test" {
		t.Fatalf("unexpected headers: title=%q referer=%q auth=%q", title, referer, auth)
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x/y"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "gemini-flash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// OpenRouter slugs are never aliased.
	if p.ModelID() != "gemini-flash" {
		t.Fatalf("model = %q", p.ModelID())
	}
}
