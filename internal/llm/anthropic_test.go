package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// assessmentSchema is a cut-down version of the writing assessment shape.
func assessmentSchema() *Schema {
	return &Schema{
		Name: "writing-assessment-test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":  map[string]any{"type": "number", "minimum": 0, "maximum": 10},
				"passed": map[string]any{"type": "boolean"},
				"badge":  map[string]any{"type": "string"},
			},
			"required": []any{"score", "passed"},
		},
	}
}

func assessRequest() Request {
	return Request{
		System:    "You assess primary school writing.",
		Messages:  []Message{{Role: RoleUser, Content: "Level wl-03. Text: The dog runs."}},
		Schema:    assessmentSchema(),
		MaxTokens: 256,
	}
}

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"}, option.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func anthropicError(w http.ResponseWriter, status int, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"type":  "error",
		"error": map[string]any{"type": kind, "message": kind},
	})
}

func TestAnthropicProvider_Assessment(t *testing.T) {
	var sent map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage("```json\n{\"score\":7,\"passed\":true}\n```", "end_turn"))
	})

	resp, err := p.Generate(context.Background(), assessRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"score":7,"passed":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 80 || resp.StopReason != StopEnd {
		t.Fatalf("unexpected usage or stop: %+v %q", resp.Usage, resp.StopReason)
	}
	if sent["model"] != "claude-haiku-4-5-20251001" {
		t.Fatalf("alias not resolved, sent model %v", sent["model"])
	}
	if msgs, _ := sent["messages"].([]any); len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", sent["messages"])
	}
}

func TestAnthropicProvider_RateLimitCarriesRetryAfter(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		anthropicError(w, http.StatusTooManyRequests, "rate_limit_error")
	})

	_, err := p.Generate(context.Background(), assessRequest())
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Fatalf("expected 7s retry-after, got %s", rl.RetryAfter)
	}
}

func TestAnthropicProvider_ErrorKinds(t *testing.T) {
	tests := []struct {
		status    int
		kind      string
		transient bool
	}{
		{http.StatusInternalServerError, "api_error", true},
		{529, "overloaded_error", true},
		{http.StatusUnauthorized, "authentication_error", false},
		{http.StatusBadRequest, "invalid_request_error", false},
	}
	for _, tt := range tests {
		p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
			anthropicError(w, tt.status, tt.kind)
		})
		_, err := p.Generate(context.Background(), assessRequest())
		if err == nil {
			t.Fatalf("%d: expected error", tt.status)
		}
		if IsTransient(err) != tt.transient {
			t.Errorf("%d: IsTransient = %v, want %v (%v)", tt.status, IsTransient(err), tt.transient, err)
		}
	}
}

func TestAnthropicProvider_TruncatedReply(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"score":7,"pass`, "max_tokens"))
	})

	_, err := p.Generate(context.Background(), assessRequest())
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
	if string(maxTok.Content) != `{"score":7,"pass` {
		t.Fatalf("partial content lost: %s", maxTok.Content)
	}
}

func TestAnthropicProvider_SchemaMismatch(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"score":"seven"}`, "end_turn"))
	})

	_, err := p.Generate(context.Background(), assessRequest())
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, name, want string
	}{
		{"anthropic", "claude-sonnet", "claude-sonnet-4-20250514"},
		{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001"},
		{"anthropic", "claude-opus-4-1", "claude-opus-4-1"},
		{"openai", "gpt-mini", "gpt-4o-mini"},
		{"gemini", "gemini-flash", "gemini-2.0-flash"},
		{"openrouter", "gemini-flash", "gemini-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.provider, tt.name); got != tt.want {
			t.Errorf("resolveModel(%q, %q) = %q, want %q", tt.provider, tt.name, got, tt.want)
		}
	}
}
