package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func geminiReply(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     12,
			"candidatesTokenCount": 8,
			"totalTokenCount":      20,
		},
	}
}

func TestGeminiProvider_Assessment(t *testing.T) {
	var path string
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"score":6,"passed":true}`, "STOP"))
	})

	resp, err := p.Generate(context.Background(), assessRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"score":6,"passed":true}` || resp.Usage.TotalTokens != 20 {
		t.Fatalf("unexpected response: %s %+v", resp.Content, resp.Usage)
	}
	if !strings.Contains(path, "gemini-2.0-flash:generateContent") {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestGeminiProvider_TruncatedReply(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"score":`, "MAX_TOKENS"))
	})

	_, err := p.Generate(context.Background(), assessRequest())
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestGeminiProvider_RejectedRequest(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"},
		})
	})

	_, err := p.Generate(context.Background(), assessRequest())
	var rej *ErrRequestRejected
	if !errors.As(err, &rej) || IsTransient(err) {
		t.Fatalf("expected non-transient ErrRequestRejected, got: %T (%v)", err, err)
	}
}

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":    map[string]any{"type": "number", "minimum": 0, "maximum": 10},
			"passed":   map[string]any{"type": "boolean"},
			"band":     map[string]any{"type": "string", "enum": []any{"emerging", "secure"}},
			"concepts": map[string]any{"type": "array", "maxItems": 5, "items": map[string]any{"type": "string"}},
		},
		"required": []string{"score", "passed"},
	}

	s := geminiSchema(def)

	if s.Type != genai.TypeObject || len(s.Properties) != 4 {
		t.Fatalf("unexpected object schema: %+v", s)
	}
	score := s.Properties["score"]
	if score.Type != genai.TypeNumber || score.Minimum == nil || *score.Minimum != 0 || *score.Maximum != 10 {
		t.Fatalf("unexpected score schema: %+v", score)
	}
	if len(s.Properties["band"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %v", s.Properties["band"].Enum)
	}
	concepts := s.Properties["concepts"]
	if concepts.Items.Type != genai.TypeString || *concepts.MaxItems != 5 {
		t.Fatalf("unexpected concepts schema: %+v", concepts)
	}
	want := []string{"score", "passed", "band", "concepts"}
	if strings.Join(s.PropertyOrdering, ",") != strings.Join(want, ",") {
		t.Fatalf("ordering = %v, want %v", s.PropertyOrdering, want)
	}
}
