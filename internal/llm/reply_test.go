package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestReplyFinish_FillsTotalTokens(t *testing.T) {
	resp, err := reply{text: `{"score":1,"passed":false}`, stop: StopEnd, usage: Usage{InputTokens: 3, OutputTokens: 4}}.finish(assessRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Fatalf("expected 7 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestReplyFinish_EmptyWithSchema(t *testing.T) {
	_, err := reply{text: "  ", stop: StopEnd}.finish(assessRequest())
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestReplyFinish_PlainTextWithoutSchema(t *testing.T) {
	resp, err := reply{text: "hello", stop: StopEnd}.finish(Request{})
	if err != nil || string(resp.Content) != "hello" {
		t.Fatalf("unexpected result: %v %v", resp, err)
	}
}

func TestFromStatus(t *testing.T) {
	base := errors.New("boom")
	h := http.Header{}
	h.Set("Retry-After", "2")

	var rl *ErrRateLimit
	if err := fromStatus(429, h, base); !errors.As(err, &rl) || rl.RetryAfter != 2*time.Second {
		t.Fatalf("429: got %v", err)
	}
	var rej *ErrRequestRejected
	if err := fromStatus(401, nil, base); !errors.As(err, &rej) || IsTransient(err) {
		t.Fatalf("401: got %v", err)
	}
	for _, status := range []int{0, 408, 500, 503} {
		var u *ErrProviderUnavailable
		if err := fromStatus(status, nil, base); !errors.As(err, &u) || !errors.Is(err, base) {
			t.Fatalf("%d: got %v", status, err)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	if retryAfter(h) != 0 {
		t.Fatal("missing header should give zero")
	}
	h.Set("Retry-After", "garbage")
	if retryAfter(h) != 0 {
		t.Fatal("unparseable header should give zero")
	}
	h.Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
	if d := retryAfter(h); d <= 0 || d > time.Minute {
		t.Fatalf("date header gave %s", d)
	}
}
