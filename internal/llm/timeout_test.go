package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// slowProvider blocks until ctx is done for the first n calls.
type slowProvider struct {
	slow  int32
	calls atomic.Int32
}

func (s *slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	if s.calls.Add(1) <= s.slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &Response{Content: json.RawMessage(`{"ok":true}`), Model: "slow"}, nil
}

func (s *slowProvider) ModelID() string { return "slow" }
func (s *slowProvider) Name() string    { return "slow" }

func TestTimeout_AttemptDeadlineIsTransient(t *testing.T) {
	p := WithTimeout(&slowProvider{slow: 1}, 10*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
	if !errors.Is(err, ErrAttemptTimeout) {
		t.Fatalf("expected ErrAttemptTimeout in chain, got: %v", err)
	}
}

func TestTimeout_RetriedWithFreshDeadline(t *testing.T) {
	slow := &slowProvider{slow: 1}
	p := WithRetry(WithTimeout(slow, 10*time.Millisecond), retryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if slow.calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", slow.calls.Load())
	}
}

func TestTimeout_CallerCancellationPassesThrough(t *testing.T) {
	slow := &slowProvider{slow: 5}
	p := WithRetry(WithTimeout(slow, time.Second), retryConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected caller deadline, got: %v", err)
	}
	if errors.Is(err, ErrAttemptTimeout) {
		t.Fatal("caller deadline must not be reported as an attempt timeout")
	}
	if slow.calls.Load() != 1 {
		t.Fatalf("expected no retry, got %d calls", slow.calls.Load())
	}
}

func TestTimeout_ZeroDisables(t *testing.T) {
	mock := NewMockProvider()
	if p := WithTimeout(mock, 0); p != Provider(mock) {
		t.Fatal("expected zero timeout to return the provider unchanged")
	}
}
