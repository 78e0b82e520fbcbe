package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutProvider bounds every call to the inner provider. Place it inside
// WithRetry so each attempt gets a fresh deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so a single attempt cannot run longer than d. A zero
// or negative d disables the bound.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(attemptCtx, req)
	if err == nil {
		return resp, nil
	}

	// Our deadline fired but the caller is still waiting: report it as a
	// transient outage so the retry layer can try again.
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return nil, &ErrProviderUnavailable{
			Err: fmt.Errorf("%w after %s", ErrAttemptTimeout, t.timeout),
		}
	}
	return nil, err
}

func (t *TimeoutProvider) ModelID() string { return t.inner.ModelID() }

func (t *TimeoutProvider) Name() string { return t.inner.Name() }
