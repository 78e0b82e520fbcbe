package llm

import "context"

// callInfo labels an oracle call in the event log.
type callInfo struct {
	purpose   string
	attemptID string
}

type callInfoKey struct{}

func callInfoFrom(ctx context.Context) callInfo {
	info, _ := ctx.Value(callInfoKey{}).(callInfo)
	return info
}

// WithPurpose labels calls made with ctx, e.g. "writing-assessment".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	info := callInfoFrom(ctx)
	info.purpose = purpose
	return context.WithValue(ctx, callInfoKey{}, info)
}

// WithAttempt ties calls made with ctx to a stored attempt so its oracle
// traffic can be audited later.
func WithAttempt(ctx context.Context, attemptID string) context.Context {
	info := callInfoFrom(ctx)
	info.attemptID = attemptID
	return context.WithValue(ctx, callInfoKey{}, info)
}

// PurposeFrom returns the purpose label, "unknown" when unset.
func PurposeFrom(ctx context.Context) string {
	if p := callInfoFrom(ctx).purpose; p != "" {
		return p
	}
	return "unknown"
}

// AttemptFrom returns the attempt ID, empty when unset.
func AttemptFrom(ctx context.Context) string {
	return callInfoFrom(ctx).attemptID
}
