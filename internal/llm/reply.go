package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// reply is what every provider extracts from its SDK response before the
// shared checks run.
type reply struct {
	text  string
	stop  string
	model string
	usage Usage
}

// finish turns a provider reply into a Response. A truncated reply is
// reported as ErrMaxTokensExceeded since a half-written assessment is
// never valid JSON, and anything else is checked against req.Schema.
func (r reply) finish(req Request) (*Response, error) {
	content := json.RawMessage(StripFences(r.text))
	if r.stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if req.Schema != nil && len(content) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty reply")}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	if r.usage.TotalTokens == 0 {
		r.usage.TotalTokens = r.usage.InputTokens + r.usage.OutputTokens
	}
	return &Response{
		Content:    content,
		Usage:      r.usage,
		Model:      r.model,
		StopReason: StopEnd,
	}, nil
}

// StripFences removes a surrounding markdown code fence, which some models
// add even when asked for bare JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
