package llm

import (
	"context"
	"encoding/json"
)

// Provider is the scoring oracle seen by the rest of the engine: a
// text-completion service that is asked for JSON and whose answer is
// checked before it is handed back.
type Provider interface {
	// Generate sends req to the model. When req.Schema is set the provider
	// requests structured output and validates the reply before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier the provider sends requests to.
	ModelID() string

	// Name returns the provider family, e.g. "anthropic".
	Name() string
}

// Request is a single oracle call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages holds the conversation. Assessment calls send one user
	// message carrying the rubric and the pupil's text.
	Messages []Message

	// Schema, when set, asks for JSON output of this shape.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero means deterministic.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema describes the JSON shape expected back from the model.
type Schema struct {
	// Name is a kebab-case identifier, e.g. "writing-assessment". It is
	// sent as the tool or schema name and keys the compile cache.
	Name string

	Description string

	// Definition is the JSON Schema sent to the provider to steer
	// generation.
	Definition map[string]any

	// Envelope, when set, replaces Definition for validating the reply.
	// It lets callers accept partial output and coerce it themselves
	// while still rejecting anything that is not the right kind of JSON.
	Envelope map[string]any
}

// validationDefinition returns the definition replies are checked against.
func (s *Schema) validationDefinition() (string, map[string]any) {
	if s.Envelope != nil {
		return s.Name + ".envelope", s.Envelope
	}
	return s.Name, s.Definition
}

// Response is the model's reply.
type Response struct {
	// Content is the validated JSON when a schema was requested, the raw
	// text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
