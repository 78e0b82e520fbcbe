package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

// bandSchema is a cut-down assessment reply: a bounded percentage, a pass
// flag, an enumerated band and optional error patterns.
func bandSchema() *Schema {
	return &Schema{
		Name:        "band-assessment",
		Description: "Assessment of one piece of pupil writing",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"percentage": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				"passed":     map[string]any{"type": "boolean"},
				"performance_band": map[string]any{
					"type": "string",
					"enum": []any{"emerging", "developing", "secure", "mastery"},
				},
				"error_patterns": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"percentage", "passed", "performance_band"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete reply", `{"percentage":72,"passed":true,"performance_band":"secure","error_patterns":["missing_full_stop"]}`, false},
		{"no error patterns", `{"percentage":40,"passed":false,"performance_band":"emerging"}`, false},
		{"missing band", `{"percentage":72,"passed":true}`, true},
		{"percentage as text", `{"percentage":"72%","passed":true,"performance_band":"secure"}`, true},
		{"percentage above range", `{"percentage":140,"passed":true,"performance_band":"mastery"}`, true},
		{"unknown band", `{"percentage":72,"passed":true,"performance_band":"excellent"}`, true},
		{"pattern not a string", `{"percentage":72,"passed":true,"performance_band":"secure","error_patterns":[3]}`, true},
		{"malformed json", `{"percentage":72,`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(bandSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
			}
			if string(invErr.Content) != tt.raw {
				t.Errorf("error content = %q, want the raw reply", invErr.Content)
			}
		})
	}
}

func TestValidateResponse_EmptyReply(t *testing.T) {
	if err := validateResponse(bandSchema(), json.RawMessage(``)); err == nil {
		t.Fatal("expected error for an empty reply")
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"formulas":["The [noun] [verb]."]}`)
	if err := validateResponse(nil, raw); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedFeedback(t *testing.T) {
	schema := &Schema{
		Name: "feedback-assessment",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"feedback": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"main_message": map[string]any{"type": "string"},
					},
					"required": []any{"main_message"},
				},
				"detailed_analysis": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"correct_elements": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
			"required": []any{"feedback"},
		},
	}

	valid := json.RawMessage(`{"feedback":{"main_message":"Lovely verbs."},"detailed_analysis":{"correct_elements":["Capital letters"]}}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	noMessage := json.RawMessage(`{"feedback":{"growth_area":"Adverbs."}}`)
	if err := validateResponse(schema, noMessage); err == nil {
		t.Fatal("expected error for feedback without a main message")
	}

	badElements := json.RawMessage(`{"feedback":{"main_message":"Good."},"detailed_analysis":{"correct_elements":[true]}}`)
	if err := validateResponse(schema, badElements); err == nil {
		t.Fatal("expected error for non-string correct elements")
	}
}

func TestValidateResponse_EnvelopeAcceptsPartial(t *testing.T) {
	schema := &Schema{
		Name:       "band-envelope",
		Definition: bandSchema().Definition,
		Envelope:   map[string]any{"type": "object"},
	}

	if err := validateResponse(schema, json.RawMessage(`{"percentage":"60%","passed":"yes"}`)); err != nil {
		t.Fatalf("expected envelope to accept a loosely typed reply, got: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`["passed", true]`)); err == nil {
		t.Fatal("expected envelope to reject a non-object")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"passed":true}`, `{"passed":true}`},
		{"  {\"passed\":true}\n", `{"passed":true}`},
		{"```json\n{\"passed\":true}\n```", `{"passed":true}`},
		{"```\n{\"passed\":true}\n```", `{"passed":true}`},
		{"```json{\"passed\":true}```", `{"passed":true}`},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
