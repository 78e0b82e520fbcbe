package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/wordsmith/internal/llm"
)

// Oracle call purposes, as recorded in the event log.
const (
	PurposeCurriculum = "writing-assessment"
	PurposeDemo       = "writing-demo"
)

// OracleConfig holds generation settings for assessment calls.
type OracleConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultOracleConfig returns the settings used by serve.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		MaxTokens:   1536,
		Temperature: 0.2,
	}
}

// Oracle asks the scoring model to assess writing and normalizes the reply.
// Timeouts and retries belong to the provider chain.
type Oracle struct {
	provider llm.Provider
	cfg      OracleConfig
}

// NewOracle creates an Oracle backed by provider.
func NewOracle(provider llm.Provider, cfg OracleConfig) *Oracle {
	return &Oracle{provider: provider, cfg: cfg}
}

// CurriculumRequest is a rubric-bound assessment of one attempt.
type CurriculumRequest struct {
	LevelNumber        int
	ActivityName       string
	PromptTitle        string
	PromptInstructions string
	TargetConcepts     []string
	Rubric             json.RawMessage
	PassingThreshold   float64
	Text               string
}

// DemoRequest is a context-free assessment that is never stored.
type DemoRequest struct {
	LevelNumber        int
	ActivityName       string
	PromptTitle        string
	PromptInstructions string
	Rubric             json.RawMessage
	Text               string
}

// AssessCurriculum scores writing against a level. The returned assessment
// has the level's pass mark applied.
func (o *Oracle) AssessCurriculum(ctx context.Context, req CurriculumRequest) (*ValidatedAssessment, error) {
	in := promptInput{
		LevelNumber:        req.LevelNumber,
		ActivityName:       req.ActivityName,
		PromptTitle:        req.PromptTitle,
		PromptInstructions: req.PromptInstructions,
		TargetConcepts:     req.TargetConcepts,
		PassingThreshold:   req.PassingThreshold,
		Rubric:             formatRubric(req.Rubric),
		Text:               req.Text,
		WordCount:          WordCount(req.Text),
	}

	a, err := o.assess(llm.WithPurpose(ctx, PurposeCurriculum), curriculumSystemPrompt, in, ModeCurriculum)
	if err != nil {
		return nil, err
	}
	a.EnforceThreshold(req.PassingThreshold)
	return a, nil
}

// AssessDemo scores writing without curriculum context.
func (o *Oracle) AssessDemo(ctx context.Context, req DemoRequest) (*ValidatedAssessment, error) {
	in := promptInput{
		LevelNumber:        req.LevelNumber,
		ActivityName:       req.ActivityName,
		PromptTitle:        req.PromptTitle,
		PromptInstructions: req.PromptInstructions,
		Rubric:             formatRubric(req.Rubric),
		Text:               req.Text,
		WordCount:          WordCount(req.Text),
	}
	return o.assess(llm.WithPurpose(ctx, PurposeDemo), demoSystemPrompt, in, ModeDemo)
}

func (o *Oracle) assess(ctx context.Context, system string, in promptInput, mode Mode) (*ValidatedAssessment, error) {
	userMsg, err := buildUserMessage(in)
	if err != nil {
		return nil, fmt.Errorf("build assessment prompt: %w", err)
	}

	resp, err := o.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      AssessmentSchema,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return nil, classify(err)
	}

	return Normalize(resp.Content, mode)
}

// classify maps provider failures onto the assessment error taxonomy.
func classify(err error) error {
	var inv *llm.ErrInvalidResponse
	if errors.As(err, &inv) {
		return &ParseError{Raw: inv.Content, Err: err}
	}
	var maxTok *llm.ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return &ParseError{Raw: maxTok.Content, Err: err}
	}
	return &OracleUnavailableError{Err: err}
}
