package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/wordsmith/internal/llm"
)

func curriculumRequest() CurriculumRequest {
	return CurriculumRequest{
		LevelNumber:        3,
		ActivityName:       "Animal Actions",
		PromptTitle:        "What does your pet do?",
		PromptInstructions: "Write one sentence with a subject and a verb.",
		TargetConcepts:     []string{"subject", "verb"},
		Rubric:             json.RawMessage(`{"criteria":["capital letter","full stop"]}`),
		PassingThreshold:   60,
		Text:               "The dog barks.",
	}
}

func TestOracle_AssessCurriculum(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(fullReply)})
	o := NewOracle(mock, DefaultOracleConfig())

	a, err := o.AssessCurriculum(context.Background(), curriculumRequest())
	if err != nil {
		t.Fatalf("AssessCurriculum failed: %v", err)
	}
	if !a.Passed || a.Percentage != 80 {
		t.Errorf("unexpected result: %+v", a)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.Schema != AssessmentSchema {
		t.Error("expected the assessment schema on the request")
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"Animal Actions", "subject, verb", "Pass mark: 60%", `"capital letter"`, "The dog barks.", "(3 words)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestOracle_CurriculumAppliesPassMark(t *testing.T) {
	reply := `{"score":5,"total":10,"percentage":50,"passed":true}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(reply)})
	o := NewOracle(mock, DefaultOracleConfig())

	a, err := o.AssessCurriculum(context.Background(), curriculumRequest())
	if err != nil {
		t.Fatalf("AssessCurriculum failed: %v", err)
	}
	if a.Passed {
		t.Error("a 50% reply must not pass a 60% level")
	}
}

func TestOracle_AssessDemo(t *testing.T) {
	reply := `{"score":6,"total":10,"percentage":60,"passed":true,"detailed_analysis":{"areas_for_improvement":"Add an adjective"}}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(reply)})
	o := NewOracle(mock, DefaultOracleConfig())

	a, err := o.AssessDemo(context.Background(), DemoRequest{
		LevelNumber:  1,
		ActivityName: "Free write",
		Text:         "my cat sleeps",
	})
	if err != nil {
		t.Fatalf("AssessDemo failed: %v", err)
	}
	if got := a.DetailedAnalysis.AreasForImprovement; len(got) != 1 || got[0] != "Add an adjective" {
		t.Errorf("areas = %v", got)
	}
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "Rubric:\nNone") {
		t.Errorf("expected empty rubric marker in prompt:\n%s", mock.Calls[0].Messages[0].Content)
	}
}

func TestOracle_InvalidReplyIsParseError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`["not","an","object"]`)})
	o := NewOracle(mock, DefaultOracleConfig())

	a, err := o.AssessCurriculum(context.Background(), curriculumRequest())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if a != nil {
		t.Errorf("expected no assessment, got %+v", a)
	}
	if string(pe.Raw) != `["not","an","object"]` {
		t.Errorf("raw = %s", pe.Raw)
	}
}

func TestOracle_TruncatedReplyIsParseError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{Content: json.RawMessage(`{"score":`)}})
	o := NewOracle(mock, DefaultOracleConfig())

	_, err := o.AssessDemo(context.Background(), DemoRequest{Text: "x"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
}

func TestOracle_UnavailableAfterRetries(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("502")}},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("502")}},
	)
	p := llm.WithRetry(mock, llm.RetryConfig{MaxAttempts: 2, Multiplier: 1})
	o := NewOracle(p, DefaultOracleConfig())

	_, err := o.AssessCurriculum(context.Background(), curriculumRequest())
	var ue *OracleUnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *OracleUnavailableError, got %T (%v)", err, err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected exactly one retry, got %d calls", mock.CallCount())
	}
}

func TestOracle_ParseFailureNotRetried(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`"nope"`)},
		llm.MockResponse{Content: json.RawMessage(fullReply)},
	)
	p := llm.WithRetry(mock, llm.DefaultConfig().Retry)
	o := NewOracle(p, DefaultOracleConfig())

	_, err := o.AssessCurriculum(context.Background(), curriculumRequest())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected no retry, got %d calls", mock.CallCount())
	}
}

func TestOracle_CancelledCallerIsUnavailable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(fullReply)})
	o := NewOracle(mock, DefaultOracleConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.AssessCurriculum(ctx, curriculumRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestWordCount(t *testing.T) {
	tests := map[string]int{
		"":                      0,
		"   ":                   0,
		"Dog barks":             2,
		" The dog\nbarks  loud": 4,
	}
	for in, want := range tests {
		if got := WordCount(in); got != want {
			t.Errorf("WordCount(%q) = %d, want %d", in, got, want)
		}
	}
}
