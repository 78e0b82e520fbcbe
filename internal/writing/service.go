// Package writing runs the submit-for-assessment pipeline: validate the
// submission, record the attempt, ask the oracle, store the normalized
// assessment and, for a pass, move the pupil along the curriculum.
package writing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/assessment"
	"github.com/abhisek/wordsmith/internal/formula"
	"github.com/abhisek/wordsmith/internal/lexicon"
	"github.com/abhisek/wordsmith/internal/llm"
	"github.com/abhisek/wordsmith/internal/mastery"
	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
	"github.com/abhisek/wordsmith/internal/telemetry"
)

// Deps are the collaborators of a Service. Metrics, Logger and Formulas
// are optional.
type Deps struct {
	Levels      store.LevelRepo
	Attempts    store.AttemptRepo
	Oracle      *assessment.Oracle
	Progression *progression.Service
	Mastery     *mastery.Service
	Formulas    *formula.Generator
	Metrics     *telemetry.Metrics
	Logger      *zap.Logger
}

// Service holds no per-pupil state; every call is request scoped.
type Service struct {
	levels      store.LevelRepo
	attempts    store.AttemptRepo
	oracle      *assessment.Oracle
	progression *progression.Service
	mastery     *mastery.Service
	formulas    *formula.Generator
	metrics     *telemetry.Metrics
	logger      *zap.Logger
	tracer      trace.Tracer
	newID       func() string
}

// NewService creates a writing service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Formulas == nil {
		d.Formulas = formula.New(nil)
	}
	return &Service{
		levels:      d.Levels,
		attempts:    d.Attempts,
		oracle:      d.Oracle,
		progression: d.Progression,
		mastery:     d.Mastery,
		formulas:    d.Formulas,
		metrics:     d.Metrics,
		logger:      d.Logger,
		tracer:      telemetry.Tracer(),
		newID:       uuid.NewString,
	}
}

// SubmitCurriculum assesses a pupil's writing against a level and, when it
// passes, commits the pupil's new curriculum position. An attempt that was
// already assessed returns its stored result and only re-applies whatever
// updates are still pending. A cancelled call leaves the attempt
// submitted.
func (s *Service) SubmitCurriculum(ctx context.Context, sub CurriculumSubmission) (res *CurriculumResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "writing.SubmitCurriculum")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := validateSubmission(&sub); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("attempt.id", sub.AttemptID),
		attribute.String("pupil.id", sub.PupilID),
		attribute.String("level.id", sub.LevelID),
	)

	level, err := s.level(ctx, sub.LevelID)
	if err != nil {
		return nil, err
	}

	existing, err := s.ownedAttempt(ctx, sub.AttemptID, sub.PupilID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == store.AttemptAssessed {
		return s.replay(ctx, existing)
	}

	rec, err := s.attempts.MarkSubmitted(ctx, store.AttemptRecord{
		ID:           sub.AttemptID,
		PupilID:      sub.PupilID,
		AssignmentID: sub.AssignmentID,
		LevelID:      level.ID,
		Text:         sub.Text,
		WordCount:    assessment.WordCount(sub.Text),
	})
	if err != nil {
		return nil, fmt.Errorf("save submitted attempt: %w", err)
	}
	if rec.Status == store.AttemptAssessed {
		return s.replay(ctx, rec)
	}

	a, err := s.oracle.AssessCurriculum(llm.WithAttempt(ctx, rec.ID), assessment.CurriculumRequest{
		LevelNumber:        level.Number,
		ActivityName:       level.ActivityName,
		PromptTitle:        level.PromptTitle,
		PromptInstructions: level.PromptInstructions,
		TargetConcepts:     level.TargetConcepts,
		Rubric:             level.Rubric,
		PassingThreshold:   level.PassingThreshold,
		Text:               sub.Text,
	})
	if err != nil {
		s.metrics.ObserveAssessment(string(assessment.ModeCurriculum), outcomeOf(err), time.Since(start))
		s.logger.Warn("assessment failed",
			zap.String("attempt_id", rec.ID),
			zap.String("pupil_id", rec.PupilID),
			zap.String("level_id", level.ID),
			zap.Error(err))
		return nil, err
	}

	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode assessment: %w", err)
	}
	rec, err = s.attempts.RecordAssessment(ctx, rec.ID, store.AssessmentResult{
		Score:           a.Score,
		Total:           a.Total,
		Percentage:      a.Percentage,
		Passed:          a.Passed,
		PerformanceBand: a.PerformanceBand,
		ErrorPatterns:   a.ErrorPatterns,
		Assessment:      body,
	})
	if err != nil {
		s.metrics.ObserveAssessment(string(assessment.ModeCurriculum), telemetry.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("store assessment for attempt %s: %w", sub.AttemptID, err)
	}
	// A concurrent submission may have stored its result first; that one
	// stands.
	if stored, err := decodeAssessment(rec); err == nil {
		a = stored
	}

	outcome := telemetry.OutcomeFailed
	if a.Passed {
		outcome = telemetry.OutcomePassed
	}
	s.metrics.ObserveAssessment(string(assessment.ModeCurriculum), outcome, time.Since(start))
	span.SetAttributes(
		attribute.Bool("assessment.passed", a.Passed),
		attribute.Float64("assessment.percentage", a.Percentage),
	)
	s.logger.Info("attempt assessed",
		zap.String("attempt_id", rec.ID),
		zap.String("pupil_id", rec.PupilID),
		zap.String("level_id", level.ID),
		zap.Float64("percentage", a.Percentage),
		zap.Bool("passed", a.Passed),
		zap.String("band", a.PerformanceBand))

	return s.finish(ctx, rec, level, a), nil
}

// replay answers a resubmitted, already assessed attempt from the store.
func (s *Service) replay(ctx context.Context, rec *store.AttemptRecord) (*CurriculumResult, error) {
	a, err := decodeAssessment(rec)
	if err != nil {
		return nil, err
	}
	level, err := s.level(ctx, rec.LevelID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("attempt already assessed", zap.String("attempt_id", rec.ID))
	return s.finish(ctx, rec, level, a), nil
}

// finish applies progression and mastery for an assessed attempt. Neither
// failure discards the stored assessment: progression failures surface as
// ProgressionPending, mastery failures are left to the reconciler.
func (s *Service) finish(ctx context.Context, rec *store.AttemptRecord, level *store.LevelRecord, a *assessment.ValidatedAssessment) *CurriculumResult {
	res := &CurriculumResult{Assessment: a}

	if a.Passed && rec.ProgressAppliedAt == nil {
		out, err := s.progression.Record(ctx, progression.PassedAttempt{
			AttemptID: rec.ID,
			PupilID:   rec.PupilID,
			Level:     level,
			Band:      a.PerformanceBand,
		})
		if err != nil {
			res.ProgressionPending = true
			s.metrics.IncProgressionPending()
			s.logger.Error("progression pending",
				zap.String("attempt_id", rec.ID),
				zap.String("pupil_id", rec.PupilID),
				zap.Error(err))
		} else if out.Applied {
			rec.NextLevelID = out.Transition.NextLevelID
		}
	}

	if s.mastery != nil && rec.MasteryAppliedAt == nil {
		obs := mastery.Observations(level.TargetConcepts, a.ErrorPatterns, a.DetailedAnalysis.AreasForImprovement)
		if _, err := s.mastery.Record(ctx, rec.ID, rec.PupilID, obs); err != nil {
			s.logger.Warn("mastery update deferred",
				zap.String("attempt_id", rec.ID),
				zap.Error(err))
		}
	}

	res.Attempt = attemptView(rec)
	return res
}

// SubmitDemo assesses writing without storing anything.
func (s *Service) SubmitDemo(ctx context.Context, sub DemoSubmission) (a *assessment.ValidatedAssessment, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "writing.SubmitDemo")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := validateText(sub.Text); err != nil {
		return nil, err
	}
	if sub.LevelNumber < 0 || sub.LevelNumber > progression.MaxLevel {
		return nil, invalid("level_number", "must be between 0 and %d", progression.MaxLevel)
	}
	if len(sub.Rubric) > 0 && !json.Valid(sub.Rubric) {
		return nil, invalid("rubric", "must be valid JSON")
	}

	a, err = s.oracle.AssessDemo(ctx, assessment.DemoRequest{
		LevelNumber:        sub.LevelNumber,
		ActivityName:       sub.ActivityName,
		PromptTitle:        sub.PromptTitle,
		PromptInstructions: sub.PromptInstructions,
		Rubric:             sub.Rubric,
		Text:               sub.Text,
	})
	if err != nil {
		s.metrics.ObserveAssessment(string(assessment.ModeDemo), outcomeOf(err), time.Since(start))
		s.logger.Warn("demo assessment failed", zap.Error(err))
		return nil, err
	}

	outcome := telemetry.OutcomeFailed
	if a.Passed {
		outcome = telemetry.OutcomePassed
	}
	s.metrics.ObserveAssessment(string(assessment.ModeDemo), outcome, time.Since(start))
	return a, nil
}

// SaveDraft creates or updates a draft attempt. Returns
// store.ErrAttemptFinal once the attempt has been submitted.
func (s *Service) SaveDraft(ctx context.Context, in DraftInput) (*Attempt, error) {
	in.PupilID = strings.TrimSpace(in.PupilID)
	in.LevelID = strings.TrimSpace(in.LevelID)
	in.AttemptID = strings.TrimSpace(in.AttemptID)
	switch {
	case in.PupilID == "":
		return nil, invalid("pupil_id", "is required")
	case in.LevelID == "":
		return nil, invalid("level_id", "is required")
	case utf8.RuneCountInString(in.Text) > MaxTextRunes:
		return nil, invalid("text", "must be at most %d characters", MaxTextRunes)
	}

	level, err := s.level(ctx, in.LevelID)
	if err != nil {
		return nil, err
	}
	if in.AttemptID == "" {
		in.AttemptID = s.newID()
	}
	if _, err := s.ownedAttempt(ctx, in.AttemptID, in.PupilID); err != nil {
		return nil, err
	}

	rec, err := s.attempts.SaveDraft(ctx, store.AttemptRecord{
		ID:           in.AttemptID,
		PupilID:      in.PupilID,
		AssignmentID: in.AssignmentID,
		LevelID:      level.ID,
		Text:         in.Text,
		WordCount:    assessment.WordCount(in.Text),
	})
	if err != nil {
		return nil, fmt.Errorf("save draft %s: %w", in.AttemptID, err)
	}
	v := attemptView(rec)
	return &v, nil
}

// Attempts lists a pupil's attempts, newest first.
func (s *Service) Attempts(ctx context.Context, pupilID string, limit int) ([]Attempt, error) {
	if strings.TrimSpace(pupilID) == "" {
		return nil, invalid("pupil_id", "is required")
	}
	recs, err := s.attempts.ListAttempts(ctx, pupilID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Attempt, 0, len(recs))
	for i := range recs {
		out = append(out, attemptView(&recs[i]))
	}
	return out, nil
}

// Progress returns the pupil's curriculum position, or the initial
// position for a pupil who has not passed anything.
func (s *Service) Progress(ctx context.Context, pupilID string) (*progression.Progress, error) {
	if strings.TrimSpace(pupilID) == "" {
		return nil, invalid("pupil_id", "is required")
	}
	return s.progression.Get(ctx, pupilID)
}

// Mastery returns the pupil's per-concept mastery.
func (s *Service) Mastery(ctx context.Context, pupilID string) ([]mastery.ConceptMastery, error) {
	if strings.TrimSpace(pupilID) == "" {
		return nil, invalid("pupil_id", "is required")
	}
	return s.mastery.List(ctx, pupilID)
}

// Levels returns the published catalogue in level order.
func (s *Service) Levels(ctx context.Context) ([]Level, error) {
	recs, err := s.levels.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Level, 0, len(recs))
	for i := range recs {
		out = append(out, levelView(&recs[i]))
	}
	return out, nil
}

// Level returns one catalogue level.
func (s *Service) Level(ctx context.Context, id string) (*Level, error) {
	rec, err := s.level(ctx, id)
	if err != nil {
		return nil, err
	}
	v := levelView(rec)
	return &v, nil
}

// GenerateFormulas builds the scaffolded formulas for a lesson. An empty
// category lets the lexicon decide.
func (s *Service) GenerateFormulas(lesson int, subject, category string) ([]formula.Formula, error) {
	var cat lexicon.Category
	if strings.TrimSpace(category) != "" {
		c, ok := lexicon.ParseCategory(category)
		if !ok {
			return nil, invalid("category", "must be one of person, animal, place, thing")
		}
		cat = c
	}

	fs, err := s.formulas.Generate(lesson, subject, cat)
	if errors.Is(err, formula.ErrEmptySubject) {
		return nil, invalid("subject", "is required")
	}
	return fs, err
}

func (s *Service) level(ctx context.Context, id string) (*store.LevelRecord, error) {
	l, err := s.levels.GetLevel(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLevel, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", id, err)
	}
	return l, nil
}

// ownedAttempt returns the stored attempt, nil when there is none, or a
// ValidationError when it belongs to another pupil.
func (s *Service) ownedAttempt(ctx context.Context, id, pupilID string) (*store.AttemptRecord, error) {
	rec, err := s.attempts.GetAttempt(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt %s: %w", id, err)
	}
	if rec.PupilID != pupilID {
		return nil, invalid("attempt_id", "belongs to another pupil")
	}
	return rec, nil
}

func validateSubmission(sub *CurriculumSubmission) error {
	sub.AttemptID = strings.TrimSpace(sub.AttemptID)
	sub.PupilID = strings.TrimSpace(sub.PupilID)
	sub.LevelID = strings.TrimSpace(sub.LevelID)
	sub.AssignmentID = strings.TrimSpace(sub.AssignmentID)

	if sub.AttemptID == "" {
		return invalid("attempt_id", "is required")
	}
	if sub.PupilID == "" {
		return invalid("pupil_id", "is required")
	}
	if sub.LevelID == "" {
		return invalid("level_id", "is required")
	}
	return validateText(sub.Text)
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("text", "is required")
	}
	if utf8.RuneCountInString(text) > MaxTextRunes {
		return invalid("text", "must be at most %d characters", MaxTextRunes)
	}
	return nil
}

func decodeAssessment(rec *store.AttemptRecord) (*assessment.ValidatedAssessment, error) {
	if len(rec.Assessment) == 0 {
		return nil, fmt.Errorf("attempt %s has no stored assessment", rec.ID)
	}
	var a assessment.ValidatedAssessment
	if err := json.Unmarshal(rec.Assessment, &a); err != nil {
		return nil, fmt.Errorf("decode stored assessment for %s: %w", rec.ID, err)
	}
	return &a, nil
}

func outcomeOf(err error) string {
	var pe *assessment.ParseError
	var ue *assessment.OracleUnavailableError
	switch {
	case errors.As(err, &pe):
		return telemetry.OutcomeParseError
	case errors.As(err, &ue):
		return telemetry.OutcomeUnavailable
	default:
		return telemetry.OutcomeError
	}
}
