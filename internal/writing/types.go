package writing

import (
	"encoding/json"
	"time"

	"github.com/abhisek/wordsmith/internal/assessment"
	"github.com/abhisek/wordsmith/internal/store"
)

// MaxTextRunes bounds a submission's length.
const MaxTextRunes = 20000

// CurriculumSubmission is a pupil's writing for one level. AttemptID is
// required; resubmitting the same AttemptID is safe.
type CurriculumSubmission struct {
	AttemptID    string `json:"attempt_id"`
	PupilID      string `json:"pupil_id"`
	LevelID      string `json:"level_id"`
	AssignmentID string `json:"assignment_id"`
	Text         string `json:"text"`
}

// DemoSubmission is writing assessed without curriculum context. Every
// field except Text is optional.
type DemoSubmission struct {
	Text               string          `json:"text"`
	LevelNumber        int             `json:"level_number"`
	ActivityName       string          `json:"activity_name"`
	PromptTitle        string          `json:"prompt_title"`
	PromptInstructions string          `json:"prompt_instructions"`
	Rubric             json.RawMessage `json:"rubric"`
}

// DraftInput saves unfinished writing.
type DraftInput struct {
	AttemptID    string `json:"attempt_id"`
	PupilID      string `json:"pupil_id"`
	LevelID      string `json:"level_id"`
	AssignmentID string `json:"assignment_id"`
	Text         string `json:"text"`
}

// Attempt is the caller-facing view of a stored attempt.
type Attempt struct {
	ID              string              `json:"id"`
	PupilID         string              `json:"pupil_id"`
	AssignmentID    string              `json:"assignment_id,omitempty"`
	LevelID         string              `json:"level_id"`
	Text            string              `json:"text"`
	WordCount       int                 `json:"word_count"`
	Status          store.AttemptStatus `json:"status"`
	Score           float64             `json:"score"`
	Total           float64             `json:"total"`
	Percentage      float64             `json:"percentage"`
	Passed          bool                `json:"passed"`
	PerformanceBand string              `json:"performance_band,omitempty"`
	ErrorPatterns   []string            `json:"error_patterns"`
	NextLevelID     string              `json:"next_level_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func attemptView(r *store.AttemptRecord) Attempt {
	patterns := r.ErrorPatterns
	if patterns == nil {
		patterns = []string{}
	}
	return Attempt{
		ID:              r.ID,
		PupilID:         r.PupilID,
		AssignmentID:    r.AssignmentID,
		LevelID:         r.LevelID,
		Text:            r.Text,
		WordCount:       r.WordCount,
		Status:          r.Status,
		Score:           r.Score,
		Total:           r.Total,
		Percentage:      r.Percentage,
		Passed:          r.Passed,
		PerformanceBand: r.PerformanceBand,
		ErrorPatterns:   patterns,
		NextLevelID:     r.NextLevelID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// CurriculumResult is the outcome of a curriculum submission.
type CurriculumResult struct {
	Assessment *assessment.ValidatedAssessment `json:"assessment"`
	Attempt    Attempt                         `json:"attempt"`

	// ProgressionPending is set when the attempt passed but the progress
	// write failed. The reconciler applies it later.
	ProgressionPending bool `json:"progression_pending"`
}

// ReconcileReport counts what one reconciler pass did.
type ReconcileReport struct {
	Progress  int
	Mastery   int
	NextLevel int
	Failed    int
}

// Level is the caller-facing view of a catalogue level.
type Level struct {
	ID                 string          `json:"id"`
	Number             int             `json:"number"`
	Tier               int             `json:"tier"`
	ActivityName       string          `json:"activity_name"`
	PromptTitle        string          `json:"prompt_title"`
	PromptInstructions string          `json:"prompt_instructions"`
	TargetConcepts     []string        `json:"target_concepts"`
	Rubric             json.RawMessage `json:"rubric"`
	PassingThreshold   float64         `json:"passing_threshold"`
	TierFinale         bool            `json:"tier_finale"`
	ProgrammeFinale    bool            `json:"programme_finale"`
	Milestone          bool            `json:"milestone"`
}

func levelView(r *store.LevelRecord) Level {
	return Level{
		ID:                 r.ID,
		Number:             r.Number,
		Tier:               r.Tier,
		ActivityName:       r.ActivityName,
		PromptTitle:        r.PromptTitle,
		PromptInstructions: r.PromptInstructions,
		TargetConcepts:     r.TargetConcepts,
		Rubric:             r.Rubric,
		PassingThreshold:   r.PassingThreshold,
		TierFinale:         r.TierFinale,
		ProgrammeFinale:    r.ProgrammeFinale,
		Milestone:          r.Milestone,
	}
}
