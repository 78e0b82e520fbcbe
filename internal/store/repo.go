package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	Purpose   string    // exact purpose match, empty for all
	AttemptID string    // calls made while assessing one attempt
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
}

// LevelRecord is one published curriculum level.
type LevelRecord struct {
	ID                 string
	Number             int
	Tier               int
	ActivityName       string
	PromptTitle        string
	PromptInstructions string
	TargetConcepts     []string
	Rubric             json.RawMessage
	PassingThreshold   float64
	TierFinale         bool
	ProgrammeFinale    bool
	Milestone          bool
}

// LevelRepo reads and publishes the level catalogue.
type LevelRepo interface {
	// PublishLevels upserts every level and records the catalogue version
	// in one transaction.
	PublishLevels(ctx context.Context, version string, levels []LevelRecord) error

	// CatalogueVersion returns the published version, or "" when the
	// catalogue has never been published.
	CatalogueVersion(ctx context.Context) (string, error)

	GetLevel(ctx context.Context, id string) (*LevelRecord, error)
	GetLevelByNumber(ctx context.Context, number int) (*LevelRecord, error)
	ListLevels(ctx context.Context) ([]LevelRecord, error)
}

// AttemptStatus is the lifecycle position of a writing attempt.
type AttemptStatus string

const (
	AttemptDraft     AttemptStatus = "draft"
	AttemptSubmitted AttemptStatus = "submitted"
	AttemptAssessed  AttemptStatus = "assessed"
)

// AttemptRecord is one pupil submission against one level.
type AttemptRecord struct {
	ID           string
	PupilID      string
	AssignmentID string
	LevelID      string
	Text         string
	WordCount    int
	Status       AttemptStatus

	Score           float64
	Total           float64
	Percentage      float64
	Passed          bool
	PerformanceBand string
	ErrorPatterns   []string

	// Assessment is the full validated assessment as JSON, nil until
	// assessed.
	Assessment json.RawMessage

	// NextLevelID is the level unlocked by this attempt, if any.
	NextLevelID string

	ProgressAppliedAt *time.Time
	MasteryAppliedAt  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AssessmentResult is what RecordAssessment writes onto an attempt.
type AssessmentResult struct {
	Score           float64
	Total           float64
	Percentage      float64
	Passed          bool
	PerformanceBand string
	ErrorPatterns   []string
	Assessment      json.RawMessage
}

// ErrAttemptFinal is returned when a draft save targets an attempt that
// has already been submitted.
var ErrAttemptFinal = errors.New("attempt already submitted")

// AttemptRepo persists writing attempts. Attempts are never deleted.
type AttemptRepo interface {
	// SaveDraft inserts a draft or updates the text of an existing draft.
	// Returns ErrAttemptFinal when the attempt is past the draft stage.
	SaveDraft(ctx context.Context, a AttemptRecord) (*AttemptRecord, error)

	// MarkSubmitted inserts the attempt as submitted, or moves a draft or
	// previously submitted attempt to submitted with the new text. An
	// assessed attempt is returned unchanged.
	MarkSubmitted(ctx context.Context, a AttemptRecord) (*AttemptRecord, error)

	// RecordAssessment stores the result and moves the attempt to assessed.
	RecordAssessment(ctx context.Context, id string, res AssessmentResult) (*AttemptRecord, error)

	GetAttempt(ctx context.Context, id string) (*AttemptRecord, error)
	ListAttempts(ctx context.Context, pupilID string, limit int) ([]AttemptRecord, error)

	// PendingProgress lists assessed, passed attempts whose progression
	// has not been applied yet, oldest first.
	PendingProgress(ctx context.Context, limit int) ([]AttemptRecord, error)

	// PendingMastery lists assessed attempts whose mastery observations
	// have not been recorded yet, oldest first.
	PendingMastery(ctx context.Context, limit int) ([]AttemptRecord, error)

	// MissingNextLevel lists applied, passed attempts below the final
	// level whose unlocked level id was never resolved, oldest first.
	MissingNextLevel(ctx context.Context, limit int) ([]AttemptRecord, error)
}

// Performance band names. Each has a counter on the progress row.
const (
	BandEmerging   = "emerging"
	BandDeveloping = "developing"
	BandSecure     = "secure"
	BandMastery    = "mastery"
)

// ProgressRecord is a pupil's authoritative curriculum position.
type ProgressRecord struct {
	PupilID              string
	CurrentLevel         int
	CurrentTier          int
	CurrentLevelID       string
	CompletedLevels      []string
	CompletedTiers       []int
	ProgrammeCompleted   bool
	ProgrammeCompletedAt *time.Time
	BandCounts           map[string]int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProgressDelta is one passed attempt's contribution to a progress row.
// It is merged, never assigned: levels and tiers are unioned, the current
// level only moves forward and completion is one-way.
type ProgressDelta struct {
	AttemptID      string
	PupilID        string
	LevelID        string
	CurrentLevel   int
	CurrentTier    int
	CurrentLevelID string

	// CompletedTier is the tier finished by this attempt, 0 for none.
	CompletedTier      int
	ProgrammeCompleted bool
	Band               string

	// NextLevelID is stored on the attempt as the unlocked level.
	NextLevelID string
	At          time.Time
}

// ProgressRepo applies and reads pupil progress.
type ProgressRepo interface {
	// ApplyProgress claims the attempt's progress guard and merges d into
	// the pupil's row in one transaction. It reports false, with no
	// change, when the attempt was already applied or does not exist.
	ApplyProgress(ctx context.Context, d ProgressDelta) (bool, error)

	// SetNextLevel fills in the unlocked level id on an applied attempt
	// and, when the pupil sits at that level with no id, on the progress
	// row. Ids that are already set are left alone. It reports whether the
	// attempt was patched.
	SetNextLevel(ctx context.Context, attemptID, pupilID string, nextLevel int, nextLevelID string) (bool, error)

	GetProgress(ctx context.Context, pupilID string) (*ProgressRecord, error)
}

// ConceptObservation is one use of a concept in an assessed attempt.
type ConceptObservation struct {
	Concept string
	Correct bool
}

// ConceptMasteryRecord holds the counters for one pupil and concept.
type ConceptMasteryRecord struct {
	PupilID string
	Concept string
	Uses    int
	Correct int

	// Recent holds the latest outcomes, oldest first, as '1' (correct)
	// and '0' (incorrect).
	Recent    string
	UpdatedAt time.Time
}

// MasteryRepo accumulates per-concept counters.
type MasteryRepo interface {
	// ApplyObservations claims the attempt's mastery guard and merges the
	// observations, keeping the last window outcomes. Reports false when
	// the attempt was already recorded or does not exist.
	ApplyObservations(ctx context.Context, attemptID, pupilID string, obs []ConceptObservation, window int, at time.Time) (bool, error)

	ListConceptMastery(ctx context.Context, pupilID string) ([]ConceptMasteryRecord, error)
}

// LLMRequestEventData captures a single oracle call.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	AttemptID    string // empty for demo assessments
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored oracle call.
type LLMEventRecord struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates calls by purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
	Failures     int
}

// EventRepo provides append and query access to oracle call events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns nil, nil when the id is unknown.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
