package assessment

// Mode selects how an oracle reply is interpreted.
type Mode string

const (
	// ModeCurriculum is a rubric-bound assessment that is persisted and can
	// advance the pupil.
	ModeCurriculum Mode = "curriculum"

	// ModeDemo is a context-free assessment that is never stored.
	ModeDemo Mode = "demo"
)

// ParseMode converts s to a Mode, reporting whether it is known.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeCurriculum, ModeDemo:
		return Mode(s), true
	}
	return "", false
}

// Performance bands, weakest first.
const (
	BandEmerging   = "emerging"
	BandDeveloping = "developing"
	BandSecure     = "secure"
	BandMastery    = "mastery"
)

// Bands lists the accepted performance bands.
var Bands = []string{BandEmerging, BandDeveloping, BandSecure, BandMastery}

// ValidatedAssessment is an oracle reply after every field has been
// checked and coerced. No string field is empty and no list is nil.
type ValidatedAssessment struct {
	Score              float64          `json:"score"`
	Total              float64          `json:"total"`
	Percentage         float64          `json:"percentage"`
	Passed             bool             `json:"passed"`
	PerformanceBand    string           `json:"performance_band"`
	Badge              string           `json:"badge"`
	Feedback           Feedback         `json:"feedback"`
	DetailedAnalysis   DetailedAnalysis `json:"detailed_analysis"`
	ErrorPatterns      []string         `json:"error_patterns"`
	InterventionNeeded bool             `json:"intervention_needed"`
	TeacherNotes       string           `json:"teacher_notes"`
}

// Feedback is the pupil-facing part of an assessment.
type Feedback struct {
	MainMessage    string `json:"main_message"`
	SpecificPraise string `json:"specific_praise"`
	GrowthArea     string `json:"growth_area"`
	Encouragement  string `json:"encouragement"`
}

// DetailedAnalysis is the teacher-facing breakdown.
type DetailedAnalysis struct {
	CorrectElements     []string `json:"correct_elements"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	PrimaryStrength     string   `json:"primary_strength"`
	PrimaryGrowthArea   string   `json:"primary_growth_area"`
}

// EnforceThreshold withdraws a pass whose percentage is below threshold.
// It never turns a fail into a pass.
func (a *ValidatedAssessment) EnforceThreshold(threshold float64) {
	if a.Percentage < threshold {
		a.Passed = false
	}
}

// Placeholders used when the oracle omits or garbles a field.
const (
	placeholderBadge          = "Keep Writing"
	placeholderMainMessage    = "Thank you for your writing."
	placeholderPraise         = "You completed the writing task."
	placeholderGrowthArea     = "Keep practising this lesson's sentence structure."
	placeholderEncouragement  = "Keep going, every sentence makes you a stronger writer!"
	placeholderCorrectElement = "You attempted the task."
	placeholderImprovement    = "Review this lesson's target concepts."
	placeholderStrength       = "Effort"
	placeholderGrowth         = "Sentence structure"
	placeholderTeacherNotes   = "No additional notes."
)

const defaultTotal = 10
