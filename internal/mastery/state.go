package mastery

// Trend classifies how a pupil is doing with one grammatical concept.
type Trend string

const (
	TrendNew        Trend = "new"
	TrendDeveloping Trend = "developing"
	TrendImproving  Trend = "improving"
	TrendDeclining  Trend = "declining"
	TrendSecure     Trend = "secure"
)

const (
	// DefaultWindow is how many recent outcomes are kept per concept.
	DefaultWindow = 8

	// MinUses is the number of uses before a concept is classified.
	MinUses = 3

	// SecureAccuracy is the recent accuracy that counts as secure.
	SecureAccuracy = 0.8

	// TrendDelta is the gap between recent and lifetime accuracy that
	// counts as improving or declining.
	TrendDelta = 0.15
)

// TrendChange records a concept moving from one trend to another.
type TrendChange struct {
	Concept string
	From    Trend
	To      Trend
}
