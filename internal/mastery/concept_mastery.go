package mastery

import (
	"strings"
	"time"
	"unicode"

	"github.com/abhisek/wordsmith/internal/store"
)

// ConceptMastery holds the counters for one pupil and concept.
type ConceptMastery struct {
	PupilID string `json:"pupil_id"`
	Concept string `json:"concept"`
	Uses    int    `json:"uses"`
	Correct int    `json:"correct"`

	// Recent holds the latest outcomes, oldest first.
	Recent    []bool    `json:"recent"`
	Trend     Trend     `json:"trend"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Accuracy returns the lifetime accuracy ratio.
func (cm *ConceptMastery) Accuracy() float64 {
	if cm.Uses == 0 {
		return 0.0
	}
	return float64(cm.Correct) / float64(cm.Uses)
}

// RecentAccuracy returns the accuracy over the rolling window.
func (cm *ConceptMastery) RecentAccuracy() float64 {
	if len(cm.Recent) == 0 {
		return 0.0
	}
	n := 0
	for _, ok := range cm.Recent {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(cm.Recent))
}

// Classify derives the trend from the counters.
func Classify(cm *ConceptMastery) Trend {
	if cm.Uses < MinUses {
		return TrendNew
	}
	recent, lifetime := cm.RecentAccuracy(), cm.Accuracy()
	switch {
	case recent >= SecureAccuracy:
		return TrendSecure
	case recent-lifetime >= TrendDelta:
		return TrendImproving
	case lifetime-recent >= TrendDelta:
		return TrendDeclining
	default:
		return TrendDeveloping
	}
}

func fromRecord(r store.ConceptMasteryRecord) ConceptMastery {
	cm := ConceptMastery{
		PupilID:   r.PupilID,
		Concept:   r.Concept,
		Uses:      r.Uses,
		Correct:   r.Correct,
		Recent:    make([]bool, 0, len(r.Recent)),
		UpdatedAt: r.UpdatedAt,
	}
	for _, c := range r.Recent {
		cm.Recent = append(cm.Recent, c == '1')
	}
	cm.Trend = Classify(&cm)
	return cm
}

// Observe merges outcomes into cm the way the store does, keeping the last
// window outcomes.
func Observe(cm ConceptMastery, outcomes []bool, window int) ConceptMastery {
	out := cm
	out.Recent = append(append([]bool{}, cm.Recent...), outcomes...)
	if window > 0 && len(out.Recent) > window {
		out.Recent = out.Recent[len(out.Recent)-window:]
	}
	for _, ok := range outcomes {
		out.Uses++
		if ok {
			out.Correct++
		}
	}
	out.Trend = Classify(&out)
	return out
}

// Observations derives one observation per target concept of a level. A
// concept counts as incorrect when an error pattern or an improvement
// area mentions it.
func Observations(targetConcepts, errorPatterns, improvements []string) []store.ConceptObservation {
	obs := make([]store.ConceptObservation, 0, len(targetConcepts))
	seen := make(map[string]bool, len(targetConcepts))
	for _, concept := range targetConcepts {
		concept = strings.ToLower(strings.TrimSpace(concept))
		if concept == "" || seen[concept] {
			continue
		}
		seen[concept] = true
		obs = append(obs, store.ConceptObservation{
			Concept: concept,
			Correct: !mentions(errorPatterns, concept) && !mentions(improvements, concept),
		})
	}
	return obs
}

// mentions matches concept as a whole word, so "missing-adverb" names
// adverb but not verb.
func mentions(texts []string, concept string) bool {
	for _, t := range texts {
		words := strings.FieldsFunc(strings.ToLower(t), func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		for _, w := range words {
			if w == concept || w == concept+"s" {
				return true
			}
		}
	}
	return false
}
