package lexicon

import (
	"fmt"
	"sort"
	"strings"
)

// Concept is a grammatical element a formula step can introduce.
type Concept string

const (
	ConceptSubject     Concept = "subject"
	ConceptVerb        Concept = "verb"
	ConceptDeterminer  Concept = "determiner"
	ConceptAdjective   Concept = "adjective"
	ConceptAdverb      Concept = "adverb"
	ConceptConjunction Concept = "conjunction"
	ConceptPronoun     Concept = "pronoun"
)

// Step is one formula step of a lesson template. Introduces lists the
// concepts the step adds to the structure of the previous step; an empty
// list repeats the previous structure.
type Step struct {
	Introduces []Concept
}

// IsRepeat reports whether the step re-tests the previous structure.
func (s Step) IsRepeat() bool {
	return len(s.Introduces) == 0
}

// Template is the fixed sequence of steps for one lesson.
type Template struct {
	Lesson int
	Steps  []Step
}

// UnsupportedLessonError is returned when no template exists for a lesson.
type UnsupportedLessonError struct {
	Lesson int
}

func (e *UnsupportedLessonError) Error() string {
	return fmt.Sprintf("lesson %d has no formula template", e.Lesson)
}

// Shorthands for the template table.
var (
	base   = Step{Introduces: []Concept{ConceptSubject, ConceptVerb}}
	repeat = Step{}
	det    = Step{Introduces: []Concept{ConceptDeterminer}}
	adj    = Step{Introduces: []Concept{ConceptAdjective}}
	adv    = Step{Introduces: []Concept{ConceptAdverb}}
	conj   = Step{Introduces: []Concept{ConceptConjunction}}
	pron   = Step{Introduces: []Concept{ConceptPronoun}}
)

// templates maps lesson number to its ordered steps. Lessons below 10
// practise single words and have no formulas.
var templates = map[int][]Step{
	10: {base, repeat},
	11: {base, repeat, det},
	12: {base, det, adj},
	13: {base, repeat, det, adj},
	14: {base, det, adj, adv},
	15: {base, det, repeat, adj, adv},
	16: {base, det, adj, adv, conj},
	17: {base, det, adj, repeat, adv, conj},
	18: {base, det, adj, adv, conj, pron},
}

func init() {
	if err := validateTemplates(templates); err != nil {
		panic(fmt.Sprintf("lexicon: invalid formula templates: %v", err))
	}
}

// TemplateFor returns the template for lesson.
func TemplateFor(lesson int) (Template, error) {
	steps, ok := templates[lesson]
	if !ok {
		return Template{}, &UnsupportedLessonError{Lesson: lesson}
	}
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Introduces: append([]Concept(nil), s.Introduces...)}
	}
	return Template{Lesson: lesson, Steps: out}, nil
}

// Lessons returns the supported lesson numbers in ascending order.
func Lessons() []int {
	out := make([]int, 0, len(templates))
	for l := range templates {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// validateTemplates checks every template for structural problems and
// returns all of them joined, or nil.
func validateTemplates(t map[int][]Step) error {
	var errs []string

	lessons := make([]int, 0, len(t))
	for l := range t {
		lessons = append(lessons, l)
	}
	sort.Ints(lessons)

	prevLen := 0
	for _, lesson := range lessons {
		steps := t[lesson]
		if len(steps) < 2 || len(steps) > 6 {
			errs = append(errs, fmt.Sprintf("lesson %d: %d steps, want 2-6", lesson, len(steps)))
		}
		if len(steps) < prevLen {
			errs = append(errs, fmt.Sprintf("lesson %d: fewer steps than the previous lesson", lesson))
		}
		prevLen = len(steps)

		if len(steps) == 0 || !sameConcepts(steps[0].Introduces, base.Introduces) {
			errs = append(errs, fmt.Sprintf("lesson %d: first step must introduce subject and verb", lesson))
			continue
		}

		seen := map[Concept]bool{}
		for i, s := range steps {
			for _, c := range s.Introduces {
				if seen[c] {
					errs = append(errs, fmt.Sprintf("lesson %d step %d: %s introduced twice", lesson, i+1, c))
				}
				seen[c] = true
			}
			if i > 0 && len(s.Introduces) > 1 {
				errs = append(errs, fmt.Sprintf("lesson %d step %d: introduces more than one concept", lesson, i+1))
			}
		}
		if seen[ConceptPronoun] && !seen[ConceptConjunction] {
			errs = append(errs, fmt.Sprintf("lesson %d: pronoun requires a conjunction", lesson))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func sameConcepts(a, b []Concept) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
