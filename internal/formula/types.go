package formula

import (
	"fmt"
	"strings"

	"github.com/abhisek/wordsmith/internal/lexicon"
)

// Token is one word of a labelled example together with its slot.
type Token struct {
	Word string          `json:"word"`
	Slot lexicon.Concept `json:"slot"`
}

// Formula is a single scaffolded sentence-building step. Formulas are
// generated per practice session and never persisted.
type Formula struct {
	// Number is the 1-based position within the session.
	Number int `json:"number"`

	// Structure is the ordered list of grammatical slots.
	Structure []lexicon.Concept `json:"structure"`

	// Example is the plain example sentence, e.g. "The dog barks".
	Example string `json:"example"`

	// Labelled pairs every word of Example with its slot.
	Labelled []Token `json:"labelled"`

	// WordBank holds the literal words seen in earlier steps' examples,
	// in first-appearance order. Never nil.
	WordBank []string `json:"word_bank"`

	// NewElements names the concepts introduced at this step. Empty when
	// the step repeats the previous structure.
	NewElements []lexicon.Concept `json:"new_elements"`
}

// StructureString renders the structure as "determiner+subject+verb".
func (f Formula) StructureString() string {
	parts := make([]string, len(f.Structure))
	for i, s := range f.Structure {
		parts[i] = string(s)
	}
	return strings.Join(parts, "+")
}

// LabelledExample renders the example with slot labels, e.g.
// "The (determiner) dog (subject) barks (verb)".
func (f Formula) LabelledExample() string {
	parts := make([]string, len(f.Labelled))
	for i, t := range f.Labelled {
		parts[i] = fmt.Sprintf("%s (%s)", t.Word, t.Slot)
	}
	return strings.Join(parts, " ")
}
