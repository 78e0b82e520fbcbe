package formula

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/wordsmith/internal/lexicon"
)

const (
	determinerWord  = "The"
	conjunctionWord = "and"
)

// ErrEmptySubject is returned when Generate is called without a subject.
var ErrEmptySubject = errors.New("subject is required")

// Generator expands a lesson template and a subject into formulas.
// It is deterministic and safe for concurrent use.
type Generator struct {
	lex *lexicon.Lexicon
}

// New creates a Generator backed by lex. A nil lex uses the built-in
// lexicon.
func New(lex *lexicon.Lexicon) *Generator {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Generator{lex: lex}
}

// Generate returns the ordered formulas for lesson. category is used only
// when subject is missing from the lexicon. Returns
// *lexicon.UnsupportedLessonError for lessons without a template.
func (g *Generator) Generate(lesson int, subject string, category lexicon.Category) ([]Formula, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}

	tpl, err := lexicon.TemplateFor(lesson)
	if err != nil {
		return nil, err
	}

	entry := g.lex.Lookup(subject, category)

	formulas := make([]Formula, 0, len(tpl.Steps))
	active := map[lexicon.Concept]bool{}
	bank := []string{}
	inBank := map[string]bool{}

	for i, step := range tpl.Steps {
		for _, c := range step.Introduces {
			active[c] = true
		}

		tokens := compose(active, entry, subject)

		f := Formula{
			Number:      i + 1,
			Structure:   make([]lexicon.Concept, len(tokens)),
			Labelled:    tokens,
			WordBank:    append([]string{}, bank...),
			NewElements: append([]lexicon.Concept{}, step.Introduces...),
		}
		words := make([]string, len(tokens))
		for j, t := range tokens {
			f.Structure[j] = t.Slot
			words[j] = t.Word
		}
		f.Example = strings.Join(words, " ")
		formulas = append(formulas, f)

		// Words become reusable from the next step on.
		for _, w := range words {
			if !inBank[w] {
				inBank[w] = true
				bank = append(bank, w)
			}
		}
	}

	return formulas, nil
}

// compose lays out the active concepts in sentence order:
// determiner adjective subject verb adverb [conjunction [pronoun] verb].
func compose(active map[lexicon.Concept]bool, e lexicon.Entry, subject string) []Token {
	var tokens []Token

	if active[lexicon.ConceptDeterminer] {
		tokens = append(tokens, Token{Word: determinerWord, Slot: lexicon.ConceptDeterminer})
	}
	if active[lexicon.ConceptAdjective] {
		tokens = append(tokens, Token{Word: e.Adjective, Slot: lexicon.ConceptAdjective})
	}

	subj := subject
	if len(tokens) > 0 {
		subj = lowerFirst(subj)
	}
	tokens = append(tokens,
		Token{Word: subj, Slot: lexicon.ConceptSubject},
		Token{Word: e.Verb, Slot: lexicon.ConceptVerb},
	)

	if active[lexicon.ConceptAdverb] {
		tokens = append(tokens, Token{Word: e.Adverb, Slot: lexicon.ConceptAdverb})
	}
	if active[lexicon.ConceptConjunction] {
		tokens = append(tokens, Token{Word: conjunctionWord, Slot: lexicon.ConceptConjunction})
		if active[lexicon.ConceptPronoun] {
			tokens = append(tokens, Token{Word: lowerFirst(e.Pronoun), Slot: lexicon.ConceptPronoun})
		}
		tokens = append(tokens, Token{Word: e.SecondVerb, Slot: lexicon.ConceptVerb})
	}

	if tokens[0].Slot != lexicon.ConceptSubject {
		tokens[0].Word = upperFirst(tokens[0].Word)
	}
	return tokens
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
