package lexicon

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category is the grammatical category of a sentence subject.
type Category string

const (
	CategoryPerson Category = "person"
	CategoryAnimal Category = "animal"
	CategoryPlace  Category = "place"
	CategoryThing  Category = "thing"
)

// DefaultCategory is used when a subject's category cannot be determined.
const DefaultCategory = CategoryAnimal

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return []Category{CategoryPerson, CategoryAnimal, CategoryPlace, CategoryThing}
}

// ParseCategory converts a caller-supplied string into a Category.
// Matching is case-insensitive. Returns false for unknown values.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryPerson, CategoryAnimal, CategoryPlace, CategoryThing:
		return c, true
	}
	return "", false
}

// Entry holds the words a subject contributes to its formulas.
type Entry struct {
	// Subject is the normalized lookup key. Empty for category defaults.
	Subject  string
	Category Category

	Verb      string
	Adjective string
	Adverb    string

	// Pronoun replaces the subject in a second clause. Always "It" for
	// non-person categories.
	Pronoun string

	// SecondVerb follows a conjunction and agrees with Pronoun.
	SecondVerb string

	// Known reports whether the entry came from the subject table rather
	// than a category default.
	Known bool
}

// Lexicon resolves subjects to their category and word choices.
// It is immutable after construction and safe for concurrent use.
type Lexicon struct {
	entries  map[string]Entry
	defaults map[Category]Entry
}

// New builds a Lexicon from subject entries and per-category defaults.
// Entries are keyed by their normalized subject.
func New(entries []Entry, defaults map[Category]Entry) *Lexicon {
	l := &Lexicon{
		entries:  make(map[string]Entry, len(entries)),
		defaults: make(map[Category]Entry, len(defaults)),
	}
	for _, e := range entries {
		e.Subject = Normalize(e.Subject)
		e.Known = true
		l.entries[e.Subject] = e
	}
	for c, e := range defaults {
		e.Category = c
		e.Subject = ""
		e.Known = false
		l.defaults[c] = e
	}
	return l
}

var std = New(subjectTable, categoryDefaults)

// Default returns the built-in lexicon.
func Default() *Lexicon {
	return std
}

// Normalize trims the subject and upper-cases its first letter, leaving
// the rest untouched. "dog" and "Dog" share a key; "DOG" does not.
func Normalize(subject string) string {
	s := strings.TrimSpace(subject)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Lookup returns the entry for subject. Unknown subjects fall back to the
// default entry of fallback, or of DefaultCategory when fallback is not a
// known category. Lookup never fails.
func (l *Lexicon) Lookup(subject string, fallback Category) Entry {
	if e, ok := l.entries[Normalize(subject)]; ok {
		return e
	}
	if _, ok := l.defaults[fallback]; !ok {
		fallback = DefaultCategory
	}
	e := l.defaults[fallback]
	e.Subject = Normalize(subject)
	return e
}

// Detect returns the category of a known subject, or DefaultCategory.
func (l *Lexicon) Detect(subject string) Category {
	if e, ok := l.entries[Normalize(subject)]; ok {
		return e.Category
	}
	return DefaultCategory
}

// Subjects returns the number of subjects in the table.
func (l *Lexicon) Subjects() int {
	return len(l.entries)
}
