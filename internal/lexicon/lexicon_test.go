package lexicon

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dog", "Dog"},
		{"Dog", "Dog"},
		{"  cat ", "Cat"},
		{"DOG", "DOG"},
		{"éclair", "Éclair"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLookup_KnownSubject(t *testing.T) {
	e := Default().Lookup("dog", CategoryThing)
	if !e.Known {
		t.Fatal("expected known entry for dog")
	}
	if e.Category != CategoryAnimal {
		t.Errorf("Category = %s, want animal", e.Category)
	}
	if e.Verb != "barks" {
		t.Errorf("Verb = %q, want barks", e.Verb)
	}
}

func TestLookup_UnknownSubjectUsesCategoryDefault(t *testing.T) {
	tests := []struct {
		fallback Category
		want     Category
		pronoun  string
	}{
		{CategoryPerson, CategoryPerson, "They"},
		{CategoryPlace, CategoryPlace, "It"},
		{CategoryThing, CategoryThing, "It"},
		{CategoryAnimal, CategoryAnimal, "It"},
		{Category("vegetable"), CategoryAnimal, "It"},
		{"", CategoryAnimal, "It"},
	}
	for _, tt := range tests {
		e := Default().Lookup("zorblax", tt.fallback)
		if e.Known {
			t.Errorf("fallback %q: expected default entry", tt.fallback)
		}
		if e.Category != tt.want {
			t.Errorf("fallback %q: Category = %s, want %s", tt.fallback, e.Category, tt.want)
		}
		if e.Pronoun != tt.pronoun {
			t.Errorf("fallback %q: Pronoun = %q, want %q", tt.fallback, e.Pronoun, tt.pronoun)
		}
		if e.Verb == "" || e.Adjective == "" || e.Adverb == "" || e.SecondVerb == "" {
			t.Errorf("fallback %q: default entry has empty words: %+v", tt.fallback, e)
		}
		if e.Subject != "Zorblax" {
			t.Errorf("fallback %q: Subject = %q, want Zorblax", tt.fallback, e.Subject)
		}
	}
}

func TestDetect(t *testing.T) {
	l := Default()
	if got := l.Detect("teacher"); got != CategoryPerson {
		t.Errorf("Detect(teacher) = %s, want person", got)
	}
	if got := l.Detect("beach"); got != CategoryPlace {
		t.Errorf("Detect(beach) = %s, want place", got)
	}
	if got := l.Detect("spaceship"); got != DefaultCategory {
		t.Errorf("Detect(spaceship) = %s, want %s", got, DefaultCategory)
	}
}

func TestNonPersonEntriesUseIt(t *testing.T) {
	for _, e := range subjectTable {
		if e.Category != CategoryPerson && e.Pronoun != "It" {
			t.Errorf("%s (%s): Pronoun = %q, want It", e.Subject, e.Category, e.Pronoun)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Person "); !ok || c != CategoryPerson {
		t.Errorf("ParseCategory(Person) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("mineral"); ok {
		t.Error("expected mineral to be rejected")
	}
}

func TestTemplateFor_StepCounts(t *testing.T) {
	want := map[int]int{10: 2, 11: 3, 12: 3, 13: 4, 14: 4, 15: 5, 16: 5, 17: 6, 18: 6}
	for lesson, n := range want {
		tpl, err := TemplateFor(lesson)
		if err != nil {
			t.Fatalf("TemplateFor(%d): %v", lesson, err)
		}
		if len(tpl.Steps) != n {
			t.Errorf("lesson %d: %d steps, want %d", lesson, len(tpl.Steps), n)
		}
	}
}

func TestTemplateFor_Unsupported(t *testing.T) {
	for _, lesson := range []int{0, 1, 9, 19, 41, -3} {
		_, err := TemplateFor(lesson)
		var ule *UnsupportedLessonError
		if !errors.As(err, &ule) {
			t.Fatalf("TemplateFor(%d): expected UnsupportedLessonError, got %v", lesson, err)
		}
		if ule.Lesson != lesson {
			t.Errorf("Lesson = %d, want %d", ule.Lesson, lesson)
		}
	}
}

func TestTemplateFor_ReturnsCopy(t *testing.T) {
	tpl, _ := TemplateFor(12)
	tpl.Steps[1].Introduces[0] = ConceptPronoun

	again, _ := TemplateFor(12)
	if again.Steps[1].Introduces[0] != ConceptDeterminer {
		t.Fatal("template table was mutated through a returned copy")
	}
}

func TestValidateTemplates(t *testing.T) {
	if err := validateTemplates(templates); err != nil {
		t.Fatalf("built-in templates invalid: %v", err)
	}

	bad := map[int][]Step{
		1: {det, base},
		2: {base, pron},
		3: {base, {Introduces: []Concept{ConceptAdjective, ConceptAdverb}}},
		4: {base},
	}
	if err := validateTemplates(bad); err == nil {
		t.Fatal("expected errors for malformed templates")
	}
}

func TestLessons_Sorted(t *testing.T) {
	ls := Lessons()
	if len(ls) != len(templates) {
		t.Fatalf("len = %d, want %d", len(ls), len(templates))
	}
	for i := 1; i < len(ls); i++ {
		if ls[i] <= ls[i-1] {
			t.Fatalf("lessons not ascending: %v", ls)
		}
	}
}
