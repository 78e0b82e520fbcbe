package assessment

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/wordsmith/internal/llm"
)

// Normalize reads raw oracle output and coerces every field to its typed
// default when it is missing or has the wrong type. Output that is not a
// JSON object fails with *ParseError.
//
// In demo mode a single string is accepted where a list is expected.
// Curriculum callers must still apply the level's threshold with
// EnforceThreshold.
func Normalize(raw []byte, mode Mode) (*ValidatedAssessment, error) {
	text := llm.StripFences(string(raw))
	if text == "" {
		return nil, &ParseError{Raw: raw, Err: errors.New("empty oracle output")}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Raw: raw, Err: errors.New("oracle output is not a JSON object")}
	}

	c := coercer{lenient: mode == ModeDemo}

	a := &ValidatedAssessment{
		Total:              c.number(obj["total"], defaultTotal),
		Passed:             c.boolean(obj["passed"]),
		PerformanceBand:    band(obj["performance_band"]),
		Badge:              c.str(obj["badge"], placeholderBadge),
		ErrorPatterns:      c.tags(obj["error_patterns"]),
		InterventionNeeded: c.boolean(obj["intervention_needed"]),
		TeacherNotes:       c.str(obj["teacher_notes"], placeholderTeacherNotes),
	}
	if a.Total <= 0 {
		a.Total = defaultTotal
	}
	a.Score = clamp(c.number(obj["score"], 0), 0, a.Total)
	a.Percentage = clamp(c.number(obj["percentage"], 0), 0, 100)

	a.Feedback = c.feedback(obj["feedback"])
	a.DetailedAnalysis = c.analysis(obj["detailed_analysis"])
	return a, nil
}

type coercer struct {
	lenient bool
}

func (c coercer) feedback(v any) Feedback {
	fb := Feedback{
		MainMessage:    placeholderMainMessage,
		SpecificPraise: placeholderPraise,
		GrowthArea:     placeholderGrowthArea,
		Encouragement:  placeholderEncouragement,
	}
	switch v := v.(type) {
	case map[string]any:
		fb.MainMessage = c.str(v["main_message"], placeholderMainMessage)
		fb.SpecificPraise = c.str(v["specific_praise"], placeholderPraise)
		fb.GrowthArea = c.str(v["growth_area"], placeholderGrowthArea)
		fb.Encouragement = c.str(v["encouragement"], placeholderEncouragement)
	case string:
		// a bare feedback sentence
		fb.MainMessage = c.str(v, placeholderMainMessage)
	}
	return fb
}

func (c coercer) analysis(v any) DetailedAnalysis {
	m, _ := v.(map[string]any)
	return DetailedAnalysis{
		CorrectElements:     c.list(m["correct_elements"], placeholderCorrectElement),
		AreasForImprovement: c.list(m["areas_for_improvement"], placeholderImprovement),
		PrimaryStrength:     c.str(m["primary_strength"], placeholderStrength),
		PrimaryGrowthArea:   c.str(m["primary_growth_area"], placeholderGrowth),
	}
}

func (c coercer) str(v any, def string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// list returns the non-empty strings of v, or a one-element placeholder.
func (c coercer) list(v any, def string) []string {
	out := c.items(v)
	if len(out) == 0 {
		return []string{def}
	}
	return out
}

// tags is like list but an empty result stays empty: no error patterns is
// a valid answer.
func (c coercer) tags(v any) []string {
	out := c.items(v)
	if out == nil {
		return []string{}
	}
	return out
}

func (c coercer) items(v any) []string {
	var out []string
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		if c.lenient {
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (c coercer) number(v any, def float64) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	}
	return def
}

func (c coercer) boolean(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

func band(v any) string {
	s, _ := v.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	for _, b := range Bands {
		if s == b {
			return s
		}
	}
	return BandDeveloping
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
