package assessment

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

const curriculumSystemPrompt = `You are an experienced primary school writing teacher assessing a pupil's sentence writing against a rubric.

Rules:
- Judge only what the pupil wrote. Do not rewrite their work.
- Score strictly against the rubric criteria and the level's instructions.
- "percentage" must equal score / total * 100.
- Set "passed" to true only when the writing meets the level's success criteria.
- Choose performance_band from: emerging, developing, secure, mastery.
- Feedback is read by a child aged 6 to 11: short sentences, warm tone, no jargon.
- error_patterns are short kebab-case tags for recurring mistakes. Use an empty list if there are none.
- Respond with JSON only.`

const demoSystemPrompt = `You are an experienced primary school writing teacher giving a quick assessment of a pupil's sentence writing.

Rules:
- Judge only what the pupil wrote. Do not rewrite their work.
- Use the rubric if one is given, otherwise judge capital letters, full stops, word choice and sentence structure.
- "percentage" must equal score / total * 100.
- Choose performance_band from: emerging, developing, secure, mastery.
- Feedback is read by a child aged 6 to 11: short sentences, warm tone, no jargon.
- Respond with JSON only.`

// promptInput is everything the oracle sees about one piece of writing.
type promptInput struct {
	LevelNumber        int
	ActivityName       string
	PromptTitle        string
	PromptInstructions string
	TargetConcepts     []string
	PassingThreshold   float64
	Rubric             string
	Text               string
	WordCount          int
}

var userTemplate = template.Must(template.New("assessment").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`{{if .LevelNumber}}Level: {{.LevelNumber}}
{{end}}{{with .ActivityName}}Activity: {{.}}
{{end}}{{with .PromptTitle}}Prompt: {{.}}
{{end}}{{with .PromptInstructions}}Instructions: {{.}}
{{end}}{{with .TargetConcepts}}Target concepts: {{join . ", "}}
{{end}}{{if .PassingThreshold}}Pass mark: {{printf "%.0f" .PassingThreshold}}%
{{end}}
Rubric:
{{.Rubric}}

Pupil's writing ({{.WordCount}} words):
"""
{{.Text}}
"""`))

func buildUserMessage(in promptInput) (string, error) {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatRubric renders an opaque rubric for the prompt. Invalid JSON is
// passed through as text.
func formatRubric(rubric json.RawMessage) string {
	trimmed := bytes.TrimSpace(rubric)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "None"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
