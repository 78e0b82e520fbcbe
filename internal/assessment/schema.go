package assessment

import "github.com/abhisek/wordsmith/internal/llm"

func stringField(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func stringList(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

// AssessmentSchema steers the oracle toward a complete assessment. Replies
// are only checked against the object envelope; Normalize does the rest so
// a partial answer still yields a usable result.
var AssessmentSchema = &llm.Schema{
	Name:        "writing-assessment",
	Description: "Rubric-based assessment of a primary school pupil's sentence writing",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Points awarded against the rubric",
			},
			"total": map[string]any{
				"type":        "number",
				"description": "Maximum points available",
			},
			"percentage": map[string]any{
				"type":        "number",
				"description": "score / total * 100, between 0 and 100",
			},
			"passed": map[string]any{
				"type":        "boolean",
				"description": "Whether the writing meets the level's success criteria",
			},
			"performance_band": map[string]any{
				"type":        "string",
				"enum":        []any{BandEmerging, BandDeveloping, BandSecure, BandMastery},
				"description": "Coarse quality band",
			},
			"badge": stringField("A short celebratory title for the pupil"),
			"feedback": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"main_message":    stringField("One or two sentences addressed to the pupil"),
					"specific_praise": stringField("Something specific the pupil did well"),
					"growth_area":     stringField("One concrete thing to improve"),
					"encouragement":   stringField("A warm closing line"),
				},
				"required":             []any{"main_message", "specific_praise", "growth_area", "encouragement"},
				"additionalProperties": false,
			},
			"detailed_analysis": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"correct_elements":      stringList("Rubric criteria the writing meets"),
					"areas_for_improvement": stringList("Rubric criteria the writing misses"),
					"primary_strength":      stringField("The strongest aspect"),
					"primary_growth_area":   stringField("The most important next step"),
				},
				"required":             []any{"correct_elements", "areas_for_improvement", "primary_strength", "primary_growth_area"},
				"additionalProperties": false,
			},
			"error_patterns":      stringList("Short kebab-case tags naming recurring errors, e.g. missing-capital-letter"),
			"intervention_needed": map[string]any{"type": "boolean", "description": "Whether a teacher should follow up"},
			"teacher_notes":       stringField("Notes for the teacher, not shown to the pupil"),
		},
		"required": []any{
			"score", "total", "percentage", "passed", "performance_band", "badge",
			"feedback", "detailed_analysis", "error_patterns", "intervention_needed", "teacher_notes",
		},
		"additionalProperties": false,
	},
	Envelope: map[string]any{"type": "object"},
}
