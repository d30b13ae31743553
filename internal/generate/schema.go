package generate

import "github.com/abhisek/latihan/internal/llm"

// ItemsSchema defines the JSON schema for a generated question batch.
// correctAnswer is requested as text; the decoder also accepts bare numbers,
// arrays and booleans.
var ItemsSchema = &llm.Schema{
	Name:        "question-batch",
	Description: "A batch of classroom exercise questions with answer keys and worked explanations",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type":        "string",
					"enum":        typeLabels(),
					"description": "Question type label, exactly as listed",
				},
				"level": map[string]any{
					"type":        "string",
					"enum":        []any{"L1", "L2", "L3"},
					"description": "Cognitive level",
				},
				"text": map[string]any{
					"type":        "string",
					"description": "The question prompt",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "Step-by-step worked solution",
				},
				"material": map[string]any{
					"type":        "string",
					"description": "Topic this question covers",
				},
				"quizToken": map[string]any{
					"type":        "string",
					"description": "Grouping token of the exercise",
				},
				"order": map[string]any{
					"type":        "integer",
					"description": "1-based position within the exercise",
				},
				"options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Answer options or statements; empty for fill-in and essay",
				},
				"correctAnswer": map[string]any{
					"type":        "string",
					"description": "Index (0-4), index array like [0,2], boolean array like [true,false] or answer text",
				},
			},
			"required":             []any{"type", "level", "text", "correctAnswer", "explanation", "material", "quizToken", "order", "options"},
			"additionalProperties": false,
		},
	},
	// Items are decoded one by one; a bad item is skipped, not fatal.
	Shallow: true,
}

// RepairSchema defines the response to an option-repair request.
var RepairSchema = &llm.Schema{
	Name:        "option-repair",
	Description: "Completed answer options and a worked explanation for one question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"explanation": map[string]any{
				"type": "string",
			},
		},
		"required":             []any{"options", "explanation"},
		"additionalProperties": false,
	},
}
