package llm

import (
	"context"
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-3-flash-preview"},
		{"gemini-pro", "gemini-3-pro-preview"},
		{"gemini-2.5-flash", "gemini-2.5-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":  map[string]any{"type": "string"},
			"order": map[string]any{"type": "integer"},
			"level": map[string]any{"type": "string", "enum": []any{"L1", "L2", "L3"}},
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"text", "order"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["text"].Type != "STRING" {
		t.Fatalf("expected STRING for text, got %s", schema.Properties["text"].Type)
	}
	if schema.Properties["order"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for order, got %s", schema.Properties["order"].Type)
	}
	if len(schema.Properties["level"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["level"].Enum))
	}
	if schema.Properties["options"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for options, got %s", schema.Properties["options"].Type)
	}
	if schema.Properties["options"].Items.Type != "STRING" {
		t.Fatalf("expected STRING for options items, got %s", schema.Properties["options"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestBuildGeminiContents_AttachesToLastUserMessage(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "ok"},
		{Role: RoleUser, Content: "buat soal dari gambar ini"},
	}
	img := Attachment{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

	contents := buildGeminiContents(msgs, []Attachment{img})

	if contents[1].Role != "model" {
		t.Fatalf("expected model role, got %q", contents[1].Role)
	}
	last := contents[2]
	if len(last.Parts) != 2 {
		t.Fatalf("expected text + image parts, got %d", len(last.Parts))
	}
	if last.Parts[1].InlineData == nil || last.Parts[1].InlineData.MIMEType != "image/png" {
		t.Fatalf("expected inline png part, got %+v", last.Parts[1])
	}
	if len(contents[0].Parts) != 1 {
		t.Fatalf("first message should carry no attachment")
	}
}

func TestNewGeminiEndpoints_RequiresKey(t *testing.T) {
	if _, err := NewGeminiEndpoints(context.Background(), GeminiConfig{}, []string{"gemini-pro"}); err == nil {
		t.Fatal("expected error without API key")
	}
}
