package modelsvc

import (
	"testing"

	"github.com/driveagent/driveagent/pkg/models"
)

func TestToOpenAIMessagesMapsRoles(t *testing.T) {
	turns := []models.ChatMessage{
		{Role: "system", Content: "be concise"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	out := toOpenAIMessages(turns)
	if len(out) != 3 {
		t.Fatalf("toOpenAIMessages() returned %d messages, want 3", len(out))
	}
}

func TestToOpenAIToolsIncludesRequiredFields(t *testing.T) {
	decls := []models.ToolDeclaration{
		{
			Name:        "searchDocuments",
			Description: "search the index",
			Parameters: models.ToolSchema{
				Type: "object",
				Properties: map[string]models.SchemaProperty{
					"query": {Type: "string", Description: "search text"},
				},
				Required: []string{"query"},
			},
		},
	}
	out := toOpenAITools(decls)
	if len(out) != 1 {
		t.Fatalf("toOpenAITools() returned %d tools, want 1", len(out))
	}
}
