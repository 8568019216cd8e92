// Package tools implements the ToolRegistry capability: it declares the
// fixed set of tools the agent can call and binds each to a Go invoker over
// VectorStore, EmailSender, and Model.
package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

// commonExtensions is stripped from a documentName before falling back to a
// keyword search in summarizeDocument.
var commonExtensions = []string{".pdf", ".docx", ".doc", ".xlsx", ".xls", ".pptx", ".txt"}

// Registry implements contracts.ToolRegistry over a fixed set of tools.
type Registry struct {
	store          contracts.VectorStore
	email          contracts.EmailSender
	model          contracts.Model
	distanceCutoff *float64
}

// Config configures a Registry.
type Config struct {
	DistanceCutoff *float64
}

// New constructs a Registry bound to the given capabilities.
func New(store contracts.VectorStore, email contracts.EmailSender, model contracts.Model, cfg Config) *Registry {
	return &Registry{store: store, email: email, model: model, distanceCutoff: cfg.DistanceCutoff}
}

var _ contracts.ToolRegistry = (*Registry)(nil)

// Declarations returns the four tool declarations in the shape
// Model.ChatWithTools expects.
func (r *Registry) Declarations() []models.ToolDeclaration {
	return []models.ToolDeclaration{
		{
			Name:        "searchDocuments",
			Description: "Search the indexed drive documents by semantic similarity, optionally refined by a keyword.",
			Parameters: models.ToolSchema{
				Type: "object",
				Properties: map[string]models.SchemaProperty{
					"query":      {Type: "string", Description: "the semantic search query"},
					"keyword":    {Type: "string", Description: "optional keyword to refine ranking"},
					"nResults":   {Type: "integer", Description: "maximum number of results", Default: 10},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "summarizeDocument",
			Description: "Summarize a specific document by name, focused on a query.",
			Parameters: models.ToolSchema{
				Type: "object",
				Properties: map[string]models.SchemaProperty{
					"documentName": {Type: "string", Description: "the document's file name"},
					"query":        {Type: "string", Description: "what the summary should focus on"},
					"maxLength":    {Type: "integer", Description: "maximum summary length in words", Default: 200},
				},
				Required: []string{"documentName", "query"},
			},
		},
		{
			Name:        "sendEmail",
			Description: "Send an email.",
			Parameters: models.ToolSchema{
				Type: "object",
				Properties: map[string]models.SchemaProperty{
					"to":            {Type: "string", Description: "recipient email address"},
					"subject":       {Type: "string", Description: "email subject"},
					"message":       {Type: "string", Description: "email body"},
					"recipientName": {Type: "string", Description: "recipient display name"},
				},
				Required: []string{"to", "subject", "message"},
			},
		},
		{
			Name:        "getDocumentStats",
			Description: "Return the count of indexed documents and the vector store backend name.",
			Parameters: models.ToolSchema{
				Type:       "object",
				Properties: map[string]models.SchemaProperty{},
			},
		},
	}
}

// Invoke runs the named tool. ok is false when name is not registered.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]interface{}) (map[string]interface{}, bool, error) {
	switch name {
	case "searchDocuments":
		result, err := r.searchDocuments(ctx, params)
		return result, true, err
	case "summarizeDocument":
		result, err := r.summarizeDocument(ctx, params)
		return result, true, err
	case "sendEmail":
		result, err := r.sendEmail(ctx, params)
		return result, true, err
	case "getDocumentStats":
		result, err := r.getDocumentStats(ctx, params)
		return result, true, err
	default:
		return nil, false, nil
	}
}

func (r *Registry) searchDocuments(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return map[string]interface{}{"success": false, "message": "query is required"}, nil
	}
	keyword, _ := params["keyword"].(string)
	nResults := intParam(params, "nResults", 10)

	results, err := r.store.Search(ctx, query, nResults, contracts.SearchOptions{
		Keyword:        keyword,
		MaxDistance:    r.distanceCutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("searchDocuments: %w", err)
	}

	rows := make([]map[string]interface{}, len(results))
	for i, res := range results {
		rows[i] = map[string]interface{}{
			"googleLink": res.GoogleLink,
			"fileName":   res.Metadata.Name,
			"folderPath": res.Metadata.FolderPath,
			"path":       res.Path,
			"distance":   strconv.FormatFloat(res.Distance, 'f', 4, 64),
		}
	}
	return map[string]interface{}{"success": true, "count": len(rows), "results": rows}, nil
}

func (r *Registry) summarizeDocument(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	documentName, _ := params["documentName"].(string)
	query, _ := params["query"].(string)
	maxLength := intParam(params, "maxLength", 200)
	if documentName == "" || query == "" {
		return map[string]interface{}{"success": false, "message": "documentName and query are required"}, nil
	}

	results, err := r.store.Search(ctx, query, 1, contracts.SearchOptions{
		MetadataFilter: map[string]string{"name": documentName},
	})
	if err != nil {
		return nil, fmt.Errorf("summarizeDocument: exact lookup: %w", err)
	}
	if len(results) == 0 {
		results, err = r.store.Search(ctx, query, 1, contracts.SearchOptions{Keyword: stripExtension(documentName)})
		if err != nil {
			return nil, fmt.Errorf("summarizeDocument: keyword fallback: %w", err)
		}
	}
	if len(results) == 0 {
		return map[string]interface{}{"success": false, "message": "no document matching " + documentName}, nil
	}

	doc := results[0]
	prompt := fmt.Sprintf("Create a summary of the following document in at most %d words, focused on: %s\n\n%s", maxLength, query, doc.Text)
	summary, err := r.model.Chat(ctx, []models.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("summarizeDocument: chat: %w", err)
	}

	return map[string]interface{}{
		"success":          true,
		"documentName":     doc.Metadata.Name,
		"folderPath":       doc.Metadata.FolderPath,
		"googleLink":       doc.GoogleLink,
		"extension":        doc.Metadata.Extension,
		"summary":          summary,
		"originalLength":   len(doc.Text),
		"summaryWordCount": len(strings.Fields(summary)),
	}, nil
}

func (r *Registry) sendEmail(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	to, _ := params["to"].(string)
	subject, _ := params["subject"].(string)
	message, _ := params["message"].(string)
	if to == "" || subject == "" || message == "" {
		return map[string]interface{}{"success": false, "message": "to, subject, and message are required"}, nil
	}

	if err := r.email.Send(ctx, to, subject, message); err != nil {
		return map[string]interface{}{"success": false, "message": err.Error()}, nil
	}

	return map[string]interface{}{
		"success": true,
		"message": "email sent",
		"sentEmail": map[string]interface{}{
			"to":      to,
			"subject": subject,
			"message": message,
		},
	}, nil
}

func (r *Registry) getDocumentStats(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	stats, err := r.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("getDocumentStats: %w", err)
	}
	return map[string]interface{}{"success": true, "count": stats.Count, "name": stats.Name}, nil
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func stripExtension(name string) string {
	for _, ext := range commonExtensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
