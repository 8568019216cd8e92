package tools_test

import (
	"context"
	"errors"
	"testing"

	"github.com/driveagent/driveagent/internal/tools"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

type fakeStore struct {
	searchResults []models.SearchResult
	searchErr     error
	lastOpts      contracts.SearchOptions
	stats         models.VectorStoreStats
}

func (s *fakeStore) Kind() string { return "fake" }
func (s *fakeStore) AddMany(ctx context.Context, docs []contracts.AddManyInput) error { return nil }
func (s *fakeStore) Search(ctx context.Context, query string, n int, opts contracts.SearchOptions) ([]models.SearchResult, error) {
	s.lastOpts = opts
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if opts.MetadataFilter != nil {
		// Simulate an exact-name lookup that never matches, forcing the
		// keyword-search fallback summarizeDocument exercises.
		return nil, nil
	}
	return s.searchResults, nil
}
func (s *fakeStore) GetAll(ctx context.Context) ([]models.Document, error)   { return nil, nil }
func (s *fakeStore) DeleteMany(ctx context.Context, ids []string) error     { return nil }
func (s *fakeStore) GetStats(ctx context.Context) (models.VectorStoreStats, error) {
	return s.stats, nil
}
func (s *fakeStore) Reset(ctx context.Context) error { return nil }

type fakeEmail struct {
	err  error
	sent bool
}

func (e *fakeEmail) Send(ctx context.Context, to, subject, htmlBody string) error {
	e.sent = true
	return e.err
}

type fakeModel struct{ chatResponse string }

func (m *fakeModel) Chat(ctx context.Context, turns []models.ChatMessage) (string, error) {
	return m.chatResponse, nil
}
func (m *fakeModel) ChatWithTools(ctx context.Context, turns []models.ChatMessage, decls []models.ToolDeclaration, opts models.ChatOptions) (*models.ModelResponse, error) {
	return nil, nil
}
func (m *fakeModel) Embed(ctx context.Context, text string) ([]float64, error) { return nil, nil }

func TestDeclarationsIncludesAllFourTools(t *testing.T) {
	r := tools.New(&fakeStore{}, &fakeEmail{}, &fakeModel{}, tools.Config{})
	decls := r.Declarations()
	if len(decls) != 4 {
		t.Fatalf("Declarations() len = %d, want 4", len(decls))
	}
	want := map[string]bool{"searchDocuments": true, "summarizeDocument": true, "sendEmail": true, "getDocumentStats": true}
	for _, d := range decls {
		if !want[d.Name] {
			t.Errorf("Declarations() included unexpected tool %q", d.Name)
		}
		delete(want, d.Name)
	}
	if len(want) != 0 {
		t.Errorf("Declarations() missing tools: %v", want)
	}
}

func TestInvokeUnknownToolReturnsNotOK(t *testing.T) {
	r := tools.New(&fakeStore{}, &fakeEmail{}, &fakeModel{}, tools.Config{})
	_, ok, err := r.Invoke(context.Background(), "doesNotExist", nil)
	if ok {
		t.Error("Invoke() ok = true, want false for unregistered tool")
	}
	if err != nil {
		t.Errorf("Invoke() error = %v, want nil", err)
	}
}

func TestSearchDocumentsRequiresQuery(t *testing.T) {
	r := tools.New(&fakeStore{}, &fakeEmail{}, &fakeModel{}, tools.Config{})
	result, _, err := r.Invoke(context.Background(), "searchDocuments", map[string]interface{}{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if success, _ := result["success"].(bool); success {
		t.Error("Invoke() success = true, want false when query is missing")
	}
}

func TestSearchDocumentsReturnsFormattedRows(t *testing.T) {
	store := &fakeStore{searchResults: []models.SearchResult{
		{Metadata: models.DocumentMetadata{Name: "Renewal", FolderPath: "Legal"}, GoogleLink: "https://docs.google.com/document/d/x", Path: "Drive/Legal/Renewal", Distance: 0.2},
	}}
	r := tools.New(store, &fakeEmail{}, &fakeModel{}, tools.Config{})

	result, ok, err := r.Invoke(context.Background(), "searchDocuments", map[string]interface{}{"query": "renewal", "nResults": float64(5)})
	if err != nil || !ok {
		t.Fatalf("Invoke() = (%v, %v, %v)", result, ok, err)
	}
	if count, _ := result["count"].(int); count != 1 {
		t.Errorf("Invoke() count = %v, want 1", result["count"])
	}
	rows, _ := result["results"].([]map[string]interface{})
	if len(rows) != 1 || rows[0]["fileName"] != "Renewal" {
		t.Errorf("Invoke() results = %+v", rows)
	}
}

func TestSendEmailRequiresFields(t *testing.T) {
	r := tools.New(&fakeStore{}, &fakeEmail{}, &fakeModel{}, tools.Config{})
	result, _, err := r.Invoke(context.Background(), "sendEmail", map[string]interface{}{"to": "a@b.com"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if success, _ := result["success"].(bool); success {
		t.Error("Invoke() success = true, want false when subject/message are missing")
	}
}

func TestSendEmailSucceeds(t *testing.T) {
	email := &fakeEmail{}
	r := tools.New(&fakeStore{}, email, &fakeModel{}, tools.Config{})
	result, _, err := r.Invoke(context.Background(), "sendEmail", map[string]interface{}{
		"to": "a@b.com", "subject": "Hi", "message": "Hello there",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if success, _ := result["success"].(bool); !success {
		t.Errorf("Invoke() success = false, want true: %+v", result)
	}
	if !email.sent {
		t.Error("Send() was not called")
	}
}

func TestSendEmailFailurePropagatesAsUnsuccessfulResult(t *testing.T) {
	email := &fakeEmail{err: errors.New("sendgrid down")}
	r := tools.New(&fakeStore{}, email, &fakeModel{}, tools.Config{})
	result, _, err := r.Invoke(context.Background(), "sendEmail", map[string]interface{}{
		"to": "a@b.com", "subject": "Hi", "message": "Hello there",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v, want nil (failure reported via result.success)", err)
	}
	if success, _ := result["success"].(bool); success {
		t.Error("Invoke() success = true, want false when Send fails")
	}
}

func TestGetDocumentStats(t *testing.T) {
	store := &fakeStore{stats: models.VectorStoreStats{Count: 42, Name: "embedded"}}
	r := tools.New(store, &fakeEmail{}, &fakeModel{}, tools.Config{})
	result, _, err := r.Invoke(context.Background(), "getDocumentStats", map[string]interface{}{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result["count"] != 42 || result["name"] != "embedded" {
		t.Errorf("Invoke() = %+v, want count=42 name=embedded", result)
	}
}

func TestSummarizeDocumentFallsBackToKeywordSearch(t *testing.T) {
	store := &fakeStore{searchResults: []models.SearchResult{
		{Text: "full document body", Metadata: models.DocumentMetadata{Name: "Renewal.docx", Extension: ".docx"}},
	}}
	model := &fakeModel{chatResponse: "a short summary"}
	r := tools.New(store, &fakeEmail{}, model, tools.Config{})

	result, _, err := r.Invoke(context.Background(), "summarizeDocument", map[string]interface{}{
		"documentName": "Renewal.docx", "query": "key terms",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if success, _ := result["success"].(bool); !success {
		t.Fatalf("Invoke() success = false, want true: %+v", result)
	}
	if result["summary"] != "a short summary" {
		t.Errorf("Invoke() summary = %v, want %q", result["summary"], "a short summary")
	}
	if store.lastOpts.Keyword != "Renewal" {
		t.Errorf("Search() keyword fallback = %q, want extension stripped to %q", store.lastOpts.Keyword, "Renewal")
	}
}

func TestSummarizeDocumentNoMatchReturnsUnsuccessful(t *testing.T) {
	r := tools.New(&fakeStore{}, &fakeEmail{}, &fakeModel{}, tools.Config{})
	result, _, err := r.Invoke(context.Background(), "summarizeDocument", map[string]interface{}{
		"documentName": "Missing.docx", "query": "anything",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if success, _ := result["success"].(bool); success {
		t.Error("Invoke() success = true, want false when no document matches")
	}
}
