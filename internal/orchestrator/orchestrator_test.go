package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/driveagent/driveagent/internal/apperr"
	"github.com/driveagent/driveagent/internal/orchestrator"
	"github.com/driveagent/driveagent/pkg/models"
)

// fakeModel scripts a fixed sequence of ChatWithTools responses, one per call.
type fakeModel struct {
	responses []*models.ModelResponse
	calls     int
}

func (m *fakeModel) Chat(ctx context.Context, turns []models.ChatMessage) (string, error) {
	return "", nil
}

func (m *fakeModel) ChatWithTools(ctx context.Context, turns []models.ChatMessage, tools []models.ToolDeclaration, opts models.ChatOptions) (*models.ModelResponse, error) {
	if m.calls >= len(m.responses) {
		return nil, errors.New("fakeModel: no more scripted responses")
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

func (m *fakeModel) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, nil
}

// fakeRegistry exposes one declared tool and a canned invoke result.
type fakeRegistry struct {
	declarations []models.ToolDeclaration
	payload      map[string]interface{}
	invokeErr    error
	invoked      []string
}

func (r *fakeRegistry) Declarations() []models.ToolDeclaration { return r.declarations }

func (r *fakeRegistry) Invoke(ctx context.Context, name string, params map[string]interface{}) (map[string]interface{}, bool, error) {
	r.invoked = append(r.invoked, name)
	if name != "searchDocuments" {
		return nil, false, nil
	}
	if r.invokeErr != nil {
		return nil, true, r.invokeErr
	}
	cp := make(map[string]interface{}, len(r.payload))
	for k, v := range r.payload {
		cp[k] = v
	}
	return cp, true, nil
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		declarations: []models.ToolDeclaration{{Name: "searchDocuments"}},
	}
}

func TestExecuteTaskRejectsEmptyPrompt(t *testing.T) {
	o := orchestrator.New(&fakeModel{}, newFakeRegistry())
	_, err := o.ExecuteTask(context.Background(), "   ", 0)
	if err == nil {
		t.Fatal("ExecuteTask() error = nil, want bad-request error")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.BadRequest {
		t.Errorf("ExecuteTask() error kind = %v, want BadRequest", kind)
	}
}

func TestExecuteTaskRejectsMaxIterationsAboveLimit(t *testing.T) {
	o := orchestrator.New(&fakeModel{}, newFakeRegistry())
	_, err := o.ExecuteTask(context.Background(), "find something", orchestrator.MaxAllowedIterations+1)
	if err == nil {
		t.Fatal("ExecuteTask() error = nil, want bad-request error")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.BadRequest {
		t.Errorf("ExecuteTask() error kind = %v, want BadRequest", kind)
	}
}

func TestExecuteTaskRejectsNegativeMaxIterations(t *testing.T) {
	o := orchestrator.New(&fakeModel{}, newFakeRegistry())
	_, err := o.ExecuteTask(context.Background(), "find something", -1)
	if err == nil {
		t.Fatal("ExecuteTask() error = nil, want bad-request error")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.BadRequest {
		t.Errorf("ExecuteTask() error kind = %v, want BadRequest", kind)
	}
}

func TestExecuteTaskAllowsMaxIterationsAtLimit(t *testing.T) {
	registry := newFakeRegistry()
	registry.payload = map[string]interface{}{"success": true, "count": 0, "results": []map[string]interface{}{}}
	model := &fakeModel{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCall{{Name: "searchDocuments"}}},
		{Text: "done"},
	}}
	o := orchestrator.New(model, registry)

	result, err := o.ExecuteTask(context.Background(), "find something", orchestrator.MaxAllowedIterations)
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v, want nil at the exact limit", err)
	}
	if !result.Success {
		t.Fatalf("ExecuteTask() Success = false, want true")
	}
}

func TestExecuteTaskForcesToolUseOnFirstIteration(t *testing.T) {
	model := &fakeModel{responses: []*models.ModelResponse{
		{Text: "here is your answer"},
	}}
	o := orchestrator.New(model, newFakeRegistry())

	_, err := o.ExecuteTask(context.Background(), "what documents do we have?", 3)
	if err == nil {
		t.Fatal("ExecuteTask() error = nil, want ModelFailure since text-only was returned on the forced iteration")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.ModelFailure {
		t.Errorf("ExecuteTask() error kind = %v, want ModelFailure", kind)
	}
}

func TestExecuteTaskRunsToolThenSynthesizesAnswer(t *testing.T) {
	registry := newFakeRegistry()
	registry.payload = map[string]interface{}{
		"success": true,
		"count":   1,
		"results": []map[string]interface{}{
			{"fileName": "Renewal", "folderPath": "Legal/2026", "googleLink": "https://docs.google.com/document/d/doc-id", "path": "Drive/Legal/2026/Renewal", "distance": "0.1000"},
		},
	}
	model := &fakeModel{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCall{{Name: "searchDocuments", Parameters: map[string]interface{}{"query": "renewal"}}}},
		{Text: "Found the renewal document."},
	}}
	o := orchestrator.New(model, registry)

	result, err := o.ExecuteTask(context.Background(), "find the renewal document", 3)
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("ExecuteTask() Success = false, want true")
	}
	if result.Iterations != 2 {
		t.Errorf("ExecuteTask() Iterations = %d, want 2", result.Iterations)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "searchDocuments" {
		t.Errorf("ExecuteTask() ToolCalls = %+v, want one searchDocuments call", result.ToolCalls)
	}
	if !strings.Contains(result.Answer, "Found the renewal document.") || !strings.Contains(result.Answer, "Renewal") {
		t.Errorf("ExecuteTask() Answer = %q, want it to include model text and the matched file name", result.Answer)
	}
}

func TestExecuteTaskSkipsUnregisteredTool(t *testing.T) {
	registry := newFakeRegistry()
	model := &fakeModel{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCall{{Name: "notRegistered", Parameters: nil}}},
		{Text: "fallback answer"},
	}}
	o := orchestrator.New(model, registry)

	result, err := o.ExecuteTask(context.Background(), "do something unsupported", 3)
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if len(result.ToolCalls) != 0 {
		t.Errorf("ExecuteTask() ToolCalls = %+v, want empty since the tool was unregistered", result.ToolCalls)
	}
}

func TestExecuteTaskExhaustsMaxIterations(t *testing.T) {
	registry := newFakeRegistry()
	registry.payload = map[string]interface{}{"success": true, "count": 0, "results": []map[string]interface{}{}}
	model := &fakeModel{responses: []*models.ModelResponse{
		{ToolCalls: []models.ToolCall{{Name: "searchDocuments"}}},
		{ToolCalls: []models.ToolCall{{Name: "searchDocuments"}}},
	}}
	o := orchestrator.New(model, registry)

	_, err := o.ExecuteTask(context.Background(), "keep searching forever", 2)
	if err == nil {
		t.Fatal("ExecuteTask() error = nil, want MaxIterationsExceeded")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.MaxIterationsExceeded {
		t.Errorf("ExecuteTask() error kind = %v, want MaxIterationsExceeded", kind)
	}
}
