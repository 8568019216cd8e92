package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driveagent/driveagent/internal/apperr"
	"github.com/driveagent/driveagent/internal/orchestrator"
	"github.com/driveagent/driveagent/pkg/models"
)

type fakeOrchestrator struct {
	result *models.AgentTaskResult
	err    error
}

func (f *fakeOrchestrator) ExecuteTask(ctx context.Context, userPrompt string, maxIterations int) (*models.AgentTaskResult, error) {
	return f.result, f.err
}

// noopModel/noopRegistry back a real orchestrator.Orchestrator so
// TestExecuteTaskRejectsOutOfRangeMaxIterations exercises the actual
// maxIterations validation, not a stand-in for it.
type noopModel struct{}

func (noopModel) Chat(ctx context.Context, turns []models.ChatMessage) (string, error) {
	return "", nil
}

func (noopModel) ChatWithTools(ctx context.Context, turns []models.ChatMessage, tools []models.ToolDeclaration, opts models.ChatOptions) (*models.ModelResponse, error) {
	return nil, nil
}

func (noopModel) Embed(ctx context.Context, text string) ([]float64, error) { return nil, nil }

type noopRegistry struct{}

func (noopRegistry) Declarations() []models.ToolDeclaration { return nil }

func (noopRegistry) Invoke(ctx context.Context, name string, params map[string]interface{}) (map[string]interface{}, bool, error) {
	return nil, false, nil
}

func TestExecuteTaskReturnsDataOnSuccess(t *testing.T) {
	h := New(&fakeOrchestrator{result: &models.AgentTaskResult{Success: true, Answer: "done", Iterations: 1}})

	body, _ := json.Marshal(models.AgentTaskRequest{Prompt: "find the Q3 report"})
	req := httptest.NewRequest(http.MethodPost, "/agent/task", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.ExecuteTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.AgentTaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data == nil || resp.Data.Answer != "done" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestExecuteTaskRejectsInvalidBody(t *testing.T) {
	h := New(&fakeOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/agent/task", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	h.ExecuteTask(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestExecuteTaskMapsMaxIterationsExceededTo422(t *testing.T) {
	h := New(&fakeOrchestrator{err: apperr.New(apperr.MaxIterationsExceeded, "too complex")})

	body, _ := json.Marshal(models.AgentTaskRequest{Prompt: "something huge"})
	req := httptest.NewRequest(http.MethodPost, "/agent/task", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.ExecuteTask(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestExecuteTaskMapsModelFailureTo502(t *testing.T) {
	h := New(&fakeOrchestrator{err: apperr.Wrap(apperr.ModelFailure, "model call failed", context.DeadlineExceeded)})

	body, _ := json.Marshal(models.AgentTaskRequest{Prompt: "hi"})
	req := httptest.NewRequest(http.MethodPost, "/agent/task", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.ExecuteTask(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestExecuteTaskRejectsOutOfRangeMaxIterations(t *testing.T) {
	h := New(orchestrator.New(noopModel{}, noopRegistry{}))

	body, _ := json.Marshal(models.AgentTaskRequest{Prompt: "find something", MaxIterations: orchestrator.MaxAllowedIterations + 1})
	req := httptest.NewRequest(http.MethodPost, "/agent/task", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.ExecuteTask(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestExecuteTaskMapsUnknownErrorTo500(t *testing.T) {
	h := New(&fakeOrchestrator{err: context.Canceled})

	body, _ := json.Marshal(models.AgentTaskRequest{Prompt: "hi"})
	req := httptest.NewRequest(http.MethodPost, "/agent/task", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.ExecuteTask(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
