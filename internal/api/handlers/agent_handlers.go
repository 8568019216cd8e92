// Package handlers implements the HTTP handlers for the agent runtime's
// external surface (spec §4.7).
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/driveagent/driveagent/internal/apperr"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/rs/zerolog/log"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Orchestrator contracts.AgentOrchestrator
}

// New creates a new Handlers instance.
func New(orchestrator contracts.AgentOrchestrator) *Handlers {
	return &Handlers{Orchestrator: orchestrator}
}

// ExecuteTask handles POST /agent/task.
func (h *Handlers) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	var req models.AgentTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Orchestrator.ExecuteTask(r.Context(), req.Prompt, req.MaxIterations)
	if err != nil {
		status, message := httpStatusFor(err)
		log.Warn().Err(err).Str("prompt", req.Prompt).Msg("agent task failed")
		respondJSON(w, status, models.AgentTaskResponse{Success: false, Message: message})
		return
	}

	respondJSON(w, http.StatusOK, models.AgentTaskResponse{Success: true, Data: result})
}

// httpStatusFor maps the apperr taxonomy to an HTTP status and a
// client-safe message.
func httpStatusFor(err error) (int, string) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, "internal error"
	}

	switch kind {
	case apperr.BadRequest:
		return http.StatusBadRequest, err.Error()
	case apperr.NotFound:
		return http.StatusNotFound, err.Error()
	case apperr.MaxIterationsExceeded:
		return http.StatusUnprocessableEntity, err.Error()
	case apperr.Cancelled:
		return http.StatusRequestTimeout, err.Error()
	case apperr.ModelFailure, apperr.ToolFailure:
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
