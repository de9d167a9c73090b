package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/go-chi/chi/v5"

	"sysdiag/internals/diag"
	"sysdiag/internals/schemas"
)

// maxBodyBytes bounds request bodies. System info dumps are large but capped
// at 10MB, same as the public API contract.
const maxBodyBytes = 10 << 20

func (s *Server) HandlerHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Diagnostic PC Intelligent Backend is running!"))
}

func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Base.Config.Version))
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("shutting down"))
	s.Shutdown()
}

// HandlerSubmit accepts a diagnostic submission and schedules processing.
// The 202 is returned as soon as the task is registered; the client polls
// the report endpoint with the returned id.
func (s *Server) HandlerSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var request schemas.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}

	if issues := schemas.SubmitSchema.Validate(&request); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return
	}

	task, err := s.Service.Submit(request.ProblemDescription, request.SystemInfoText)
	if err != nil {
		if errors.Is(err, diag.ErrEmptySubmission) {
			RenderJSON(w, r, JsonResponseError(
				JsonResponseErrorCodeValidationFailed,
				"Aucune donnée de diagnostic fournie. Veuillez fournir une description du problème et/ou les informations système.",
				nil,
			), Render.Status(http.StatusBadRequest))
			return
		}
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, "Erreur interne du serveur lors de la soumission des données.", nil), Render.Status(http.StatusInternalServerError))
		return
	}

	RenderJSON(w, r, schemas.SubmitResponse{
		Message: "Données de diagnostic reçues, traitement en cours.",
		TaskID:  task.ID,
	}, Render.Status(http.StatusAccepted))
}

// HandlerReport serves the task snapshot: 202 while the task is still in
// flight, 200 once it reached a terminal state, 404 for unknown ids.
func (s *Server) HandlerReport(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	task, err := s.Service.GetReport(taskID)
	if err != nil {
		RenderJSON(w, r, JsonResponseError(
			JsonResponseErrorCodeNotFound,
			fmt.Sprintf("Rapport pour la tâche %s non trouvé.", taskID),
			nil,
		), Render.Status(http.StatusNotFound))
		return
	}

	response := schemas.ReportResponse{
		TaskID:             task.ID,
		Status:             task.Status,
		SubmittedAt:        task.SubmittedAt.Format(time.RFC3339Nano),
		ProblemDescription: task.ProblemDescription,
	}

	if !task.Status.Terminal() {
		response.Message = "Le rapport de diagnostic est en cours de traitement."
		if task.Status == schemas.TaskStatusPending {
			response.Message = "Le diagnostic est en attente de traitement."
		}
		RenderJSON(w, r, response, Render.Status(http.StatusAccepted))
		return
	}

	response.CompletedAt = task.CompletedAt.Format(time.RFC3339Nano)
	response.DiagnosticReport = task.Report
	if task.Status == schemas.TaskStatusFailed {
		details := "Aucun détail supplémentaire."
		if task.Error != "" {
			details = "Détails: " + task.Error
		}
		response.ErrorDetails = "Le traitement du diagnostic a échoué. " + details
	}
	RenderJSON(w, r, response, Render.Status(http.StatusOK))
}

// HandlerChat answers one follow-up question about a completed diagnostic.
// History travels with the request; the server keeps no conversation state.
func (s *Server) HandlerChat(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var request schemas.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}

	// The schema's only rule is a non-empty message, so the public wire
	// message stays stable across the schema and service checks.
	if issues := schemas.ChatSchema.Validate(&request); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "User message cannot be empty.", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return
	}

	reply, err := s.Service.Chat(r.Context(), taskID, request.UserMessage, request.ChatHistory)
	if err != nil {
		s.renderChatError(w, r, taskID, err)
		return
	}

	RenderJSON(w, r, schemas.ChatResponse{AIResponse: reply}, Render.Status(http.StatusOK))
}

func (s *Server) renderChatError(w http.ResponseWriter, r *http.Request, taskID string, err error) {
	switch {
	case errors.Is(err, diag.ErrEmptyMessage):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "User message cannot be empty.", nil), Render.Status(http.StatusBadRequest))
	case errors.Is(err, diag.ErrTaskNotFound):
		RenderJSON(w, r, JsonResponseError(
			JsonResponseErrorCodeNotFound,
			fmt.Sprintf("Task %s not found.", taskID),
			nil,
		), Render.Status(http.StatusNotFound))
	case errors.Is(err, diag.ErrReportNotReady):
		status := schemas.TaskStatusPending
		if task, getErr := s.Service.GetReport(taskID); getErr == nil {
			status = task.Status
		}
		RenderJSON(w, r, JsonResponseError(
			JsonResponseErrorCodeConflict,
			fmt.Sprintf("Chat is only available for completed tasks with a report. Task status: %s", status),
			nil,
		), Render.Status(http.StatusBadRequest))
	default:
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, "Error processing chat message with AI.", nil), Render.Status(http.StatusInternalServerError))
	}
}
