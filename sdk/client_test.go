package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sysdiag/internals/schemas"
)

func TestClientVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("  test-version  "))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	version, err := client.Version(ctx)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "test-version" {
		t.Fatalf("expected trimmed version, got %q", version)
	}
}

func TestClientDiagnosticFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case http.MethodPost + " /api/collecte":
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(&schemas.SubmitResponse{
				Message: "Données de diagnostic reçues, traitement en cours.",
				TaskID:  "task1",
			})
		case http.MethodGet + " /api/diagnostic/task1":
			_ = json.NewEncoder(w).Encode(&schemas.ReportResponse{
				TaskID: "task1",
				Status: schemas.TaskStatusCompleted,
				DiagnosticReport: &schemas.AIReport{
					Summary: "All good.",
				},
			})
		case http.MethodPost + " /api/chat/task1":
			_ = json.NewEncoder(w).Encode(&schemas.ChatResponse{AIResponse: "You are welcome."})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	submitResp, err := client.SubmitDiagnostic(ctx, schemas.SubmitRequest{ProblemDescription: "slow pc"})
	if err != nil {
		t.Fatalf("SubmitDiagnostic: %v", err)
	}
	if submitResp.TaskID != "task1" {
		t.Fatalf("unexpected task id %s", submitResp.TaskID)
	}

	reportResp, err := client.GetDiagnosticReport(ctx, "task1")
	if err != nil {
		t.Fatalf("GetDiagnosticReport: %v", err)
	}
	if reportResp.Status != schemas.TaskStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", reportResp.Status)
	}
	if reportResp.DiagnosticReport == nil || reportResp.DiagnosticReport.Summary != "All good." {
		t.Fatalf("report not decoded: %+v", reportResp.DiagnosticReport)
	}

	chatResp, err := client.Chat(ctx, "task1", schemas.ChatRequest{UserMessage: "thanks"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if chatResp.AIResponse != "You are welcome." {
		t.Fatalf("unexpected chat reply: %q", chatResp.AIResponse)
	}
}

func TestClientPendingReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(&schemas.ReportResponse{
			TaskID: "task1",
			Status: schemas.TaskStatusPending,
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.GetDiagnosticReport(ctx, "task1")
	if err != nil {
		t.Fatalf("GetDiagnosticReport: %v", err)
	}
	if resp.Status != schemas.TaskStatusPending {
		t.Fatalf("expected PENDING, got %s", resp.Status)
	}
	if resp.DiagnosticReport != nil {
		t.Fatalf("pending response must not carry a report")
	}
}

func TestClientErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Status: "failed", Code: "not_found", Message: "Rapport pour la tâche x non trouvé."})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.GetDiagnosticReport(ctx, "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" || !strings.Contains(apiErr.Error(), "non trouvé") {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
