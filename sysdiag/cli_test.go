package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sysdiag/internals/conf"
	"sysdiag/internals/env"
	"sysdiag/internals/schemas"
)

func captureOutput(t *testing.T, fn func() error) (string, error) {
	stdout := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = writer

	result := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		_, _ = io.Copy(&buf, reader)
		close(result)
	}()

	err = fn()
	_ = writer.Close()
	<-result
	os.Stdout = stdout

	return buf.String(), err
}

func setupCLIEnv(t *testing.T, baseURL string) {
	config := conf.GetConfig()
	origVersion := config.Version
	config.Version = "test-version"

	currentEnv := env.Get()
	origBase := currentEnv.BASE_URL
	currentEnv.BASE_URL = strings.TrimRight(baseURL, "/")

	t.Cleanup(func() {
		config.Version = origVersion
		currentEnv.BASE_URL = origBase
	})
}

func TestCLISubmitAndWait(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			_, _ = w.Write([]byte("test-version"))
		case "/api/collecte":
			var req schemas.SubmitRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.ProblemDescription != "pc slow" {
				t.Errorf("unexpected problem: %q", req.ProblemDescription)
			}
			if !strings.Contains(req.SystemInfoText, "cpu: 99%") {
				t.Errorf("sysinfo file content not sent")
			}
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(&schemas.SubmitResponse{Message: "reçu", TaskID: "abc"})
		case "/api/diagnostic/abc":
			polls++
			if polls == 1 {
				w.WriteHeader(http.StatusAccepted)
				_ = json.NewEncoder(w).Encode(&schemas.ReportResponse{TaskID: "abc", Status: schemas.TaskStatusProcessing})
				return
			}
			_ = json.NewEncoder(w).Encode(&schemas.ReportResponse{
				TaskID:           "abc",
				Status:           schemas.TaskStatusCompleted,
				DiagnosticReport: &schemas.AIReport{Summary: "All good."},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	setupCLIEnv(t, server.URL)

	sysinfoPath := filepath.Join(t.TempDir(), "sysinfo.txt")
	if err := os.WriteFile(sysinfoPath, []byte("cpu: 99%"), 0o644); err != nil {
		t.Fatalf("write sysinfo: %v", err)
	}

	output, err := captureOutput(t, func() error {
		return run([]string{"submit", "--problem", "pc slow", "--sysinfo-file", sysinfoPath, "--wait", "--wait-timeout", "30s"})
	})
	if err != nil {
		t.Fatalf("run submit: %v", err)
	}
	if !strings.Contains(output, "task: abc") || !strings.Contains(output, "All good.") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestCLIReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			_, _ = w.Write([]byte("test-version"))
		case "/api/diagnostic/abc":
			_ = json.NewEncoder(w).Encode(&schemas.ReportResponse{
				TaskID:       "abc",
				Status:       schemas.TaskStatusFailed,
				ErrorDetails: "Le traitement du diagnostic a échoué. Aucun détail supplémentaire.",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	setupCLIEnv(t, server.URL)

	output, err := captureOutput(t, func() error {
		return run([]string{"report", "abc"})
	})
	if err != nil {
		t.Fatalf("run report: %v", err)
	}
	if !strings.Contains(output, "status: FAILED") || !strings.Contains(output, "a échoué") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestCLIChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/version":
			_, _ = w.Write([]byte("test-version"))
		case "/api/chat/abc":
			var req schemas.ChatRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.UserMessage != "why?" {
				t.Errorf("unexpected message: %q", req.UserMessage)
			}
			_ = json.NewEncoder(w).Encode(&schemas.ChatResponse{AIResponse: "Because of dust."})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	setupCLIEnv(t, server.URL)

	output, err := captureOutput(t, func() error {
		return run([]string{"chat", "abc", "--message", "why?"})
	})
	if err != nil {
		t.Fatalf("run chat: %v", err)
	}
	if !strings.Contains(output, "Because of dust.") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestCLIUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"unknown"},
		{"report"},
		{"submit", "--bogus"},
		{"chat"},
	} {
		if err := run(args); err == nil {
			t.Fatalf("expected usage error for %v", args)
		}
	}
}

func TestSubmitArgsValidation(t *testing.T) {
	parsed, err := parseSubmitArgs([]string{"--problem", "p", "--wait"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Problem != "p" || !parsed.Wait {
		t.Fatalf("unexpected args: %+v", parsed)
	}
	if err := validateSubmitArgs(&parsed); err != nil {
		t.Fatalf("validate: %v", err)
	}

	empty := SubmitArgs{}
	if err := validateSubmitArgs(&empty); err == nil {
		t.Fatalf("expected error for empty submission args")
	}
}

func TestParseWaitTimeout(t *testing.T) {
	value, err := parseWaitTimeout("")
	if err != nil || value != 10*time.Minute {
		t.Fatalf("expected default timeout, got %v %v", value, err)
	}
	value, err = parseWaitTimeout("90s")
	if err != nil || value != 90*time.Second {
		t.Fatalf("expected 90s, got %v %v", value, err)
	}
	if _, err := parseWaitTimeout("bogus"); err == nil {
		t.Fatalf("expected error for bogus duration")
	}
}
