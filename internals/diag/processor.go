package diag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sysdiag/internals/prompt"
	"sysdiag/internals/report"
	"sysdiag/internals/schemas"
)

// Collaborator is the external text-completion service. It is invoked with a
// fully built prompt and returns raw model text; generation configuration is
// fixed inside the implementation, not tunable per request.
type Collaborator interface {
	Generate(ctx context.Context, promptText string) (string, error)
}

// Processor drives one task from PENDING to a terminal state exactly once.
// Every failure past the PENDING->PROCESSING transition is absorbed into a
// FAILED task with a synthetic report; Process never returns an error.
type Processor struct {
	store   TaskStore
	ai      Collaborator
	logger  *slog.Logger
	timeout time.Duration
}

// NewProcessor creates a processor. timeout caps a single collaborator call;
// zero disables the cap.
func NewProcessor(store TaskStore, ai Collaborator, logger *slog.Logger, timeout time.Duration) *Processor {
	return &Processor{store: store, ai: ai, logger: logger, timeout: timeout}
}

// Process runs the full pipeline for one task id. A missing task is a
// defensive no-op; a task that is not PENDING anymore has already been
// claimed and is left alone.
func (p *Processor) Process(ctx context.Context, taskID string) {
	task, ok := p.store.Get(taskID)
	if !ok {
		p.logger.Error("task vanished before processing", slog.String("task_id", taskID))
		return
	}

	if !p.markProcessing(taskID) {
		p.logger.Warn("task already claimed, skipping",
			slog.String("task_id", taskID),
			slog.String("status", string(task.Status)),
		)
		return
	}

	p.logger.Info("processing task",
		slog.String("task_id", taskID),
		slog.Int("system_info_len", len(task.SystemInfoRaw)),
		slog.Int("problem_len", len(task.ProblemDescription)),
	)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	promptText := prompt.BuildDiagnostic(task.SystemInfoRaw, task.ProblemDescription)

	raw, err := p.ai.Generate(ctx, promptText)
	if err != nil {
		p.fail(taskID, &CollaboratorError{Err: err})
		return
	}

	parsed, err := report.Parse(raw)
	if err != nil {
		p.fail(taskID, err)
		return
	}

	p.store.Update(taskID, func(t *Task) {
		if t.Status != schemas.TaskStatusProcessing {
			return
		}
		t.Status = schemas.TaskStatusCompleted
		t.Report = parsed
		t.CompletedAt = now()
	})
	p.logger.Info("task completed", slog.String("task_id", taskID))
}

// markProcessing claims the task. Only a PENDING task can be claimed, which
// makes processing at-most-once even if the same id is ever scheduled twice.
func (p *Processor) markProcessing(taskID string) bool {
	claimed := false
	_, found := p.store.Update(taskID, func(t *Task) {
		if t.Status == schemas.TaskStatusPending {
			t.Status = schemas.TaskStatusProcessing
			claimed = true
		}
	})
	return found && claimed
}

// fail transitions the task to FAILED with a synthetic report. The raw error
// text lands both on the task and inside the report so a client that only
// reads one of the two still sees the cause.
func (p *Processor) fail(taskID string, cause error) {
	p.logger.Error("task failed", slog.String("task_id", taskID), slog.Any("error", cause))
	synthetic := failureReport(cause)
	p.store.Update(taskID, func(t *Task) {
		if t.Status != schemas.TaskStatusProcessing {
			return
		}
		t.Status = schemas.TaskStatusFailed
		t.Report = synthetic
		t.Error = cause.Error()
		t.CompletedAt = now()
	})
}

// Fixed labels of failure-synthesized reports. Clients key off these strings,
// keep them stable.
const (
	extractionFailureSummary   = "AI Processing Error"
	collaboratorFailureSummary = "Erreur de traitement AI"
)

// failureReport is the single mapping from a processing error to the
// synthetic AIReport attached to a FAILED task.
func failureReport(cause error) *schemas.AIReport {
	var extractionErr *report.ExtractionError
	if errors.As(cause, &extractionErr) {
		return &schemas.AIReport{
			Summary: extractionFailureSummary,
			Analysis: []schemas.AnalysisEntry{{
				Component:      "AI Interaction",
				Status:         "Failed",
				Details:        fmt.Sprintf("Could not get a valid analysis from the AI. Error: %v", cause),
				Recommendation: "Try submitting again. If the problem persists, check system logs or contact support.",
			}},
			PotentialCauses: []string{
				"AI service unavailable or returned an invalid response.",
				"The AI may have struggled with the format or content of the input data.",
			},
			SuggestedSolutions: []string{
				"Verify AI service configuration and API key.",
				"Check the AI model limits and prompt complexity.",
				"Ensure the input data is clean and does not contain unexpected characters that might break JSON generation.",
			},
			ConfidenceScore: 0,
			GeneratedAt:     now(),
			Error:           fmt.Sprintf("%s: %v", extractionFailureSummary, cause),
		}
	}

	return &schemas.AIReport{
		Summary: collaboratorFailureSummary,
		Analysis: []schemas.AnalysisEntry{{
			Component:      "AI Processing",
			Status:         "Failed",
			Details:        cause.Error(),
			Recommendation: "Veuillez réessayer ou contacter le support.",
		}},
		PotentialCauses:    []string{"Erreur interne"},
		SuggestedSolutions: []string{"Contacter le support technique."},
		ConfidenceScore:    0,
		GeneratedAt:        now(),
		Error:              "Erreur lors du traitement AI.",
	}
}
