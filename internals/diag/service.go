package diag

import (
	"context"
	"log/slog"
	"strings"

	"sysdiag/internals/prompt"
	"sysdiag/internals/schemas"
	"sysdiag/internals/taskq"
)

// Service exposes the three operations consumed by the transport layer:
// Submit, GetReport and Chat. Submit is non-blocking - it registers the task,
// schedules processing on the work queue and returns immediately.
type Service struct {
	store     TaskStore
	queue     *taskq.Queue
	processor *Processor
	ai        Collaborator
	logger    *slog.Logger
}

func NewService(store TaskStore, queue *taskq.Queue, processor *Processor, ai Collaborator, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		queue:     queue,
		processor: processor,
		ai:        ai,
		logger:    logger,
	}
}

// Submit validates the inputs, creates a PENDING task and schedules it.
// At least one of the two fields must be non-blank; re-submission always
// creates a brand-new task, existing ids are never reprocessed.
//
// When the work queue is saturated the task is failed immediately instead of
// being left PENDING forever: the client polls the id it was handed and sees
// a terminal FAILED state with the cause.
func (s *Service) Submit(problemDescription, systemInfoText string) (Task, error) {
	if strings.TrimSpace(problemDescription) == "" && strings.TrimSpace(systemInfoText) == "" {
		return Task{}, ErrEmptySubmission
	}

	task := s.store.Create(problemDescription, systemInfoText)
	s.logger.Info("task submitted",
		slog.String("task_id", task.ID),
		slog.Int("registry_size", s.store.Len()),
	)

	taskID := task.ID
	if err := s.queue.Enqueue(func(ctx context.Context) {
		s.processor.Process(ctx, taskID)
	}); err != nil {
		s.logger.Error("failed to schedule task", slog.String("task_id", taskID), slog.Any("error", err))
		s.failUnscheduled(taskID, err)
		if failed, ok := s.store.Get(taskID); ok {
			return failed, nil
		}
		return task, nil
	}

	return task, nil
}

// failUnscheduled moves a task that never reached a worker straight from
// PENDING to FAILED with the usual synthetic report.
func (s *Service) failUnscheduled(taskID string, cause error) {
	synthetic := failureReport(cause)
	s.store.Update(taskID, func(t *Task) {
		if t.Status.Terminal() {
			return
		}
		t.Status = schemas.TaskStatusFailed
		t.Report = synthetic
		t.Error = cause.Error()
		t.CompletedAt = now()
	})
}

// GetReport returns the current snapshot of a task.
func (s *Service) GetReport(taskID string) (Task, error) {
	task, ok := s.store.Get(taskID)
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

// Chat answers a follow-up question grounded in a completed task's system
// info and report. History is supplied by the caller on every call; nothing
// is stored between turns. The collaborator's raw reply is returned without
// parsing.
func (s *Service) Chat(ctx context.Context, taskID, userMessage string, history []schemas.ChatMessage) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", ErrEmptyMessage
	}

	task, ok := s.store.Get(taskID)
	if !ok {
		return "", ErrTaskNotFound
	}
	if task.Status != schemas.TaskStatusCompleted || task.Report == nil {
		return "", ErrReportNotReady
	}

	promptText := prompt.BuildChatContext(task.SystemInfoRaw, task.Report, history, userMessage)
	reply, err := s.ai.Generate(ctx, promptText)
	if err != nil {
		return "", &CollaboratorError{Err: err}
	}

	s.logger.Info("chat reply",
		slog.String("task_id", taskID),
		slog.Int("history_len", len(history)),
		slog.Int("reply_len", len(reply)),
	)
	return reply, nil
}
