package diag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sysdiag/internals/schemas"
	"sysdiag/internals/taskq"
	"sysdiag/internals/testutil"
)

func newTestService(fake *testutil.FakeAI, queue *taskq.Queue) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	processor := NewProcessor(store, fake, testLogger(), 0)
	return NewService(store, queue, processor, fake, testLogger()), store
}

func TestSubmitRejectsEmptySubmission(t *testing.T) {
	service, store := newTestService(&testutil.FakeAI{}, taskq.New(1, 1))

	_, err := service.Submit("   ", "\n\t")
	if !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("expected ErrEmptySubmission, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("rejected submission must not create a task")
	}
}

func TestSubmitProcessesTask(t *testing.T) {
	queue := taskq.New(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	fake := &testutil.FakeAI{Replies: []string{testutil.ValidReportJSON}}
	service, store := newTestService(fake, queue)

	task, err := service.Submit("screen flickers", "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if task.Status != schemas.TaskStatusPending {
		t.Fatalf("expected PENDING at submit time, got %s", task.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		current, _ := store.Get(task.ID)
		if current.Status.Terminal() {
			if current.Status != schemas.TaskStatusCompleted {
				t.Fatalf("expected COMPLETED, got %s (%s)", current.Status, current.Error)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never reached a terminal state, status %s", current.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubmitEachCallCreatesNewTask(t *testing.T) {
	service, store := newTestService(&testutil.FakeAI{}, taskq.New(1, 8))

	first, _ := service.Submit("p", "")
	second, _ := service.Submit("p", "")
	if first.ID == second.ID {
		t.Fatalf("resubmission must create a new task")
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", store.Len())
	}
}

func TestSubmitQueueFullFailsTask(t *testing.T) {
	// No workers started: the first job occupies the only slot, the second
	// submission cannot be scheduled.
	queue := taskq.New(1, 1)
	service, store := newTestService(&testutil.FakeAI{}, queue)

	if _, err := service.Submit("first", ""); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	task, err := service.Submit("second", "")
	if err != nil {
		t.Fatalf("saturated submit must not return an error, got %v", err)
	}
	if task.Status != schemas.TaskStatusFailed {
		t.Fatalf("unscheduled task must be FAILED, got %s", task.Status)
	}
	if task.Report == nil {
		t.Fatalf("expected synthetic report on unscheduled task")
	}
	if task.CompletedAt.IsZero() {
		t.Fatalf("expected completedAt on unscheduled task")
	}

	stored, _ := store.Get(task.ID)
	if stored.Status != schemas.TaskStatusFailed {
		t.Fatalf("store should hold the FAILED state, got %s", stored.Status)
	}
}

func TestGetReportUnknownTask(t *testing.T) {
	service, _ := newTestService(&testutil.FakeAI{}, taskq.New(1, 1))
	if _, err := service.GetReport("ghost"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func completedTask(t *testing.T, store *MemoryStore) Task {
	t.Helper()
	task := store.Create("pc is loud", "fan: 4000rpm")
	store.Update(task.ID, func(tk *Task) {
		tk.Status = schemas.TaskStatusCompleted
		tk.Report = &schemas.AIReport{Summary: "Fan under load.", ConfidenceScore: 0.7}
		tk.CompletedAt = time.Now()
	})
	updated, _ := store.Get(task.ID)
	return updated
}

func TestChatValidations(t *testing.T) {
	fake := &testutil.FakeAI{Replies: []string{"The fan is loud because of dust."}}
	service, store := newTestService(fake, taskq.New(1, 1))
	ctx := context.Background()

	if _, err := service.Chat(ctx, "any", "  ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := service.Chat(ctx, "ghost", "hello", nil); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	pending := store.Create("p", "s")
	if _, err := service.Chat(ctx, pending.ID, "hello", nil); !errors.Is(err, ErrReportNotReady) {
		t.Fatalf("expected ErrReportNotReady, got %v", err)
	}
}

func TestChatGroundedInTaskContext(t *testing.T) {
	fake := &testutil.FakeAI{Replies: []string{"Dust buildup, most likely."}}
	service, store := newTestService(fake, taskq.New(1, 1))
	task := completedTask(t, store)

	history := []schemas.ChatMessage{
		{Role: schemas.ChatRoleUser, Parts: []schemas.ChatMessagePart{{Text: "why is it loud?"}}},
		{Role: schemas.ChatRoleModel, Parts: []schemas.ChatMessagePart{{Text: "High fan speed."}}},
	}
	reply, err := service.Chat(context.Background(), task.ID, "what should I do?", history)
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if reply != "Dust buildup, most likely." {
		t.Fatalf("reply must be returned verbatim, got %q", reply)
	}

	prompt := fake.LastPrompt()
	for _, want := range []string{
		"fan: 4000rpm",
		"Fan under load.",
		"User: why is it loud?",
		"Assistant: High fan speed.",
		"User: what should I do?",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("chat prompt missing %q", want)
		}
	}
}

func TestChatStoresNothing(t *testing.T) {
	fake := &testutil.FakeAI{Replies: []string{"reply"}}
	service, store := newTestService(fake, taskq.New(1, 1))
	task := completedTask(t, store)

	before, _ := store.Get(task.ID)
	if _, err := service.Chat(context.Background(), task.ID, "q1", nil); err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	after, _ := store.Get(task.ID)
	if before != after {
		t.Fatalf("chat must not mutate the task")
	}
}

func TestChatCollaboratorError(t *testing.T) {
	fake := &testutil.FakeAI{Err: errors.New("upstream down")}
	service, store := newTestService(fake, taskq.New(1, 1))
	task := completedTask(t, store)

	_, err := service.Chat(context.Background(), task.ID, "hello", nil)
	var collabErr *CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
}
