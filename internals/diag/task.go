package diag

import (
	"time"

	"sysdiag/internals/schemas"
)

// Task is one diagnostic request's lifecycle record.
//
// Lifecycle: PENDING -> PROCESSING -> COMPLETED | FAILED
//
// COMPLETED and FAILED are terminal. The input fields are immutable after
// creation; Status, Report, Error and CompletedAt are mutated only through
// TaskStore.Update by the processor.
type Task struct {
	ID                 string
	Status             schemas.TaskStatus
	SubmittedAt        time.Time
	CompletedAt        time.Time // zero until the task reaches a terminal state
	ProblemDescription string
	SystemInfoRaw      string
	Report             *schemas.AIReport // set exactly once, on entering COMPLETED or FAILED
	Error              string            // set only on FAILED
}

// TaskStore is a keyed registry of tasks. Update applies the mutation
// atomically with respect to other Get/Update calls on the same id: a reader
// never observes a record mid-mutation (for example COMPLETED with no report).
//
// Implementations hand out snapshot copies, never live pointers. The Report
// pointer inside a snapshot is safe to share because reports are immutable
// once attached.
type TaskStore interface {
	Create(problemDescription, systemInfoRaw string) Task
	Get(id string) (Task, bool)
	Update(id string, mutate func(*Task)) (Task, bool)
	Len() int
}
