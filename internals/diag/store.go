// store.go implements the in-memory task registry.
//
// The registry is the only shared mutable state in the diagnostic pipeline:
// HTTP handlers read it while worker goroutines mutate it. Every task carries
// its own mutex so that read-modify-write cycles on one task serialize
// against each other without blocking access to unrelated tasks. State is
// ephemeral by design - it lives for the duration of the daemon process.
package diag

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sysdiag/internals/schemas"
)

// now is a seam for tests.
var now = time.Now

// MemoryStore is a mutex-guarded map of tasks keyed by id.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*taskEntry
}

type taskEntry struct {
	mu   sync.Mutex
	task Task
}

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*taskEntry)}
}

// Create inserts a fresh PENDING task and returns its snapshot. The id is
// opaque and unique; callers must not parse it.
func (s *MemoryStore) Create(problemDescription, systemInfoRaw string) Task {
	task := Task{
		ID:                 uuid.NewString(),
		Status:             schemas.TaskStatusPending,
		SubmittedAt:        now(),
		ProblemDescription: problemDescription,
		SystemInfoRaw:      systemInfoRaw,
	}

	s.mu.Lock()
	s.tasks[task.ID] = &taskEntry{task: task}
	s.mu.Unlock()
	return task
}

// Get returns a snapshot copy of the task, or false if the id is unknown.
// The entry lock is taken so a concurrent Update is observed either fully
// applied or not at all.
func (s *MemoryStore) Get(id string) (Task, bool) {
	entry := s.entry(id)
	if entry == nil {
		return Task{}, false
	}
	entry.mu.Lock()
	task := entry.task
	entry.mu.Unlock()
	return task, true
}

// Update applies mutate to the task under its entry lock and returns the
// resulting snapshot. Returns false if the id is unknown; mutate is not
// called in that case.
func (s *MemoryStore) Update(id string, mutate func(*Task)) (Task, bool) {
	entry := s.entry(id)
	if entry == nil {
		return Task{}, false
	}
	entry.mu.Lock()
	mutate(&entry.task)
	task := entry.task
	entry.mu.Unlock()
	return task, true
}

// Len returns the number of tasks in the registry.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *MemoryStore) entry(id string) *taskEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks[id]
}
