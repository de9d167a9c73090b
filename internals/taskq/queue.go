// Package taskq is a bounded in-process work queue with a worker-pool
// consumer. It decouples the synchronous submit path from diagnostic
// processing: Enqueue never blocks, and a full queue is reported to the
// caller instead of growing without bound.
package taskq

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueFull = errors.New("task queue is full")
	ErrStopped   = errors.New("task queue is stopped")
)

// Job is one unit of deferred work. The context is the queue's run context;
// it is cancelled when the queue shuts down.
type Job func(ctx context.Context)

type Queue struct {
	jobs    chan Job
	workers int

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a queue with the given worker count and capacity. Values below
// one are clamped to one.
func New(workers, capacity int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		jobs:    make(chan Job, capacity),
		workers: workers,
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.worker(ctx)
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			job(ctx)
		}
	}
}

// Enqueue hands a job to the workers without blocking. A full queue returns
// ErrQueueFull so the caller can apply its own backpressure policy.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop cancels the run context and waits for in-flight jobs to observe the
// cancellation and return. Queued jobs that have not started are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
}
