package diag

import (
	"errors"
	"fmt"
)

// Synchronous-path errors. These are the only errors that surface to callers
// of Service directly; everything that goes wrong during deferred processing
// is absorbed into a Failed task instead.
var (
	// ErrEmptySubmission is returned by Submit when both the problem
	// description and the system info text are blank.
	ErrEmptySubmission = errors.New("no diagnostic data provided")

	// ErrEmptyMessage is returned by Chat for a blank user message.
	ErrEmptyMessage = errors.New("user message cannot be empty")

	// ErrTaskNotFound is returned when no task exists for the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrReportNotReady is returned by Chat when the task has not reached
	// COMPLETED yet. Chat is grounded in the stored report, so there is
	// nothing to talk about before then.
	ErrReportNotReady = errors.New("diagnostic report not ready")
)

// CollaboratorError wraps a failure of the AI collaborator itself: missing
// credentials, network failures, provider-level errors. During deferred
// processing it is converted into a Failed task; on the chat path it
// propagates to the caller.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("ai collaborator: %v", e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
