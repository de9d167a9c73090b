package schemas

// TaskStatus is the lifecycle state of a diagnostic task. The values are
// upper-case on the wire because the browser agent and any existing clients
// match on them verbatim.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// Terminal reports whether no further transition may leave this status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// SubmitResponse is returned by POST /api/collecte.
type SubmitResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

// ReportResponse is returned by GET /api/diagnostic/{taskId}. Fields are
// populated progressively: pending/processing tasks carry no report, terminal
// tasks always do.
type ReportResponse struct {
	TaskID             string     `json:"taskId"`
	Status             TaskStatus `json:"status"`
	SubmittedAt        string     `json:"submittedAt"`
	CompletedAt        string     `json:"completedAt,omitempty"`
	ProblemDescription string     `json:"problemDescription"`
	Message            string     `json:"message,omitempty"`
	DiagnosticReport   *AIReport  `json:"diagnosticReport,omitempty"`
	ErrorDetails       string     `json:"errorDetails,omitempty"`
}

// ChatResponse is returned by POST /api/chat/{taskId}.
type ChatResponse struct {
	AIResponse string `json:"aiResponse"`
}
