package schemas

import "time"

// AnalysisEntry is one component-level finding inside an AIReport.
type AnalysisEntry struct {
	Component      string `json:"component"`
	Status         string `json:"status"`
	Details        string `json:"details"`
	Recommendation string `json:"recommendation"`
}

// AIReport is the structured diagnostic result attached to a completed or
// failed task. GeneratedAt is always stamped by this process, never taken
// from model output. Error is only set on failure-synthesized reports.
//
// All other fields are best-effort: they come out of model-emitted JSON and
// carry no semantic guarantees beyond having parsed.
type AIReport struct {
	Summary            string          `json:"summary"`
	Analysis           []AnalysisEntry `json:"analysis"`
	PotentialCauses    []string        `json:"potentialCauses"`
	SuggestedSolutions []string        `json:"suggestedSolutions"`
	ConfidenceScore    float64         `json:"confidenceScore"`
	GeneratedAt        time.Time       `json:"generatedAt"`
	Error              string          `json:"error,omitempty"`
}

// ChatMessagePart is one text fragment of a chat turn. Parts are semantically
// concatenated; the split exists for Gemini wire compatibility.
type ChatMessagePart struct {
	Text string `json:"text"`
}

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one prior turn of a diagnostic chat. History is carried by
// the caller on every request; the server stores nothing between chat calls.
type ChatMessage struct {
	Role  ChatRole          `json:"role"`
	Parts []ChatMessagePart `json:"parts"`
}
