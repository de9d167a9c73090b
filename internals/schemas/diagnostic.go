package schemas

import (
	z "github.com/Oudwins/zog"
)

// SubmitRequest is the body of POST /api/collecte. Both fields are optional
// strings; the service rejects the submission when both are blank.
type SubmitRequest struct {
	ProblemDescription string `json:"problemDescription" zog:"problemDescription"`
	SystemInfoText     string `json:"systemInfoText" zog:"systemInfoText"`
}

var SubmitSchema = z.Struct(z.Shape{
	"ProblemDescription": z.String().Optional().Trim(),
	"SystemInfoText":     z.String().Optional().Trim(),
})

// ChatRequest is the body of POST /api/chat/{taskId}. ChatHistory may be
// empty; UserMessage must be non-blank.
type ChatRequest struct {
	UserMessage string        `json:"userMessage" zog:"userMessage"`
	ChatHistory []ChatMessage `json:"chatHistory" zog:"chatHistory"`
}

var ChatSchema = z.Struct(z.Shape{
	"UserMessage": z.String().Required(z.Message("User message cannot be empty.")).Trim(),
})
