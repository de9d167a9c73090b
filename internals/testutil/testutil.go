package testutil

import (
	"context"
	"sync"
	"testing"
)

// FakeAI is a scripted collaborator. Replies are returned in order; once
// exhausted the last one repeats. A non-nil Err wins over replies.
type FakeAI struct {
	Replies []string
	Err     error

	mu      sync.Mutex
	Prompts []string
}

func (f *FakeAI) Generate(ctx context.Context, promptText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, promptText)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", nil
	}
	idx := len(f.Prompts) - 1
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	return f.Replies[idx], nil
}

// CallCount returns how many prompts the fake has seen.
func (f *FakeAI) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// LastPrompt returns the most recent prompt, or "" when none were made.
func (f *FakeAI) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Prompts) == 0 {
		return ""
	}
	return f.Prompts[len(f.Prompts)-1]
}

// ValidReportJSON is a minimal well-formed model reply used across tests.
const ValidReportJSON = `{
  "summary": "System appears healthy.",
  "analysis": [
    {
      "component": "Memory",
      "status": "Normal",
      "details": "16GB installed, 40% in use.",
      "recommendation": "No action needed."
    }
  ],
  "potentialCauses": ["None identified."],
  "suggestedSolutions": ["Keep drivers up to date."],
  "confidenceScore": 0.9
}`

func TempDataDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
