// Package report recovers a structured diagnostic report from raw model
// output. Model text is treated as adversarial: it may wrap the JSON in
// markdown fences, surround it with prose, or not contain JSON at all. The
// parser tries a fixed sequence of extraction strategies and refuses to
// guess beyond them - malformed JSON is an error, never repaired.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sysdiag/internals/schemas"
)

// now is a seam for tests.
var now = time.Now

// fragmentLimit bounds how much offending text an ExtractionError carries.
// Enough to diagnose, small enough to log.
const fragmentLimit = 2000

// ExtractionError means the model output could not be recovered as a JSON
// report. Fragment holds a bounded slice of the text that failed.
type ExtractionError struct {
	Fragment string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai response parsing error: %v", e.Err)
	}
	return "ai response did not contain a JSON object"
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var fencedJSONBlock = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")

// reportPayload is the unmarshal target. GeneratedAt is deliberately absent:
// whatever timestamp the model emits is discarded, and a non-timestamp value
// there must not fail an otherwise valid report.
type reportPayload struct {
	Summary            string                  `json:"summary"`
	Analysis           []schemas.AnalysisEntry `json:"analysis"`
	PotentialCauses    []string                `json:"potentialCauses"`
	SuggestedSolutions []string                `json:"suggestedSolutions"`
	ConfidenceScore    float64                 `json:"confidenceScore"`
	Error              string                  `json:"error"`
}

// Parse extracts a report from raw model text. On success GeneratedAt is
// stamped with the current time and ConfidenceScore is clamped into
// [0.0, 1.0]; all other fields are taken as-is, best effort.
func Parse(raw string) (*schemas.AIReport, error) {
	cleaned, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var payload reportPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, &ExtractionError{Fragment: bound(cleaned), Err: err}
	}

	return &schemas.AIReport{
		Summary:            payload.Summary,
		Analysis:           payload.Analysis,
		PotentialCauses:    payload.PotentialCauses,
		SuggestedSolutions: payload.SuggestedSolutions,
		ConfidenceScore:    clamp01(payload.ConfidenceScore),
		GeneratedAt:        now(),
		Error:              payload.Error,
	}, nil
}

// ExtractJSON recovers the JSON object text from raw model output:
//
//  1. a fenced block labeled json yields its interior,
//  2. surrounding whitespace is trimmed,
//  3. if the text does not already start with { and end with }, the span
//     from the first { to the last } is sliced out.
//
// Failing all three, the text contains no recoverable object.
func ExtractJSON(raw string) (string, error) {
	cleaned := raw
	if match := fencedJSONBlock.FindStringSubmatch(cleaned); match != nil {
		cleaned = match[1]
	}
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}") {
		return cleaned, nil
	}

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last == -1 || last <= first {
		return "", &ExtractionError{Fragment: bound(raw)}
	}
	return cleaned[first : last+1], nil
}

func bound(s string) string {
	if len(s) <= fragmentLimit {
		return s
	}
	return s[:fragmentLimit]
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
