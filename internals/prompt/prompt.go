// Package prompt builds the texts sent to the AI collaborator. Both builders
// are pure: the same inputs always produce the same prompt, which keeps them
// trivially testable and keeps truncation policy in one place.
package prompt

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"sysdiag/internals/schemas"
)

// Length caps. System info comes from an uncontrolled file upload and can be
// arbitrarily large; the caps bound what a single request can push into the
// model context. The chat caps are much tighter because chat re-sends the
// context on every turn.
const (
	SystemInfoCap     = 900_000
	ChatSystemInfoCap = 100_000
	ChatReportCap     = 100_000
)

// Truncation markers are part of the prompt contract: they tell the model
// (and anyone reading logs) that the input was cut, not short.
const (
	systemInfoTruncatedMarker     = "\n[...SYSTEM INFO TRUNCATED DUE TO LENGTH...]"
	chatSystemInfoTruncatedMarker = "\n[...SYSTEM INFO TRUNCATED...]"
	chatReportTruncatedMarker     = "\n[...REPORT TRUNCATED...]"
)

const diagnosticInstructions = `You are an expert PC diagnostic AI. Your task is to analyze the provided system information and problem description to identify potential issues, their causes, and suggest solutions.

Please provide your analysis STRICTLY in the following JSON format. Do NOT include any text outside of this JSON structure, not even "json" or backticks.

The JSON object must contain exactly these fields:
- "summary": string. A concise summary of the overall diagnostic findings.
- "analysis": array of objects, each with string fields "component" (e.g. "Operating System", "CPU", "Memory", "Disk Space", "User Reported Issue"), "status" (e.g. "Normal", "Warning", "Critical", "Unknown", "Information"), "details" and "recommendation".
- "potentialCauses": array of strings. Potential root causes for the identified issues.
- "suggestedSolutions": array of strings. Actionable suggested solutions.
- "confidenceScore": number between 0.0 (low confidence) and 1.0 (high confidence) representing your certainty in this diagnosis.`

const diagnosticClosing = `Based on all the information, generate the JSON output as described above.
If information is insufficient for a thorough analysis, reflect this in your summary, analysis (e.g. status "Unknown" or "Insufficient Data"), and a lower confidenceScore.
Ensure the 'analysis' array provides a breakdown of different components or aspects you've considered.
If no specific problem is described, focus on a general health check based on system info, if available.`

// BuildDiagnostic assembles the one-shot diagnostic prompt. Blank inputs are
// replaced by explicit "not provided" sentinels so the model never sees an
// empty segment and invents one.
func BuildDiagnostic(systemInfoRaw, problemDescription string) string {
	systemInfoSegment := "System Information: Not provided or empty."
	if strings.TrimSpace(systemInfoRaw) != "" {
		text, cut := Truncate(systemInfoRaw, SystemInfoCap)
		var b strings.Builder
		b.WriteString("System Information (raw text):\n---\n")
		b.WriteString(text)
		if cut {
			b.WriteString(systemInfoTruncatedMarker)
		}
		b.WriteString("\n---")
		systemInfoSegment = b.String()
	}

	problemSegment := "Problem Description: Not provided."
	if strings.TrimSpace(problemDescription) != "" {
		problemSegment = "Problem Description:\n---\n" + problemDescription + "\n---"
	}

	return diagnosticInstructions + "\n\n" +
		systemInfoSegment + "\n\n" +
		problemSegment + "\n\n" +
		diagnosticClosing
}

const chatPreamble = `System Preamble:
You are a helpful AI assistant named "Diagnostic Assistant" specializing in PC diagnostics.
You are discussing a PC issue with a user.
You MUST use the following information about the user's system and a previously generated diagnostic report to answer the user's questions.
If the user asks something not covered by the provided System Information or Diagnostic Report, state that the information is not available in the provided documents.
Do not invent information. Be concise and directly answer the user's query in relation to the provided data.
Do not refer to yourself by any other model name.`

// BuildChatContext assembles one chat prompt from the task's stored context,
// the caller-carried history and the new user message. The collaborator's
// reply to this prompt is returned to the user verbatim, with no parsing.
func BuildChatContext(systemInfoRaw string, rep *schemas.AIReport, history []schemas.ChatMessage, userMessage string) string {
	systemInfo, cut := Truncate(systemInfoRaw, ChatSystemInfoCap)
	if cut {
		systemInfo += chatSystemInfoTruncatedMarker
	}

	reportJSON, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		// AIReport contains only marshalable fields; this never fires.
		reportJSON = []byte("{}")
	}
	reportText, cut := Truncate(string(reportJSON), ChatReportCap)
	if cut {
		reportText += chatReportTruncatedMarker
	}

	var b strings.Builder
	b.WriteString(chatPreamble)
	b.WriteString("\n\nContext for this specific interaction:\nSystem Information:\n---\n")
	b.WriteString(systemInfo)
	b.WriteString("\n---\nDiagnostic Report:\n---\n")
	b.WriteString(reportText)
	b.WriteString("\n---\n\nConversation History (if any):\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nCurrent User Message:\nUser: ")
	b.WriteString(userMessage)
	b.WriteString("\n\nAssistant Response:\n")
	return b.String()
}

// renderHistory flattens prior turns into role-labeled lines. Message parts
// are joined with newlines; turns are separated by a blank line.
func renderHistory(history []schemas.ChatMessage) string {
	turns := make([]string, 0, len(history))
	for _, msg := range history {
		label := "Assistant"
		if msg.Role == schemas.ChatRoleUser {
			label = "User"
		}
		parts := make([]string, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			parts = append(parts, part.Text)
		}
		turns = append(turns, label+": "+strings.Join(parts, "\n"))
	}
	return strings.Join(turns, "\n\n")
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
// The second return value reports whether anything was cut.
//
// Only the cap boundary is inspected: a multi-byte rune split by the cap is
// dropped, but invalid bytes already present in the input pass through
// verbatim. System info is an uncontrolled upload, so the input being valid
// UTF-8 is not a given.
func Truncate(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	cut := s[:max]
	j := len(cut)
	for j > 0 && len(cut)-j < utf8.UTFMax-1 && !utf8.RuneStart(cut[j-1]) {
		j--
	}
	if j > 0 {
		// Decode against s, not cut: the rune is partial exactly when its
		// full encoding extends past the cap.
		if _, size := utf8.DecodeRuneInString(s[j-1:]); size > len(cut)-(j-1) {
			cut = cut[:j-1]
		}
	}
	return cut, true
}
