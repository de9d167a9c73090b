package prompt

import (
	"strings"
	"testing"

	"sysdiag/internals/schemas"
)

func TestTruncateUnderLimit(t *testing.T) {
	text, cut := Truncate("short", 10)
	if cut || text != "short" {
		t.Fatalf("expected passthrough, got %q cut=%v", text, cut)
	}
}

func TestTruncateOverLimit(t *testing.T) {
	input := strings.Repeat("a", 1_000_001)
	text, cut := Truncate(input, SystemInfoCap)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if len(text) != SystemInfoCap {
		t.Fatalf("expected %d bytes, got %d", SystemInfoCap, len(text))
	}
}

func TestTruncateDoesNotSplitUTF8(t *testing.T) {
	input := strings.Repeat("é", 10) // 2 bytes each
	text, cut := Truncate(input, 5)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if len(text) != 4 {
		t.Fatalf("expected backtrack to 4 bytes, got %d", len(text))
	}
	if strings.Contains(text, "�") {
		t.Fatalf("truncation produced an invalid rune")
	}
}

func TestTruncateKeepsPrefixAfterInvalidByte(t *testing.T) {
	input := "abcde\xff" + strings.Repeat("x", 200)
	text, cut := Truncate(input, 100)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if text != input[:100] {
		t.Fatalf("expected the full 100-byte prefix, kept %d bytes: %q", len(text), text)
	}
}

func TestTruncateDropsSplitMultiByteRune(t *testing.T) {
	// 4-byte rune cut after its second byte.
	input := strings.Repeat("a", 6) + "\U0001F600"
	text, cut := Truncate(input, 8)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if text != strings.Repeat("a", 6) {
		t.Fatalf("expected the partial rune dropped, got %q", text)
	}
}

func TestTruncateKeepsTrailingInvalidBytes(t *testing.T) {
	// Stray continuation bytes at the boundary belong to no rune in the
	// input and stay in place.
	input := "ab\x80\x80xx"
	text, cut := Truncate(input, 4)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if text != "ab\x80\x80" {
		t.Fatalf("expected the raw 4-byte prefix, got %q", text)
	}
}

func TestBuildDiagnosticWithBothInputs(t *testing.T) {
	got := BuildDiagnostic("os: linux", "no sound")

	for _, want := range []string{
		"expert PC diagnostic AI",
		"System Information (raw text):\n---\nos: linux\n---",
		"Problem Description:\n---\nno sound\n---",
		`"confidenceScore"`,
		"generate the JSON output as described above",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "TRUNCATED") {
		t.Fatalf("short input must not be marked truncated")
	}
}

func TestBuildDiagnosticBlankInputs(t *testing.T) {
	got := BuildDiagnostic("  ", "")
	if !strings.Contains(got, "System Information: Not provided or empty.") {
		t.Fatalf("missing system info sentinel")
	}
	if !strings.Contains(got, "Problem Description: Not provided.") {
		t.Fatalf("missing problem sentinel")
	}
}

func TestBuildDiagnosticTruncatesSystemInfo(t *testing.T) {
	got := BuildDiagnostic(strings.Repeat("x", SystemInfoCap+100), "p")
	if !strings.Contains(got, "[...SYSTEM INFO TRUNCATED DUE TO LENGTH...]") {
		t.Fatalf("missing truncation marker")
	}
}

func TestBuildDiagnosticDeterministic(t *testing.T) {
	first := BuildDiagnostic("info", "problem")
	second := BuildDiagnostic("info", "problem")
	if first != second {
		t.Fatalf("prompt builder must be pure")
	}
}

func TestBuildChatContext(t *testing.T) {
	rep := &schemas.AIReport{Summary: "Disk almost full.", ConfidenceScore: 0.8}
	history := []schemas.ChatMessage{
		{Role: schemas.ChatRoleUser, Parts: []schemas.ChatMessagePart{{Text: "which disk?"}}},
		{Role: schemas.ChatRoleModel, Parts: []schemas.ChatMessagePart{{Text: "The C: drive."}, {Text: "It is 95% used."}}},
	}

	got := BuildChatContext("disk: 95%", rep, history, "how do I free space?")

	for _, want := range []string{
		"Diagnostic Assistant",
		"System Information:\n---\ndisk: 95%\n---",
		"Disk almost full.",
		"User: which disk?",
		"Assistant: The C: drive.\nIt is 95% used.",
		"Current User Message:\nUser: how do I free space?",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("chat prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(got, "Assistant Response:\n") {
		t.Fatalf("chat prompt must end with the response cue")
	}
}

func TestBuildChatContextTruncates(t *testing.T) {
	rep := &schemas.AIReport{Summary: strings.Repeat("r", ChatReportCap+100)}
	got := BuildChatContext(strings.Repeat("s", ChatSystemInfoCap+100), rep, nil, "q")

	if !strings.Contains(got, "[...SYSTEM INFO TRUNCATED...]") {
		t.Fatalf("missing system info truncation marker")
	}
	if !strings.Contains(got, "[...REPORT TRUNCATED...]") {
		t.Fatalf("missing report truncation marker")
	}
}

func TestBuildChatContextEmptyHistory(t *testing.T) {
	rep := &schemas.AIReport{Summary: "ok"}
	got := BuildChatContext("info", rep, nil, "hello")
	if !strings.Contains(got, "Conversation History (if any):\n") {
		t.Fatalf("history section missing")
	}
}
