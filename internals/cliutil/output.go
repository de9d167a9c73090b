package cliutil

import (
	"fmt"
	"strings"

	"sysdiag/internals/schemas"
)

func PrintSubmitAccepted(response *schemas.SubmitResponse) {
	fmt.Printf("task: %s\n%s\n", response.TaskID, response.Message)
}

func PrintReport(response *schemas.ReportResponse) {
	fmt.Printf("task: %s\nstatus: %s\nsubmitted: %s\n", response.TaskID, response.Status, response.SubmittedAt)
	if response.Message != "" {
		fmt.Println(response.Message)
	}
	if response.CompletedAt != "" {
		fmt.Printf("completed: %s\n", response.CompletedAt)
	}
	if response.ErrorDetails != "" {
		fmt.Printf("error: %s\n", response.ErrorDetails)
	}
	if response.DiagnosticReport == nil {
		return
	}

	rep := response.DiagnosticReport
	fmt.Printf("\n%s\n", rep.Summary)
	for _, entry := range rep.Analysis {
		fmt.Printf("  [%s] %s: %s\n", entry.Status, entry.Component, entry.Details)
		if entry.Recommendation != "" {
			fmt.Printf("      -> %s\n", entry.Recommendation)
		}
	}
	printList("potential causes", rep.PotentialCauses)
	printList("suggested solutions", rep.SuggestedSolutions)
	fmt.Printf("confidence: %.0f%%\n", rep.ConfidenceScore*100)
	if rep.Error != "" {
		fmt.Printf("report error: %s\n", rep.Error)
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", strings.TrimSpace(item))
	}
}
