// Package tui holds the interactive terminal frontends: a submit form and a
// live watcher that polls a task until its report lands.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sysdiag/internals/schemas"
	"sysdiag/internals/timeouts"
	"sysdiag/sdk"
)

// Run shows the submit form, sends the submission and hands off to the
// watcher.
func Run(client *sdk.Client) error {
	problem, sysinfoPath, submitted, err := runSubmitForm()
	if err != nil {
		return err
	}
	if !submitted {
		return nil
	}

	request := schemas.SubmitRequest{ProblemDescription: problem}
	if sysinfoPath != "" {
		data, err := os.ReadFile(sysinfoPath)
		if err != nil {
			return fmt.Errorf("failed to read sysinfo file: %w", err)
		}
		request.SystemInfoText = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondDefault)
	defer cancel()
	response, err := client.SubmitDiagnostic(ctx, request)
	if err != nil {
		return err
	}
	fmt.Printf("task: %s\n", response.TaskID)

	return Watch(client, response.TaskID)
}

// Watch polls one task with a spinner until it reaches a terminal state, then
// renders the report.
func Watch(client *sdk.Client, taskID string) error {
	model := newWatchModel(client, taskID)
	program := tea.NewProgram(model)
	result, err := program.Run()
	if err != nil {
		return err
	}
	final, ok := result.(watchModel)
	if !ok {
		return nil
	}
	if final.err != nil {
		return final.err
	}
	if final.report != nil {
		fmt.Println(renderReport(final.report))
	}
	return nil
}

type submitModel struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
}

func runSubmitForm() (string, string, bool, error) {
	model := newSubmitModel()
	program := tea.NewProgram(model)
	result, err := program.Run()
	if err != nil {
		return "", "", false, err
	}
	finalModel, ok := result.(submitModel)
	if !ok {
		return "", "", false, nil
	}
	if finalModel.cancelled || !finalModel.submitted {
		return "", "", false, nil
	}
	problem := strings.TrimSpace(finalModel.inputs[0].Value())
	sysinfoPath := strings.TrimSpace(finalModel.inputs[1].Value())
	return problem, sysinfoPath, true, nil
}

func newSubmitModel() submitModel {
	problem := textinput.New()
	problem.Prompt = "Problem description: "

	sysinfo := textinput.New()
	sysinfo.Prompt = "System info file (optional): "

	inputs := []textinput.Model{problem, sysinfo}
	inputs[0].Focus()
	return submitModel{inputs: inputs}
}

func (m submitModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m submitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab":
			return m.moveFocus(1)
		case "shift+tab":
			return m.moveFocus(-1)
		case "enter":
			if m.focus == len(m.inputs)-1 {
				m.submitted = true
				return m, tea.Quit
			}
			return m.moveFocus(1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m submitModel) View() string {
	lines := []string{"New diagnostic", ""}
	for i, input := range m.inputs {
		marker := " "
		if i == m.focus {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, input.View()))
	}
	lines = append(lines, "", "Tab: next field  Enter: submit  Ctrl+C: cancel")
	return strings.Join(lines, "\n")
}

func (m submitModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	m.inputs[m.focus].Blur()
	count := len(m.inputs)
	m.focus = (m.focus + delta + count) % count
	return m, m.inputs[m.focus].Focus()
}

type pollResultMsg struct {
	response *schemas.ReportResponse
	err      error
}

type pollTickMsg struct{}

type watchModel struct {
	client  *sdk.Client
	taskID  string
	spinner spinner.Model
	status  schemas.TaskStatus
	report  *schemas.ReportResponse
	err     error
}

func newWatchModel(client *sdk.Client, taskID string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return watchModel{
		client:  client,
		taskID:  taskID,
		spinner: s,
		status:  schemas.TaskStatusPending,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m watchModel) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
		defer cancel()
		response, err := m.client.GetDiagnosticReport(ctx, m.taskID)
		return pollResultMsg{response: response, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
	case pollResultMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.status = msg.response.Status
		if msg.response.Status.Terminal() {
			m.report = msg.response
			return m, tea.Quit
		}
		return m, tea.Tick(timeouts.PollInterval, func(time.Time) tea.Msg {
			return pollTickMsg{}
		})
	case pollTickMsg:
		return m, m.poll()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.report != nil || m.err != nil {
		return ""
	}
	return fmt.Sprintf("%s %s  (%s)  q: quit\n", m.spinner.View(), m.taskID, m.status)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func renderReport(response *schemas.ReportResponse) string {
	var b strings.Builder
	statusStyle := okStyle
	if response.Status == schemas.TaskStatusFailed {
		statusStyle = errStyle
	}
	b.WriteString(titleStyle.Render("Diagnostic "+response.TaskID) + "  " + statusStyle.Render(string(response.Status)) + "\n")
	if response.ErrorDetails != "" {
		b.WriteString(errStyle.Render(response.ErrorDetails) + "\n")
	}
	rep := response.DiagnosticReport
	if rep == nil {
		return b.String()
	}

	b.WriteString("\n" + rep.Summary + "\n")
	if len(rep.Analysis) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Analysis") + "\n")
		for _, entry := range rep.Analysis {
			style := dimStyle
			switch strings.ToLower(entry.Status) {
			case "critical", "failed":
				style = errStyle
			case "warning":
				style = warnStyle
			case "normal":
				style = okStyle
			}
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", style.Render("["+entry.Status+"]"), entry.Component, entry.Details))
			if entry.Recommendation != "" {
				b.WriteString(dimStyle.Render("      -> "+entry.Recommendation) + "\n")
			}
		}
	}
	writeSection(&b, "Potential causes", rep.PotentialCauses)
	writeSection(&b, "Suggested solutions", rep.SuggestedSolutions)
	b.WriteString(fmt.Sprintf("\nconfidence: %.0f%%\n", rep.ConfidenceScore*100))
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  - " + strings.TrimSpace(item) + "\n")
	}
}
