// Package tui provides the terminal user interface for Triad's run command.
//
// The TUI is a read-only live view of a delegation session: the current
// phase, the iteration count against the budget, the outstanding
// delegation, and an activity log of recent events. Users can only quit
// with 'q' or Ctrl+C.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/triadworks/triad/internal/orchestrator"
	"github.com/triadworks/triad/pkg/models"
)

// SessionEventMsg wraps an orchestration loop event for the TUI.
type SessionEventMsg struct {
	Event orchestrator.LoopEvent
}

// SessionDoneMsg signals that the session loop has returned.
type SessionDoneMsg struct {
	Finish *models.FinishAction
	Err    error
}

// logEntry is one line in the activity log.
type logEntry struct {
	timestamp time.Time
	label     string
	message   string
}

// SessionApp is the bubbletea model for a live delegation session.
type SessionApp struct {
	goal          string
	maxIterations int

	phase     orchestrator.Phase
	iteration int
	pending   models.Role

	logs []logEntry

	spinner  spinner.Model
	width    int
	done     bool
	finish   *models.FinishAction
	err      error
	quitting bool

	headerStyle  lipgloss.Style
	labelStyle   lipgloss.Style
	valueStyle   lipgloss.Style
	logTimeStyle lipgloss.Style
	logTagStyle  lipgloss.Style
	doneStyle    lipgloss.Style
	failStyle    lipgloss.Style
	footerStyle  lipgloss.Style
}

// NewSessionApp creates the model for a session over the given goal.
func NewSessionApp(goal string, maxIterations int) *SessionApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &SessionApp{
		goal:          goal,
		maxIterations: maxIterations,
		phase:         orchestrator.PhaseAwaitingStudy,
		spinner:       sp,
		width:         80,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logTagStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Width(10),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("28")).
			Bold(true).
			Padding(0, 1),

		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("124")).
			Bold(true).
			Padding(0, 1),

		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init implements tea.Model.
func (a *SessionApp) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *SessionApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case SessionEventMsg:
		a.applyEvent(msg.Event)

	case SessionDoneMsg:
		a.done = true
		a.finish = msg.Finish
		a.err = msg.Err
		// Keep the final state on screen until the user quits
	}

	return a, nil
}

// applyEvent folds a loop event into the display state.
func (a *SessionApp) applyEvent(ev orchestrator.LoopEvent) {
	a.phase = ev.Phase
	a.iteration = ev.Iteration

	label := ""
	switch ev.Type {
	case orchestrator.LoopDelegated:
		a.pending = ev.Role
		label = "delegate"
	case orchestrator.LoopObserved:
		a.pending = ""
		label = "observe"
	case orchestrator.LoopFinished:
		a.pending = ""
		label = "finish"
	}

	a.logs = append(a.logs, logEntry{
		timestamp: ev.Timestamp,
		label:     label,
		message:   ev.Message,
	})
}

// View implements tea.Model.
func (a *SessionApp) View() string {
	if a.quitting {
		return "Session view closed.\n"
	}

	var b strings.Builder

	b.WriteString(a.headerStyle.Render("=== Triad Session ==="))
	b.WriteString("\n\n")

	b.WriteString(a.labelStyle.Render("Goal"))
	b.WriteString(a.valueStyle.Render(truncate(a.goal, a.width-14)))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Phase"))
	b.WriteString(a.valueStyle.Render(phaseLabel(a.phase)))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Iteration"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d/%d", a.iteration, a.maxIterations)))
	b.WriteString("\n")

	if !a.done && a.pending != "" {
		b.WriteString(a.labelStyle.Render("Working"))
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
		b.WriteString(a.valueStyle.Render(string(a.pending)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderLogs())
	b.WriteString("\n")

	switch {
	case a.done && a.err != nil:
		b.WriteString(a.failStyle.Render(fmt.Sprintf("Error: %v", a.err)))
		b.WriteString(a.footerStyle.Render("  press q to exit"))
	case a.done && a.finish != nil && a.finish.Completed:
		b.WriteString(a.doneStyle.Render("Completed: " + truncate(a.finish.Summary, a.width-16)))
		b.WriteString(a.footerStyle.Render("  press q to exit"))
	case a.done && a.finish != nil:
		b.WriteString(a.failStyle.Render(string(a.finish.Reason) + ": " + truncate(a.finish.Summary, a.width-24)))
		b.WriteString(a.footerStyle.Render("  press q to exit"))
	default:
		b.WriteString(a.footerStyle.Render("Press q to stop watching"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderLogs renders the last few activity log entries.
func (a *SessionApp) renderLogs() string {
	if len(a.logs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Render("Activity"))
	b.WriteString("\n")

	start := 0
	if len(a.logs) > 10 {
		start = len(a.logs) - 10
	}

	for _, entry := range a.logs[start:] {
		ts := a.logTimeStyle.Render(entry.timestamp.Format("15:04:05"))
		tag := a.logTagStyle.Render(entry.label)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, tag, truncate(entry.message, a.width-24)))
	}

	return b.String()
}

// phaseLabel renders a phase for humans.
func phaseLabel(p orchestrator.Phase) string {
	switch p {
	case orchestrator.PhaseAwaitingStudy:
		return "awaiting study"
	case orchestrator.PhaseAwaitingCode:
		return "awaiting code"
	case orchestrator.PhaseAwaitingVerify:
		return "awaiting verify"
	case orchestrator.PhaseDone:
		return "done"
	case orchestrator.PhaseExhausted:
		return "budget exhausted"
	default:
		return string(p)
	}
}

// truncate shortens s to max characters, counting runes so multibyte text
// is never cut mid-sequence.
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// NewSessionProgram creates a bubbletea program for a live session view.
func NewSessionProgram(goal string, maxIterations int) (*tea.Program, *SessionApp) {
	app := NewSessionApp(goal, maxIterations)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
