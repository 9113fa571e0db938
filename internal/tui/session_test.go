package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/triadworks/triad/internal/orchestrator"
	"github.com/triadworks/triad/pkg/models"
)

func TestSessionAppTracksEvents(t *testing.T) {
	app := NewSessionApp("fix the login bug", 3)

	model, _ := app.Update(SessionEventMsg{
		Event: orchestrator.LoopEvent{
			Type:      orchestrator.LoopDelegated,
			Role:      models.RoleStudy,
			Phase:     orchestrator.PhaseAwaitingStudy,
			Message:   "delegating to study",
			Timestamp: time.Now(),
		},
	})
	app = model.(*SessionApp)

	if app.pending != models.RoleStudy {
		t.Errorf("pending = %q, want study", app.pending)
	}
	if len(app.logs) != 1 {
		t.Fatalf("logs = %d entries, want 1", len(app.logs))
	}

	model, _ = app.Update(SessionEventMsg{
		Event: orchestrator.LoopEvent{
			Type:      orchestrator.LoopObserved,
			Role:      models.RoleStudy,
			Phase:     orchestrator.PhaseAwaitingCode,
			Message:   "study produced a brief",
			Timestamp: time.Now(),
		},
	})
	app = model.(*SessionApp)

	if app.pending != "" {
		t.Errorf("pending = %q, want cleared", app.pending)
	}
	if app.phase != orchestrator.PhaseAwaitingCode {
		t.Errorf("phase = %s, want awaiting code", app.phase)
	}
}

func TestSessionAppViewShowsFinish(t *testing.T) {
	app := NewSessionApp("fix the login bug", 3)

	model, _ := app.Update(SessionDoneMsg{
		Finish: &models.FinishAction{
			Summary:   "verifier approved the work",
			Completed: true,
			Reason:    models.FinishApproved,
		},
	})
	app = model.(*SessionApp)

	view := app.View()
	if !strings.Contains(view, "Completed") {
		t.Errorf("view should show completion banner:\n%s", view)
	}
	if !strings.Contains(view, "verifier approved the work") {
		t.Errorf("view should show the finish summary:\n%s", view)
	}
}

func TestSessionAppViewShowsFailure(t *testing.T) {
	app := NewSessionApp("fix the login bug", 3)

	model, _ := app.Update(SessionDoneMsg{
		Finish: &models.FinishAction{
			Summary:   "iteration budget of 3 exhausted",
			Completed: false,
			Reason:    models.FinishExhausted,
		},
	})
	app = model.(*SessionApp)

	view := app.View()
	if !strings.Contains(view, string(models.FinishExhausted)) {
		t.Errorf("view should name the finish reason:\n%s", view)
	}
}

func TestSessionAppQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		app := NewSessionApp("goal", 3)

		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}

		model, cmd := app.Update(msg)
		app = model.(*SessionApp)

		if !app.quitting {
			t.Errorf("key %q should set quitting", key)
		}
		if cmd == nil {
			t.Errorf("key %q should return tea.Quit", key)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this line is definitely too long", 10, "this li..."},
		{"héllo wörld, this is über long", 10, "héllo w..."},
		{"日本語のとても長い目標の説明です", 10, "日本語のとても..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
