package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triadworks/triad/internal/eventlog"
	"github.com/triadworks/triad/internal/orchestrator"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show delegation sessions",
	Long: `Display the sessions recorded in this project's store.

For each session the phase is derived by replaying its event log, so the
output always reflects what actually happened rather than a cached state.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	storePath := eventlog.ProjectStorePath(cwd)
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		fmt.Println("No sessions yet. Run 'triad run <goal>' to start.")
		return nil
	}

	store, err := eventlog.Open(storePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate session store: %w", err)
	}

	sessions, err := store.ListSessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet. Run 'triad run <goal>' to start.")
		return nil
	}

	for _, sess := range sessions {
		displaySession(store, sess)
	}
	return nil
}

func displaySession(store *eventlog.Store, sess eventlog.Session) {
	fmt.Printf("%s  %s\n", statusBadge(sess.Status), sess.ID)
	fmt.Printf("  Goal:    %s\n", truncateGoal(sess.Goal))
	fmt.Printf("  Started: %s ago\n", formatDuration(time.Since(sess.CreatedAt)))

	events, err := store.Log(sess.ID).Events()
	if err != nil {
		fmt.Printf("  Phase:   (unreadable log: %v)\n", err)
		fmt.Println()
		return
	}

	state, err := orchestrator.Reconstruct(events)
	if err != nil {
		fmt.Printf("  Phase:   (corrupt log: %v)\n", err)
		fmt.Println()
		return
	}

	fmt.Printf("  Phase:   %s\n", state.Phase)
	fmt.Printf("  Events:  %d, iteration %d\n", len(events), state.Iteration)
	if state.Finished != nil {
		fmt.Printf("  Result:  [%s] %s\n", state.Finished.Reason, truncateGoal(state.Finished.Summary))
	} else if sess.Status == eventlog.SessionActive {
		fmt.Printf("  Resume:  triad run --resume %s\n", sess.ID)
	}
	fmt.Println()
}

func statusBadge(status eventlog.SessionStatus) string {
	switch status {
	case eventlog.SessionCompleted:
		return color.GreenString("✓ completed")
	case eventlog.SessionFailed:
		return color.RedString("✗ failed   ")
	default:
		return color.YellowString("● active   ")
	}
}

func truncateGoal(s string) string {
	const max = 72
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
