package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triadworks/triad/internal/config"
	"github.com/triadworks/triad/internal/eventlog"
	"github.com/triadworks/triad/internal/orchestrator"
	"github.com/triadworks/triad/internal/runner"
	"github.com/triadworks/triad/pkg/models"
)

var (
	runMaxIterations int
	runHeadless      bool
	runResume        string
	runTaskContext   string
	runModel         string
	runPromptsFile   string
	runBedrock       bool
	runAWSRegion     string
	runAWSProfile    string
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Run a task through the study/code/verify cycle",
	Long: `Run a task through the full delegation cycle.

The study specialist researches the goal, the code specialist produces
the change, and the verify specialist reviews it. A rejection sends the
reviewer's feedback back to the code specialist for another attempt,
up to the iteration budget.

Every delegation and result is appended to the session's event log in
.triad/sessions.db. Interrupted sessions keep their log and can be
picked up again with --resume.

Examples:
  triad run "add pagination to the users endpoint"
  triad run "fix the login bug" --context "login lives in internal/auth"
  triad run --resume 2f1c9a...   # continue an interrupted session
  triad run "refactor the cache" --max-iterations 5 --headless`,
	Args: cobra.ArbitraryArgs,
	RunE: runTask,
}

func init() {
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Verify/code retry budget (0 uses the configured default)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the TUI, printing progress to stdout")
	runCmd.Flags().StringVar(&runResume, "resume", "", "Resume an existing session by ID")
	runCmd.Flags().StringVar(&runTaskContext, "context", "", "Extra context handed to every specialist")
	runCmd.Flags().StringVar(&runModel, "model", "", "Claude model to use (overrides config)")
	runCmd.Flags().StringVar(&runPromptsFile, "prompts", "", "YAML file with specialist prompt overrides")
	runCmd.Flags().BoolVar(&runBedrock, "bedrock", false, "Use AWS Bedrock instead of the Anthropic API")
	runCmd.Flags().StringVar(&runAWSRegion, "aws-region", "", "AWS region for Bedrock")
	runCmd.Flags().StringVar(&runAWSProfile, "aws-profile", "", "AWS profile for Bedrock")
}

func runTask(cmd *cobra.Command, args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))
	if runResume == "" && goal == "" {
		return fmt.Errorf("a goal is required unless --resume is given")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	store, err := eventlog.OpenProject(cwd)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate session store: %w", err)
	}

	var sess *eventlog.Session
	if runResume != "" {
		sess, err = store.GetSession(runResume)
		if err != nil {
			return fmt.Errorf("resume session %s: %w", runResume, err)
		}
		// A previous process may have died mid-delegation; pair any
		// dangling action before the loop reads the log.
		if err := orchestrator.ReconcileInterrupted(store.Log(sess.ID)); err != nil {
			return fmt.Errorf("reconcile session %s: %w", sess.ID, err)
		}
	} else {
		sess, err = store.CreateSession(models.Task{Goal: goal, Context: runTaskContext})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
	}

	exec, err := buildExecutor(cfg)
	if err != nil {
		return err
	}

	maxIterations := resolveMaxIterations(runMaxIterations, cfg)

	dbg := orchestrator.NewDebugLoggerForProject(cwd)
	defer dbg.Close()

	ctrl := orchestrator.New(sess.Task(),
		orchestrator.WithMaxIterations(maxIterations),
		orchestrator.WithLogger(dbg),
	)

	watcher, err := runner.NewSignalWatcher(cwd)
	if err != nil {
		return fmt.Errorf("start signal watcher: %w", err)
	}
	defer watcher.Close()
	watcher.Clear()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessionLog := store.Log(sess.ID)

	var finish *models.FinishAction
	var runErr error
	if runHeadless {
		finish, runErr = runHeadlessSession(ctx, ctrl, sessionLog, exec, watcher, sess.ID)
		if u := exec.Usage(); u.Calls > 0 {
			fmt.Printf("\nAPI usage: %d calls, %d in / %d out tokens (~$%.2f)\n",
				u.Calls, u.InputTokens, u.OutputTokens, u.Cost())
		}
	} else {
		finish, runErr = runWithTUI(ctx, ctrl, sessionLog, exec, watcher, sess, maxIterations)
	}

	// Interrupted sessions stay active so --resume can pick them up
	switch {
	case finish != nil && finish.Completed:
		runErr = errors.Join(runErr, store.UpdateSessionStatus(sess.ID, eventlog.SessionCompleted))
	case finish != nil:
		runErr = errors.Join(runErr, store.UpdateSessionStatus(sess.ID, eventlog.SessionFailed))
	}

	if runErr != nil {
		return runErr
	}
	if finish != nil && !finish.Completed {
		return fmt.Errorf("session %s did not complete: %s", sess.ID, finish.Summary)
	}
	return nil
}

// buildExecutor wires the API client and prompt set into an executor.
func buildExecutor(cfg *config.Config) (*runner.Runner, error) {
	useBedrock := runBedrock || cfg.Bedrock.Enabled
	region := runAWSRegion
	if region == "" {
		region = cfg.Bedrock.Region
	}
	profile := runAWSProfile
	if profile == "" {
		profile = cfg.Bedrock.Profile
	}
	model := runModel
	if model == "" {
		model = cfg.Defaults.Model
	}

	var apiKey string
	if !useBedrock {
		key, _, err := cfg.ResolveAPIKey()
		if err != nil {
			return nil, fmt.Errorf("%w\n\nSet ANTHROPIC_API_KEY or run 'triad config anthropic.api_key <key>'", err)
		}
		apiKey = key
	}

	client, err := runner.NewClient(runner.ClientConfig{
		Model:         anthropic.Model(model),
		APIKey:        apiKey,
		UseAWSBedrock: useBedrock,
		AWSRegion:     region,
		AWSProfile:    profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}

	promptsFile := runPromptsFile
	if promptsFile == "" {
		promptsFile = cfg.Defaults.PromptsFile
	}
	prompts := runner.DefaultPrompts()
	if promptsFile != "" {
		prompts, err = runner.LoadPrompts(promptsFile)
		if err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
	}

	return runner.NewRunner(client, runner.WithPrompts(prompts)), nil
}

// resolveMaxIterations applies flag > config > built-in default precedence.
func resolveMaxIterations(flagValue int, cfg *config.Config) int {
	if flagValue > 0 {
		return flagValue
	}
	if cfg != nil && cfg.Defaults.MaxIterations > 0 {
		return cfg.Defaults.MaxIterations
	}
	return orchestrator.DefaultMaxIterations
}

// runHeadlessSession runs the loop printing progress lines to stdout.
func runHeadlessSession(ctx context.Context, ctrl *orchestrator.Controller, log eventlog.Log, exec orchestrator.Executor, watcher *runner.SignalWatcher, sessionID string) (*models.FinishAction, error) {
	fmt.Printf("Session %s\n\n", sessionID)

	loop := orchestrator.NewSession(ctrl, log, exec,
		orchestrator.WithCallback(printLoopEvent),
		orchestrator.WithStopCheck(watcher.ShouldStop),
	)

	finish, err := loop.Run(ctx)
	if errors.Is(err, orchestrator.ErrStopped) || errors.Is(err, context.Canceled) {
		color.Yellow("\nSession interrupted. Resume with: triad run --resume %s", sessionID)
		return finish, nil
	}
	if err != nil {
		return finish, err
	}

	fmt.Println()
	if finish != nil && finish.Completed {
		color.Green("✓ %s", finish.Summary)
	} else if finish != nil {
		color.Red("✗ [%s] %s", finish.Reason, finish.Summary)
	}
	return finish, nil
}

// printLoopEvent renders one progress line per loop event.
func printLoopEvent(ev orchestrator.LoopEvent) {
	ts := ev.Timestamp.Format("15:04:05")
	switch ev.Type {
	case orchestrator.LoopDelegated:
		color.Cyan("%s  %s", ts, ev.Message)
	case orchestrator.LoopObserved:
		fmt.Printf("%s  %s\n", ts, ev.Message)
	case orchestrator.LoopFinished:
		fmt.Printf("%s  %s\n", ts, ev.Message)
	}
}
