package main

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/triadworks/triad/internal/eventlog"
	"github.com/triadworks/triad/internal/orchestrator"
	"github.com/triadworks/triad/internal/runner"
	"github.com/triadworks/triad/internal/tui"
	"github.com/triadworks/triad/pkg/models"
)

type sessionResult struct {
	finish *models.FinishAction
	err    error
}

// runWithTUI runs the session loop behind a live bubbletea view. The view
// stays up after the loop finishes so the user can read the result; quitting
// the view early cancels the loop.
func runWithTUI(ctx context.Context, ctrl *orchestrator.Controller, sessionLog eventlog.Log, exec orchestrator.Executor, watcher *runner.SignalWatcher, sess *eventlog.Session, maxIterations int) (*models.FinishAction, error) {
	// Log output corrupts the alt-screen display
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program, _ := tui.NewSessionProgram(sess.Goal, maxIterations)

	loop := orchestrator.NewSession(ctrl, sessionLog, exec,
		orchestrator.WithCallback(func(ev orchestrator.LoopEvent) {
			program.Send(tui.SessionEventMsg{Event: ev})
		}),
		orchestrator.WithStopCheck(watcher.ShouldStop),
	)

	results := make(chan sessionResult, 1)
	go func() {
		finish, err := loop.Run(ctx)
		program.Send(tui.SessionDoneMsg{Finish: finish, Err: err})
		results <- sessionResult{finish: finish, err: err}
	}()

	_, tuiErr := program.Run()

	// The user may quit while the loop is still delegating
	cancel()
	res := <-results

	if tuiErr != nil {
		return res.finish, tuiErr
	}
	if errors.Is(res.err, orchestrator.ErrStopped) || errors.Is(res.err, context.Canceled) {
		return res.finish, nil
	}
	return res.finish, res.err
}
