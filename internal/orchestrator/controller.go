// Package orchestrator coordinates the study, code, and verify specialist
// roles that drive a task from intake to verified completion. The
// controller is a synchronous pure step function over an append-only event
// log: all continuity comes from the log, none from the controller.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/triadworks/triad/internal/eventlog"
	"github.com/triadworks/triad/pkg/models"
)

// Controller is the public entry point. Each Step consumes the event log,
// reconstructs state, runs the policy, and returns exactly one event:
// either a DelegateAction for the caller to execute, or a FinishAction.
// No error escapes the step boundary; every condition resolves to one of
// those two shapes.
type Controller struct {
	task   models.Task
	policy Policy
	logger *DebugLogger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxIterations sets the Code→Verify retry budget.
func WithMaxIterations(n int) Option {
	return func(c *Controller) { c.policy.MaxIterations = n }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a Controller for the given task intake.
func New(task models.Task, opts ...Option) *Controller {
	c := &Controller{task: task}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Task returns the immutable task this controller orchestrates.
func (c *Controller) Task() models.Task {
	return c.task
}

// MaxIterations returns the effective Code→Verify retry budget.
func (c *Controller) MaxIterations() int {
	return c.policy.budget()
}

// Step consumes the session log and returns the next event. The controller
// performs no delegation itself; the caller executes the returned action
// and appends the resulting observation before stepping again.
func (c *Controller) Step(log eventlog.Log) models.Event {
	events, err := log.Events()
	if err != nil {
		return c.halt(fmt.Sprintf("read event log: %v", err), models.FinishFatalError)
	}

	state, err := Reconstruct(events)
	if err != nil {
		return c.halt(err.Error(), models.FinishInvalidPairing)
	}

	// Exactly one delegation may be outstanding. Stepping with an
	// unanswered action is a caller contract violation, not a cue to
	// delegate again.
	if state.Pending != nil {
		return c.halt(fmt.Sprintf("delegation to %s is outstanding; append its observation before stepping",
			state.Pending.Role), models.FinishInvalidPairing)
	}

	next, err := c.policy.Decide(c.task, state)
	if err != nil {
		reason := models.FinishFatalError
		if errors.Is(err, ErrMalformedInputs) {
			reason = models.FinishMalformedInputs
		}
		return c.halt(err.Error(), reason)
	}

	c.debugf("step: phase=%s iteration=%d -> %s", state.Phase, state.Iteration, next.Kind())
	return next
}

// halt builds the fatal terminal event for an unrecoverable condition.
func (c *Controller) halt(message string, reason models.FinishReason) models.FinishAction {
	c.debugf("halt (%s): %s", reason, message)
	return models.FinishAction{
		Summary:   "orchestration halted: " + message,
		Completed: false,
		Reason:    reason,
	}
}

// debugf writes to the debug logger when one is configured.
func (c *Controller) debugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Log(format, args...)
	}
}
