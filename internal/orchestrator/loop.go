package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/triadworks/triad/internal/eventlog"
	"github.com/triadworks/triad/pkg/models"
)

// Executor performs a delegation against a specialist agent. It must
// return exactly one observation event for the action: a
// DelegateObservation on a normal outcome, or an ErrorObservation when the
// execution environment itself failed. Timeouts and API errors surface as
// observations, not as Go errors; a returned error aborts the session.
type Executor interface {
	Execute(ctx context.Context, task models.Task, action models.DelegateAction) (models.Event, error)
}

// ErrStopped is returned by Session.Run when a stop signal interrupts the
// loop between delegations.
var ErrStopped = errors.New("session stopped by signal")

// LoopEventType identifies a session loop progress event.
type LoopEventType string

const (
	// LoopDelegated fires after an action is appended, before execution.
	LoopDelegated LoopEventType = "delegated"
	// LoopObserved fires after an observation is appended.
	LoopObserved LoopEventType = "observed"
	// LoopFinished fires when the terminal event is appended.
	LoopFinished LoopEventType = "finished"
)

// LoopEvent is a progress update emitted while a session runs. These feed
// the CLI and TUI; they carry derived display state, never authoritative
// state.
type LoopEvent struct {
	// Type is the kind of progress made.
	Type LoopEventType
	// Role is the specialist involved, for delegated/observed events.
	Role models.Role
	// Phase is the derived phase after the event.
	Phase Phase
	// Iteration is the derived iteration count after the event.
	Iteration int
	// Message is a short human-readable description.
	Message string
	// Finish carries the terminal event for LoopFinished.
	Finish *models.FinishAction
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// LoopCallback is called when loop progress events occur.
type LoopCallback func(LoopEvent)

// stepBound sizes the safety valve on the step loop from the iteration
// budget. The policy already guarantees termination through the budget;
// the valve exists so a misbehaving executor cannot spin the loop forever,
// and must sit above the number of steps a full budget can legally take.
func stepBound(maxIterations int) int {
	return 4*maxIterations + 8
}

// Session drives a controller from intake to its terminal event: step the
// controller, append and execute the returned action, append the
// observation, repeat. The session owns no orchestration state; it only
// shuttles events between the controller, the executor, and the log.
type Session struct {
	controller *Controller
	log        eventlog.Log
	executor   Executor
	onEvent    LoopCallback
	stopCheck  func() bool
	maxSteps   int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCallback sets a callback for loop progress events.
func WithCallback(cb LoopCallback) SessionOption {
	return func(s *Session) { s.onEvent = cb }
}

// WithStopCheck sets a predicate polled between steps; when it reports
// true the session returns ErrStopped without delegating further.
func WithStopCheck(fn func() bool) SessionOption {
	return func(s *Session) { s.stopCheck = fn }
}

// WithMaxSteps overrides the safety bound on loop steps.
func WithMaxSteps(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// NewSession creates a session loop over the given controller, log, and
// executor.
func NewSession(controller *Controller, log eventlog.Log, executor Executor, opts ...SessionOption) *Session {
	s := &Session{
		controller: controller,
		log:        log,
		executor:   executor,
		maxSteps:   stepBound(controller.MaxIterations()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the loop until the controller emits a terminal event. The
// finish is appended to the log before it is returned, so a resumed
// session sees the recorded outcome instead of re-delegating.
func (s *Session) Run(ctx context.Context) (*models.FinishAction, error) {
	for step := 0; step < s.maxSteps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if s.stopCheck != nil && s.stopCheck() {
			return nil, ErrStopped
		}

		switch next := s.controller.Step(s.log).(type) {
		case models.FinishAction:
			if _, err := s.log.Append(next); err != nil {
				return nil, fmt.Errorf("append finish: %w", err)
			}
			s.emit(LoopEvent{
				Type:    LoopFinished,
				Message: next.Summary,
				Finish:  &next,
			})
			return &next, nil

		case models.DelegateAction:
			if _, err := s.log.Append(next); err != nil {
				return nil, fmt.Errorf("append action: %w", err)
			}
			s.emit(LoopEvent{
				Type:    LoopDelegated,
				Role:    next.Role,
				Message: fmt.Sprintf("delegating to %s", next.Role),
			})

			obs, err := s.executor.Execute(ctx, s.controller.Task(), next)
			if err != nil {
				if ctx.Err() != nil {
					// Pair the dangling action before returning so a resumed
					// session retries the delegation instead of halting on an
					// unanswered action.
					if _, appendErr := s.log.Append(interruptedObservation(next.Role)); appendErr != nil {
						return nil, errors.Join(ctx.Err(), fmt.Errorf("append interrupt observation: %w", appendErr))
					}
					return nil, ctx.Err()
				}
				obs = models.ErrorObservation{Message: err.Error(), Recoverable: false}
			}
			obs = normalizeObservation(obs)

			if _, err := s.log.Append(obs); err != nil {
				return nil, fmt.Errorf("append observation: %w", err)
			}
			s.emit(LoopEvent{
				Type:    LoopObserved,
				Role:    next.Role,
				Message: describeObservation(next.Role, obs),
			})

		default:
			return nil, fmt.Errorf("controller returned unexpected event kind %s", next.Kind())
		}
	}

	return nil, fmt.Errorf("session exceeded %d steps without finishing", s.maxSteps)
}

// ReconcileInterrupted pairs a delegation left unanswered by an earlier
// process, such as one killed mid-call, with a recoverable error
// observation. Resuming a log with a dangling action would otherwise halt
// as a pairing violation.
func ReconcileInterrupted(log eventlog.Log) error {
	events, err := log.Events()
	if err != nil {
		return fmt.Errorf("read event log: %w", err)
	}
	state, err := Reconstruct(events)
	if err != nil {
		return err
	}
	if state.Pending == nil {
		return nil
	}
	if _, err := log.Append(interruptedObservation(state.Pending.Role)); err != nil {
		return fmt.Errorf("append interrupt observation: %w", err)
	}
	return nil
}

// interruptedObservation is the recoverable observation recorded for a
// delegation that was cut off before it produced a result.
func interruptedObservation(role models.Role) models.ErrorObservation {
	return models.ErrorObservation{
		Message:     fmt.Sprintf("delegation to %s was interrupted before it finished", role),
		Recoverable: true,
	}
}

// emit decorates the event with derived display state and invokes the
// callback, if configured.
func (s *Session) emit(ev LoopEvent) {
	if s.onEvent == nil {
		return
	}
	ev.Timestamp = time.Now()
	if events, err := s.log.Events(); err == nil {
		if state, err := Reconstruct(events); err == nil {
			ev.Phase = state.Phase
			ev.Iteration = state.Iteration
		}
	}
	s.onEvent(ev)
}

// normalizeObservation guards the executor contract: anything that is not
// an observation event becomes an unrecoverable error observation.
func normalizeObservation(e models.Event) models.Event {
	switch e.(type) {
	case models.DelegateObservation, models.ErrorObservation:
		return e
	default:
		return models.ErrorObservation{
			Message:     fmt.Sprintf("executor returned %s instead of an observation", e.Kind()),
			Recoverable: false,
		}
	}
}

// describeObservation renders a short progress message for an observation.
func describeObservation(role models.Role, e models.Event) string {
	switch obs := e.(type) {
	case models.DelegateObservation:
		if obs.Status == models.StatusSuccess {
			if role == models.RoleVerify && !obs.Outputs.Bool(models.FieldApproved) {
				return fmt.Sprintf("%s rejected the work: %s", role, obs.Outputs[models.FieldFeedback])
			}
			return fmt.Sprintf("%s succeeded", role)
		}
		return fmt.Sprintf("%s failed: %s", role, obs.Outputs[models.FieldFeedback])
	case models.ErrorObservation:
		return fmt.Sprintf("%s errored: %s", role, obs.Message)
	default:
		return string(e.Kind())
	}
}
