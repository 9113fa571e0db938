package orchestrator

import (
	"fmt"

	"github.com/triadworks/triad/pkg/models"
)

// DefaultMaxIterations bounds the Code→Verify retry cycle when no explicit
// budget is configured.
const DefaultMaxIterations = 3

// maxStudyAttempts bounds recoverable study failures: the initial attempt
// plus one retry. A second study failure is fatal.
const maxStudyAttempts = 2

// Policy decides the next action from derived state. It is a pure
// decision table: same task and state, same decision.
type Policy struct {
	// MaxIterations is the Code→Verify retry budget. Zero or negative
	// falls back to DefaultMaxIterations.
	MaxIterations int
}

// budget returns the effective iteration budget.
func (p Policy) budget() int {
	if p.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}

// Decide returns the next event for the session: a DelegateAction to hand
// to a specialist, or a FinishAction when the session is over. Decision
// priority follows the phase derived from the most recent events; the
// policy never looks further back than the reconstructed state.
func (p Policy) Decide(task models.Task, state DerivedState) (models.Event, error) {
	// Terminal results are sticky: re-stepping a finished log re-emits the
	// recorded outcome.
	if state.Finished != nil {
		return *state.Finished, nil
	}

	if state.FatalMessage != "" {
		return models.FinishAction{
			Summary:   "orchestration halted: " + state.FatalMessage,
			Completed: false,
			Reason:    models.FinishFatalError,
		}, nil
	}

	if state.StudyFailures >= maxStudyAttempts {
		return models.FinishAction{
			Summary:   fmt.Sprintf("study failed %d times; halting before code work", state.StudyFailures),
			Completed: false,
			Reason:    models.FinishFatalError,
		}, nil
	}

	switch state.Phase {
	case PhaseAwaitingStudy:
		return p.delegate(models.RoleStudy, models.Fields{
			models.FieldTask: renderTask(task),
		})

	case PhaseAwaitingCode:
		if state.Iteration >= p.budget() {
			return models.FinishAction{
				Summary: fmt.Sprintf("iteration budget (%d) exhausted without verifier approval; last feedback: %s",
					p.budget(), state.VerifierFeedback),
				Completed: false,
				Reason:    models.FinishExhausted,
			}, nil
		}
		inputs := models.Fields{
			models.FieldTask:         renderTask(task),
			models.FieldStudySummary: state.StudySummary,
		}
		if state.VerifierFeedback != "" {
			inputs[models.FieldVerifierFeedback] = state.VerifierFeedback
		}
		return p.delegate(models.RoleCode, inputs)

	case PhaseAwaitingVerify:
		return p.delegate(models.RoleVerify, models.Fields{
			models.FieldTask:         renderTask(task),
			models.FieldStudySummary: state.StudySummary,
			models.FieldDiff:         state.Diff,
		})

	case PhaseDone:
		summary := state.ApprovalNote
		if summary == "" {
			summary = "verifier approved the work"
		}
		return models.FinishAction{
			Summary:   summary,
			Completed: true,
			Reason:    models.FinishApproved,
		}, nil

	default:
		return nil, fmt.Errorf("%w: cannot decide from phase %q", ErrMalformedInputs, state.Phase)
	}
}

// delegate builds a DelegateAction after checking that every input field
// the role requires is populated. A missing field is a policy bug, not an
// external failure.
func (p Policy) delegate(role models.Role, inputs models.Fields) (models.Event, error) {
	for _, key := range role.RequiredInputs() {
		if inputs[key] == "" {
			return nil, fmt.Errorf("%w: %s delegation missing required field %q", ErrMalformedInputs, role, key)
		}
	}
	return models.DelegateAction{Role: role, Inputs: inputs}, nil
}

// renderTask flattens the task intake into the single input field handed
// to specialists.
func renderTask(t models.Task) string {
	if t.Context == "" {
		return t.Goal
	}
	return t.Goal + "\n\nContext:\n" + t.Context
}
