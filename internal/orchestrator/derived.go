package orchestrator

import (
	"fmt"

	"github.com/triadworks/triad/pkg/models"
)

// DerivedState is everything the orchestrator knows about a session,
// recomputed from the event log on every step. It is never persisted, so
// log and state cannot diverge.
type DerivedState struct {
	// Phase is the current position in the state machine.
	Phase Phase
	// Iteration counts completed Code→Verify cycles. Monotonically
	// non-decreasing; the policy bounds it.
	Iteration int
	// StudySummary is the last successful study output. Set at most once
	// per session unless a re-study delegation was appended.
	StudySummary string
	// VerifierFeedback is the latest rejection or failure feedback, empty
	// until the first failed cycle.
	VerifierFeedback string
	// Diff is the most recent successful code output, handed to the
	// verifier.
	Diff string
	// ApprovalNote is the verifier's comment on the approved work.
	ApprovalNote string
	// StudyFailures counts failed study delegations.
	StudyFailures int
	// Pending is the outstanding delegation, if the last action has no
	// matching observation yet.
	Pending *models.DelegateAction
	// Finished is the terminal event, if one was appended.
	Finished *models.FinishAction
	// FatalMessage is set when an unrecoverable execution error was
	// observed; the policy turns it into a fatal finish.
	FatalMessage string
}

// Reconstruct scans the event log in order and derives the current state.
// It is deterministic and idempotent: replaying the same log always yields
// the same state. Any pairing violation aborts reconstruction with
// ErrInvalidPairing; the orchestrator must never act on an inconsistent
// history.
func Reconstruct(events []models.Event) (DerivedState, error) {
	state := DerivedState{Phase: PhaseAwaitingStudy}

	for i, e := range events {
		if state.Finished != nil {
			return DerivedState{}, fmt.Errorf("%w: event %d follows a finish action", ErrInvalidPairing, i)
		}

		switch ev := e.(type) {
		case models.DelegateAction:
			if state.Pending != nil {
				return DerivedState{}, fmt.Errorf("%w: delegation to %s issued while %s is outstanding (event %d)",
					ErrInvalidPairing, ev.Role, state.Pending.Role, i)
			}
			if !ev.Role.Valid() {
				return DerivedState{}, fmt.Errorf("%w: unknown role %q (event %d)", ErrInvalidPairing, ev.Role, i)
			}
			action := ev
			state.Pending = &action

		case models.FinishAction:
			fin := ev
			state.Finished = &fin
			switch {
			case fin.Completed:
				state.Phase = PhaseDone
			case fin.Reason == models.FinishExhausted:
				state.Phase = PhaseExhausted
			}

		case models.DelegateObservation:
			if state.Pending == nil {
				return DerivedState{}, fmt.Errorf("%w: %s observation with no delegation outstanding (event %d)",
					ErrInvalidPairing, ev.Role, i)
			}
			if ev.Role != state.Pending.Role {
				return DerivedState{}, fmt.Errorf("%w: observation role %s does not match pending delegation to %s (event %d)",
					ErrInvalidPairing, ev.Role, state.Pending.Role, i)
			}
			state.Pending = nil
			state.applyObservation(ev)

		case models.ErrorObservation:
			if state.Pending == nil {
				return DerivedState{}, fmt.Errorf("%w: error observation with no delegation outstanding (event %d)",
					ErrInvalidPairing, i)
			}
			role := state.Pending.Role
			state.Pending = nil
			if ev.Recoverable {
				state.applyFailure(role, ev.Message)
			} else {
				state.FatalMessage = ev.Message
			}

		default:
			return DerivedState{}, fmt.Errorf("%w: unexpected event type %T (event %d)", ErrInvalidPairing, e, i)
		}
	}

	return state, nil
}

// applyObservation folds a successfully paired observation into the state.
func (s *DerivedState) applyObservation(obs models.DelegateObservation) {
	if obs.Status != models.StatusSuccess {
		s.applyFailure(obs.Role, obs.Outputs[models.FieldFeedback])
		return
	}

	switch obs.Role {
	case models.RoleStudy:
		s.StudySummary = obs.Outputs[models.FieldSummary]
		s.Phase = PhaseAwaitingCode
	case models.RoleCode:
		s.Diff = obs.Outputs[models.FieldDiff]
		s.Phase = PhaseAwaitingVerify
	case models.RoleVerify:
		if obs.Outputs.Bool(models.FieldApproved) {
			s.ApprovalNote = obs.Outputs[models.FieldFeedback]
			s.Phase = PhaseDone
			return
		}
		s.applyFailure(models.RoleVerify, obs.Outputs[models.FieldFeedback])
	}
}

// applyFailure routes a failed delegation. Study failures restart the
// study phase; code and verify failures open the retry cycle: the
// iteration counter advances and the phase returns to code.
func (s *DerivedState) applyFailure(role models.Role, feedback string) {
	if feedback == "" {
		feedback = fmt.Sprintf("%s delegation failed", role)
	}

	if role == models.RoleStudy {
		s.StudyFailures++
		s.Phase = PhaseAwaitingStudy
		return
	}

	s.Iteration++
	s.VerifierFeedback = feedback
	s.Phase = PhaseAwaitingCode
}
