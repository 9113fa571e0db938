package models

import (
	"errors"
	"strconv"
)

// ErrEmptyGoal is returned when a task is created without a goal.
var ErrEmptyGoal = errors.New("task goal is empty")

// EventKind discriminates the members of the event union.
type EventKind string

const (
	// KindDelegateAction is a request to hand work to a specialist role.
	KindDelegateAction EventKind = "delegate_action"
	// KindFinishAction is the terminal signal that orchestration is over.
	KindFinishAction EventKind = "finish_action"
	// KindDelegateObservation is the result of executing a delegation.
	KindDelegateObservation EventKind = "delegate_observation"
	// KindErrorObservation reports an execution-environment error.
	KindErrorObservation EventKind = "error_observation"
)

// Event is one entry in the append-only session log. Events are immutable
// once appended; the log is never reordered or rewritten.
type Event interface {
	Kind() EventKind
}

// Fields is a mapping of named input or output fields attached to a
// delegation. Values are stored as strings; boolean fields use "true"/"false".
type Fields map[string]string

// Input and output field keys, per role.
const (
	// FieldTask carries the rendered task (goal plus context).
	FieldTask = "task"
	// FieldStudySummary carries the study role's findings.
	FieldStudySummary = "study_summary"
	// FieldVerifierFeedback carries the verify role's rejection feedback.
	FieldVerifierFeedback = "verifier_feedback"
	// FieldSummary is the study role's output field.
	FieldSummary = "summary"
	// FieldDiff is the code role's output field (diff or file contents).
	FieldDiff = "diff"
	// FieldApproved is the verify role's verdict ("true"/"false").
	FieldApproved = "approved"
	// FieldFeedback is the verify role's explanation of its verdict.
	FieldFeedback = "feedback"
)

// Bool reads a boolean field. Missing or malformed values read as false.
func (f Fields) Bool(key string) bool {
	v, err := strconv.ParseBool(f[key])
	return err == nil && v
}

// Clone returns a copy of the fields so callers can extend a mapping
// without mutating an event that is already in the log.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ObservationStatus reports whether a delegation succeeded.
type ObservationStatus string

const (
	// StatusSuccess indicates the specialist produced its outputs.
	StatusSuccess ObservationStatus = "success"
	// StatusFailure indicates the specialist could not complete the work.
	StatusFailure ObservationStatus = "failure"
)

// Valid returns true if the status is a known value.
func (s ObservationStatus) Valid() bool {
	return s == StatusSuccess || s == StatusFailure
}

// FinishReason explains why a FinishAction was emitted.
type FinishReason string

const (
	// FinishApproved means the verifier approved the work.
	FinishApproved FinishReason = "approved"
	// FinishExhausted means the iteration budget ran out without approval.
	FinishExhausted FinishReason = "budget_exhausted"
	// FinishInvalidPairing means the log held a mismatched or orphaned
	// observation and the orchestrator refused to continue.
	FinishInvalidPairing FinishReason = "invalid_pairing"
	// FinishMalformedInputs means the policy could not assemble the
	// required inputs for a delegation.
	FinishMalformedInputs FinishReason = "malformed_inputs"
	// FinishFatalError means an unrecoverable execution error was observed.
	FinishFatalError FinishReason = "fatal_error"
)

// Valid returns true if the reason is a known value.
func (r FinishReason) Valid() bool {
	switch r {
	case FinishApproved, FinishExhausted, FinishInvalidPairing,
		FinishMalformedInputs, FinishFatalError:
		return true
	default:
		return false
	}
}

// DelegateAction requests that a specialist role be invoked with the given
// inputs. Exactly one DelegateObservation or ErrorObservation must follow
// it in the log before another action may be issued.
type DelegateAction struct {
	// Role is the specialist to invoke.
	Role Role `json:"role"`
	// Inputs is the named-field mapping handed to the specialist.
	Inputs Fields `json:"inputs"`
}

// Kind implements Event.
func (DelegateAction) Kind() EventKind { return KindDelegateAction }

// FinishAction is the terminal event: the task is done, successfully or not.
type FinishAction struct {
	// Summary is the human-readable outcome description.
	Summary string `json:"summary"`
	// Completed is true only when the verifier approved the work.
	Completed bool `json:"completed"`
	// Reason classifies why orchestration ended.
	Reason FinishReason `json:"reason"`
}

// Kind implements Event.
func (FinishAction) Kind() EventKind { return KindFinishAction }

// DelegateObservation is the execution environment's report of what a
// delegated specialist produced.
type DelegateObservation struct {
	// Role is the specialist that was invoked. It must match the role of
	// the pending DelegateAction.
	Role Role `json:"role"`
	// Outputs is the named-field mapping the specialist returned.
	Outputs Fields `json:"outputs"`
	// Status reports whether the specialist completed its work.
	Status ObservationStatus `json:"status"`
}

// Kind implements Event.
func (DelegateObservation) Kind() EventKind { return KindDelegateObservation }

// ErrorObservation reports an execution-environment error (timeout, API
// failure, crash) in place of a regular observation.
type ErrorObservation struct {
	// Message describes the error.
	Message string `json:"message"`
	// Recoverable is true when the failure may be retried through the
	// normal feedback cycle.
	Recoverable bool `json:"recoverable"`
}

// Kind implements Event.
func (ErrorObservation) Kind() EventKind { return KindErrorObservation }
