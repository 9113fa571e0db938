package orchestrator

// Phase is the orchestration state derived from the event log. It is never
// stored; every step recomputes it from the history.
type Phase string

const (
	// PhaseAwaitingStudy means no usable study summary exists yet.
	PhaseAwaitingStudy Phase = "awaiting_study"
	// PhaseAwaitingCode means a study summary exists and a code attempt is
	// needed (first attempt or a retry after verifier rejection).
	PhaseAwaitingCode Phase = "awaiting_code"
	// PhaseAwaitingVerify means a code attempt exists for the current
	// iteration and has not been reviewed.
	PhaseAwaitingVerify Phase = "awaiting_verify"
	// PhaseDone means the verifier approved the work.
	PhaseDone Phase = "done"
	// PhaseExhausted means the iteration budget ran out without approval.
	PhaseExhausted Phase = "exhausted"
)

// Valid returns true if the phase is a known value.
func (p Phase) Valid() bool {
	switch p {
	case PhaseAwaitingStudy, PhaseAwaitingCode, PhaseAwaitingVerify,
		PhaseDone, PhaseExhausted:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further delegation can follow this phase.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseExhausted
}
