package orchestrator

import "errors"

// Orchestration error taxonomy. InvalidPairing and MalformedInputs are
// local orchestration bugs: fatal, non-retryable. DelegationFailure is
// expected and handled by the bounded retry cycle. BudgetExhausted is a
// terminal result, not a crash.
var (
	// ErrInvalidPairing means an observation does not match the pending
	// delegation's role, or appeared with no delegation outstanding.
	ErrInvalidPairing = errors.New("invalid action/observation pairing")

	// ErrMalformedInputs means a delegation's required input fields could
	// not be assembled. This indicates a policy bug, never an external
	// failure.
	ErrMalformedInputs = errors.New("malformed delegation inputs")

	// ErrDelegationFailed means a specialist reported failure or an
	// execution error. Recoverable up to the iteration budget.
	ErrDelegationFailed = errors.New("delegation failed")

	// ErrBudgetExhausted means the iteration budget was consumed without
	// verifier approval.
	ErrBudgetExhausted = errors.New("iteration budget exhausted")
)

// Recoverable reports whether an orchestration error may be routed back
// into the retry cycle instead of terminating the session.
func Recoverable(err error) bool {
	return errors.Is(err, ErrDelegationFailed)
}
