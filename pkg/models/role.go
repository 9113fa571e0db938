package models

// Role identifies one of the three fixed specialist functions the
// orchestrator can delegate to.
type Role string

const (
	// RoleStudy researches the task and produces a summary of findings.
	RoleStudy Role = "study"
	// RoleCode produces a code change for the task.
	RoleCode Role = "code"
	// RoleVerify reviews a code change and returns an approval verdict.
	RoleVerify Role = "verify"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleStudy, RoleCode, RoleVerify:
		return true
	default:
		return false
	}
}

// RequiredInputs returns the input field keys a delegation to this role
// must carry. Constructing a DelegateAction without them is a policy bug,
// not an external failure.
func (r Role) RequiredInputs() []string {
	switch r {
	case RoleStudy:
		return []string{FieldTask}
	case RoleCode:
		return []string{FieldTask, FieldStudySummary}
	case RoleVerify:
		return []string{FieldTask, FieldStudySummary, FieldDiff}
	default:
		return nil
	}
}
