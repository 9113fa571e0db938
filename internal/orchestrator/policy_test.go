package orchestrator

import (
	"errors"
	"testing"

	"github.com/triadworks/triad/pkg/models"
)

var policyTask = models.Task{Goal: "add endpoint"}

func TestPolicyDelegatesStudyFirst(t *testing.T) {
	p := Policy{MaxIterations: 3}

	ev, err := p.Decide(policyTask, DerivedState{Phase: PhaseAwaitingStudy})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	action, ok := ev.(models.DelegateAction)
	if !ok {
		t.Fatalf("Decide returned %T, want DelegateAction", ev)
	}
	if action.Role != models.RoleStudy {
		t.Errorf("role = %s, want %s", action.Role, models.RoleStudy)
	}
	if action.Inputs[models.FieldTask] != "add endpoint" {
		t.Errorf("task input = %q, want goal text", action.Inputs[models.FieldTask])
	}
}

func TestPolicyTaskContextIsRendered(t *testing.T) {
	p := Policy{}
	task := models.Task{Goal: "add endpoint", Context: "service uses chi router"}

	ev, err := p.Decide(task, DerivedState{Phase: PhaseAwaitingStudy})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	action := ev.(models.DelegateAction)
	want := "add endpoint\n\nContext:\nservice uses chi router"
	if action.Inputs[models.FieldTask] != want {
		t.Errorf("task input = %q, want %q", action.Inputs[models.FieldTask], want)
	}
}

func TestPolicyDelegatesCodeWithFeedback(t *testing.T) {
	p := Policy{MaxIterations: 3}
	state := DerivedState{
		Phase:            PhaseAwaitingCode,
		Iteration:        1,
		StudySummary:     "S",
		VerifierFeedback: "missing tests",
	}

	ev, err := p.Decide(policyTask, state)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	action := ev.(models.DelegateAction)
	if action.Role != models.RoleCode {
		t.Fatalf("role = %s, want %s", action.Role, models.RoleCode)
	}
	if action.Inputs[models.FieldStudySummary] != "S" {
		t.Errorf("study summary input = %q, want %q", action.Inputs[models.FieldStudySummary], "S")
	}
	if action.Inputs[models.FieldVerifierFeedback] != "missing tests" {
		t.Errorf("feedback input = %q, want %q", action.Inputs[models.FieldVerifierFeedback], "missing tests")
	}
}

func TestPolicyFirstCodeAttemptCarriesNoFeedback(t *testing.T) {
	p := Policy{}
	ev, err := p.Decide(policyTask, DerivedState{Phase: PhaseAwaitingCode, StudySummary: "S"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	action := ev.(models.DelegateAction)
	if _, ok := action.Inputs[models.FieldVerifierFeedback]; ok {
		t.Error("first code delegation carries verifier feedback")
	}
}

func TestPolicyBudgetExhaustion(t *testing.T) {
	p := Policy{MaxIterations: 3}
	state := DerivedState{
		Phase:            PhaseAwaitingCode,
		Iteration:        3,
		StudySummary:     "S",
		VerifierFeedback: "still missing tests",
	}

	ev, err := p.Decide(policyTask, state)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	finish, ok := ev.(models.FinishAction)
	if !ok {
		t.Fatalf("Decide returned %T, want FinishAction", ev)
	}
	if finish.Completed {
		t.Error("exhausted finish marked completed")
	}
	if finish.Reason != models.FinishExhausted {
		t.Errorf("reason = %s, want %s", finish.Reason, models.FinishExhausted)
	}
}

func TestPolicyDelegatesVerify(t *testing.T) {
	p := Policy{}
	state := DerivedState{Phase: PhaseAwaitingVerify, StudySummary: "S", Diff: "diff-1"}

	ev, err := p.Decide(policyTask, state)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	action := ev.(models.DelegateAction)
	if action.Role != models.RoleVerify {
		t.Fatalf("role = %s, want %s", action.Role, models.RoleVerify)
	}
	if action.Inputs[models.FieldDiff] != "diff-1" {
		t.Errorf("diff input = %q, want %q", action.Inputs[models.FieldDiff], "diff-1")
	}
}

func TestPolicyApprovalFinishes(t *testing.T) {
	p := Policy{}
	ev, err := p.Decide(policyTask, DerivedState{Phase: PhaseDone, ApprovalNote: "ship it"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	finish := ev.(models.FinishAction)
	if !finish.Completed {
		t.Error("approved finish not marked completed")
	}
	if finish.Summary != "ship it" {
		t.Errorf("summary = %q, want approval note", finish.Summary)
	}
	if finish.Reason != models.FinishApproved {
		t.Errorf("reason = %s, want %s", finish.Reason, models.FinishApproved)
	}
}

func TestPolicyMalformedInputs(t *testing.T) {
	p := Policy{}

	// Verify cannot be delegated without a diff to review.
	_, err := p.Decide(policyTask, DerivedState{Phase: PhaseAwaitingVerify, StudySummary: "S"})
	if !errors.Is(err, ErrMalformedInputs) {
		t.Errorf("Decide error = %v, want ErrMalformedInputs", err)
	}
}

func TestPolicyStudyFailureBudget(t *testing.T) {
	p := Policy{}

	// One failure: retry study.
	ev, err := p.Decide(policyTask, DerivedState{Phase: PhaseAwaitingStudy, StudyFailures: 1})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if action, ok := ev.(models.DelegateAction); !ok || action.Role != models.RoleStudy {
		t.Errorf("after one study failure got %v, want a study retry", ev)
	}

	// Two failures: halt.
	ev, err = p.Decide(policyTask, DerivedState{Phase: PhaseAwaitingStudy, StudyFailures: 2})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	finish, ok := ev.(models.FinishAction)
	if !ok {
		t.Fatalf("after two study failures got %T, want FinishAction", ev)
	}
	if finish.Reason != models.FinishFatalError {
		t.Errorf("reason = %s, want %s", finish.Reason, models.FinishFatalError)
	}
}

func TestPolicyTerminalResultIsSticky(t *testing.T) {
	p := Policy{}
	recorded := models.FinishAction{Summary: "done", Completed: true, Reason: models.FinishApproved}

	ev, err := p.Decide(policyTask, DerivedState{Phase: PhaseDone, Finished: &recorded})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	finish := ev.(models.FinishAction)
	if finish != recorded {
		t.Errorf("re-stepping a finished log returned %+v, want the recorded finish", finish)
	}
}

func TestPolicyDefaultBudget(t *testing.T) {
	p := Policy{}
	if p.budget() != DefaultMaxIterations {
		t.Errorf("budget() = %d, want %d", p.budget(), DefaultMaxIterations)
	}
	p.MaxIterations = 5
	if p.budget() != 5 {
		t.Errorf("budget() = %d, want 5", p.budget())
	}
}
