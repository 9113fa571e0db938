package models

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{"study", RoleStudy, true},
		{"code", RoleCode, true},
		{"verify", RoleVerify, true},
		{"empty", Role(""), false},
		{"unknown", Role("merge"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestRequiredInputs(t *testing.T) {
	required := RoleVerify.RequiredInputs()
	want := []string{FieldTask, FieldStudySummary, FieldDiff}
	if len(required) != len(want) {
		t.Fatalf("RequiredInputs() = %v, want %v", required, want)
	}
	for i, key := range want {
		if required[i] != key {
			t.Errorf("RequiredInputs()[%d] = %q, want %q", i, required[i], key)
		}
	}
}

func TestFieldsBool(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   bool
	}{
		{"true", Fields{FieldApproved: "true"}, true},
		{"false", Fields{FieldApproved: "false"}, false},
		{"missing", Fields{}, false},
		{"garbage", Fields{FieldApproved: "yep"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fields.Bool(FieldApproved); got != tt.want {
				t.Errorf("Bool(approved) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldsCloneDoesNotAlias(t *testing.T) {
	orig := Fields{FieldTask: "add endpoint"}
	clone := orig.Clone()
	clone[FieldVerifierFeedback] = "missing tests"

	if _, ok := orig[FieldVerifierFeedback]; ok {
		t.Error("Clone() aliases the original map")
	}
}

func TestTaskValidate(t *testing.T) {
	if err := (Task{Goal: "add endpoint"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (Task{Goal: "   "}).Validate(); err == nil {
		t.Error("Validate() on blank goal = nil, want error")
	}
}

func TestEventRoundTrip(t *testing.T) {
	events := []Event{
		DelegateAction{Role: RoleStudy, Inputs: Fields{FieldTask: "add endpoint"}},
		DelegateObservation{Role: RoleStudy, Status: StatusSuccess, Outputs: Fields{FieldSummary: "S"}},
		FinishAction{Summary: "done", Completed: true, Reason: FinishApproved},
		ErrorObservation{Message: "timeout", Recoverable: true},
	}

	for _, original := range events {
		data, err := MarshalEvent(original)
		if err != nil {
			t.Fatalf("MarshalEvent(%s): %v", original.Kind(), err)
		}
		decoded, err := UnmarshalEvent(data)
		if err != nil {
			t.Fatalf("UnmarshalEvent(%s): %v", original.Kind(), err)
		}
		if decoded.Kind() != original.Kind() {
			t.Errorf("round trip changed kind: got %s, want %s", decoded.Kind(), original.Kind())
		}
	}
}

func TestUnmarshalEventRejectsUnknownKind(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"kind":"plan_action","payload":{}}`)); err == nil {
		t.Error("UnmarshalEvent accepted an unknown kind")
	}
}
