// Package models defines the shared data model for the triad orchestrator:
// the task intake, the specialist roles, and the event union that makes up
// the append-only session log.
package models

import "strings"

// Task is the immutable orchestration input. It is created once at session
// start and never mutated; everything else the orchestrator knows is
// derived from the event log.
type Task struct {
	// Goal is the natural-language description of what to accomplish.
	Goal string `json:"goal"`
	// Context carries optional supporting material (repo notes,
	// constraints, prior discussion). May be empty.
	Context string `json:"context,omitempty"`
}

// Validate checks that the task carries a usable goal.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Goal) == "" {
		return ErrEmptyGoal
	}
	return nil
}
