package runner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/triadworks/triad/pkg/models"
)

// studySystemPrompt steers the study specialist: research only, no code.
const studySystemPrompt = `You are a research specialist. You are given a
task and must produce a concise implementation brief for the engineer who
will do the work.

Cover:
- What the task is actually asking for
- The parts of the system likely involved
- Constraints, edge cases, and pitfalls to watch for
- A suggested approach, in a few sentences

Do NOT write code. Do NOT produce diffs. Respond with the brief only.`

// codeSystemPrompt steers the code specialist toward a single reviewable
// change set.
const codeSystemPrompt = `You are an implementation specialist. You are
given a task, a research brief, and possibly reviewer feedback from a
previous rejected attempt.

Produce the complete change as a unified diff, or as full file contents
prefixed with "FILE: <path>" lines when a diff is impractical.

Rules:
- Address the reviewer feedback first when it is present.
- Stay within the task; do not refactor unrelated code.
- Output the change only, no commentary before or after.`

// verifySystemPrompt demands a machine-readable verdict so the
// orchestrator can branch on it.
const verifySystemPrompt = `You are a verification specialist. You are
given a task, a research brief, and a proposed change. Review the change
against the task.

Respond with a single JSON object and nothing else:
{"approved": true|false, "feedback": "<one paragraph explaining the verdict;
when rejecting, state concretely what must change>"}`

// PromptSet holds the system prompt for each specialist role. Overrides
// can be loaded from a YAML file per project.
type PromptSet struct {
	Study  string `yaml:"study"`
	Code   string `yaml:"code"`
	Verify string `yaml:"verify"`
}

// DefaultPrompts returns the built-in system prompts.
func DefaultPrompts() PromptSet {
	return PromptSet{
		Study:  studySystemPrompt,
		Code:   codeSystemPrompt,
		Verify: verifySystemPrompt,
	}
}

// For returns the system prompt for a role.
func (p PromptSet) For(role models.Role) (string, error) {
	switch role {
	case models.RoleStudy:
		return p.Study, nil
	case models.RoleCode:
		return p.Code, nil
	case models.RoleVerify:
		return p.Verify, nil
	default:
		return "", fmt.Errorf("no prompt for role %q", role)
	}
}

// LoadPrompts reads prompt overrides from a YAML file, falling back to the
// defaults for any role the file leaves empty. A missing file yields the
// defaults.
func LoadPrompts(path string) (PromptSet, error) {
	prompts := DefaultPrompts()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return prompts, nil
	}
	if err != nil {
		return prompts, fmt.Errorf("read prompts file: %w", err)
	}

	var overrides PromptSet
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, fmt.Errorf("parse prompts file: %w", err)
	}

	if overrides.Study != "" {
		prompts.Study = overrides.Study
	}
	if overrides.Code != "" {
		prompts.Code = overrides.Code
	}
	if overrides.Verify != "" {
		prompts.Verify = overrides.Verify
	}
	return prompts, nil
}
