package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/triadworks/triad/pkg/models"
)

// defaultMaxAttempts bounds transient API retries within one delegation.
const defaultMaxAttempts = 3

// Runner executes delegations against the Anthropic API. Each Execute
// call produces exactly one observation: a DelegateObservation with the
// specialist's outputs, or an ErrorObservation when the API could not be
// reached. API failures are recoverable; the orchestrator's retry cycle
// decides what to do with them.
type Runner struct {
	client      *Client
	prompts     PromptSet
	maxAttempts int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPrompts sets the system prompt set.
func WithPrompts(p PromptSet) RunnerOption {
	return func(r *Runner) { r.prompts = p }
}

// WithMaxAttempts sets the transient-retry bound per delegation.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewRunner creates a Runner over the given API client.
func NewRunner(client *Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:      client,
		prompts:     DefaultPrompts(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Usage reports the API usage the underlying client has accumulated.
func (r *Runner) Usage() Usage {
	return r.client.Usage()
}

// Execute implements the orchestrator's executor contract.
func (r *Runner) Execute(ctx context.Context, task models.Task, action models.DelegateAction) (models.Event, error) {
	systemPrompt, err := r.prompts.For(action.Role)
	if err != nil {
		return models.ErrorObservation{Message: err.Error(), Recoverable: false}, nil
	}
	userPrompt := renderInputs(action.Inputs)

	var text string
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		text, lastErr = r.client.Complete(ctx, systemPrompt, userPrompt)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return models.ErrorObservation{
			Message:     fmt.Sprintf("%s delegation: API failed after %d attempts: %v", action.Role, r.maxAttempts, lastErr),
			Recoverable: true,
		}, nil
	}

	return observe(action.Role, text), nil
}

// observe turns raw specialist output into the role's observation.
func observe(role models.Role, text string) models.Event {
	text = strings.TrimSpace(text)

	switch role {
	case models.RoleStudy:
		if text == "" {
			return failure(role, "study specialist returned an empty brief")
		}
		return models.DelegateObservation{
			Role:    role,
			Status:  models.StatusSuccess,
			Outputs: models.Fields{models.FieldSummary: text},
		}

	case models.RoleCode:
		if text == "" {
			return failure(role, "code specialist returned no change")
		}
		return models.DelegateObservation{
			Role:    role,
			Status:  models.StatusSuccess,
			Outputs: models.Fields{models.FieldDiff: text},
		}

	case models.RoleVerify:
		verdict, err := ParseVerdict(text)
		if err != nil {
			return failure(role, fmt.Sprintf("unparseable verdict: %v", err))
		}
		return models.DelegateObservation{
			Role:   role,
			Status: models.StatusSuccess,
			Outputs: models.Fields{
				models.FieldApproved: strconv.FormatBool(verdict.Approved),
				models.FieldFeedback: verdict.Feedback,
			},
		}

	default:
		return models.ErrorObservation{
			Message:     fmt.Sprintf("no output handling for role %q", role),
			Recoverable: false,
		}
	}
}

// failure builds a failed observation carrying feedback for the retry
// cycle.
func failure(role models.Role, feedback string) models.DelegateObservation {
	return models.DelegateObservation{
		Role:    role,
		Status:  models.StatusFailure,
		Outputs: models.Fields{models.FieldFeedback: feedback},
	}
}

// inputOrder fixes the section order of the rendered user prompt so runs
// are reproducible.
var inputOrder = []struct {
	key     string
	heading string
}{
	{models.FieldTask, "Task"},
	{models.FieldStudySummary, "Research brief"},
	{models.FieldVerifierFeedback, "Reviewer feedback on the previous attempt"},
	{models.FieldDiff, "Proposed change"},
}

// renderInputs flattens a delegation's input fields into the user prompt.
func renderInputs(inputs models.Fields) string {
	var b strings.Builder
	for _, section := range inputOrder {
		value, ok := inputs[section.key]
		if !ok || value == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.heading, value)
	}
	return strings.TrimSpace(b.String())
}
