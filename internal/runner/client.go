// Package runner executes delegations against specialist agents backed by
// the Anthropic API. It implements the execution contract the orchestrator
// consumes: one DelegateAction in, exactly one observation out.
package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Client wraps the Anthropic SDK client and accumulates usage across
// calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model

	mu    sync.Mutex
	usage Usage
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the Claude model to use.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock selects AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// NewClient creates a new Anthropic API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	// Bedrock does not accept standard model names.
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &Client{
		inner: anthropic.NewClient(opts...),
		model: model,
	}, nil
}

// bedrockModelIDs maps standard model names to the cross-region inference
// profile ids Bedrock expects.
var bedrockModelIDs = map[anthropic.Model]anthropic.Model{
	anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
	anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	anthropic.ModelClaudeOpus4_5_20251101:   "us.anthropic.claude-opus-4-5-20251101-v1:0",
	anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
	anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
}

// translateModelForBedrock rewrites a standard model name into Bedrock's
// inference profile form. Names already in that form, and custom names the
// table does not know, pass through unchanged.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	if strings.HasPrefix(string(model), "us.anthropic.") {
		return model
	}
	if id, ok := bedrockModelIDs[model]; ok {
		return id
	}
	return model
}

// Model returns the configured model name.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Complete makes a single Messages call with the given system and user
// prompts and returns the concatenated text output.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages call: %w", err)
	}

	c.record(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	return text, nil
}

// Usage is a snapshot of the Messages API usage a client has accumulated.
type Usage struct {
	// InputTokens is the total prompt tokens sent.
	InputTokens int64
	// OutputTokens is the total completion tokens received.
	OutputTokens int64
	// Calls is the number of Messages calls made.
	Calls int
}

// Cost estimates spend in USD at current per-token pricing. Approximate;
// update as pricing changes.
func (u Usage) Cost() float64 {
	return float64(u.InputTokens)/1_000_000*3.0 + float64(u.OutputTokens)/1_000_000*15.0
}

// Usage returns the usage accumulated so far.
func (c *Client) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

func (c *Client) record(input, output int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.InputTokens += input
	c.usage.OutputTokens += output
	c.usage.Calls++
}
