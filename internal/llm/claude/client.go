// Package claude implements the triage enrichment provider on the Anthropic
// Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/sift/internal/triage"
)

// ErrMissingAPIKey is returned at construction when no credential is
// configured. This is the one fatal, non-recoverable triage error: no run
// can proceed without a configured client.
var ErrMissingAPIKey = errors.New("claude: api key is required")

// Client implements triage.Provider against the Claude API.
type Client struct {
	client anthropic.Client
}

// New creates a new Claude client. Construction fails on a missing key so
// misconfiguration surfaces at startup, not mid-run.
func New(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Complete sends one batched enrichment request and returns the text
// completion with token usage.
func (c *Client) Complete(ctx context.Context, req *triage.LLMRequest) (*triage.LLMResponse, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude: messages.new: %w", err)
	}

	return fromSDKResponse(msg), nil
}

// fromSDKResponse maps an SDK message to the provider-neutral response type.
func fromSDKResponse(msg *anthropic.Message) *triage.LLMResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &triage.LLMResponse{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: triage.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}
