// Package claude provides an LLMClient backed by the Anthropic Messages API
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1024
)

// Client implements LLMClient
type Client struct {
	client anthropic.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Claude client. Extra request options such as a
// base URL can be passed for testing.
func NewClient(apiKey string, opts []ClientOption, requestOpts ...option.RequestOption) *Client {
	requestOpts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, requestOpts...)

	c := &Client{
		client: anthropic.NewClient(requestOpts...),
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider names the backing service
func (c *Client) Provider() string {
	return common.ProviderClaude
}

// Complete sends one user message with an optional system prompt
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	c.logger.Debug().Str("model", c.model).Int("max_tokens", maxTokens).Msg("Requesting completion")

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(response.String())
	if text == "" {
		return "", fmt.Errorf("no response generated from Claude API")
	}
	return text, nil
}

// Ensure Client implements LLMClient
var _ interfaces.LLMClient = (*Client)(nil)
