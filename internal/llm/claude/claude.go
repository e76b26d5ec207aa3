package claude

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"fingreat/internal/store"
	"fingreat/internal/types"
)

// Client completes prompts through the Anthropic Messages API.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func New(cfg *store.Config, opts ...option.RequestOption) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY missing")
	}
	// CLAUDE_API_ENDPOINT points at a proxy when set
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		opts = append(opts, option.WithBaseURL(ep))
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     cfg.LLM.Model,
		maxTokens: int64(cfg.LLM.MaxTokens),
	}, nil
}

func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("claude returned no text content")
	}
	return sb.String(), nil
}
