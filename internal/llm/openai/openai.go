package openai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"fingreat/internal/api"
	"fingreat/internal/store"
	"fingreat/internal/types"
)

const defaultBaseURL = "https://api.openai.com"

// Client calls the Chat Completions endpoint over the shared api.Client.
type Client struct {
	http        *api.Client
	model       string
	temperature float32
	maxTokens   int
}

func New(cfg *store.Config) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return newWithClient(cfg, api.NewClient(
		api.WithBaseURL(baseURL),
		api.WithBearerToken(apiKey),
		api.WithTimeout(60*time.Second),
		api.WithName("openai"),
	)), nil
}

func newWithClient(cfg *store.Config, c *api.Client) *Client {
	return &Client{
		http:        c,
		model:       cfg.LLM.Model,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body := map[string]any{
		"model":       c.model,
		"messages":    msgs,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	httpReq := api.NewRequest(http.MethodPost, "/v1/chat/completions").WithBody(body)
	resp, err := c.http.DoWithRetry(ctx, httpReq, api.DefaultRetryPolicy())
	if err != nil {
		return "", err
	}

	var r chatResponse
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
