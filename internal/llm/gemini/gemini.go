package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"fingreat/internal/llm/keypool"
	"fingreat/internal/store"
	"fingreat/internal/types"
)

// Client serves completions and embeddings, rotating through the key pool on every call.
type Client struct {
	pool        *keypool.Pool
	model       string
	embedModel  string
	temperature float32
	maxTokens   int32

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func New(cfg *store.Config, pool *keypool.Pool) (*Client, error) {
	if pool.Len() == 0 {
		return nil, fmt.Errorf("gemini: %w (set %s1..%s%d)", keypool.ErrNoKeys,
			cfg.LLM.KeyEnvPrefix, cfg.LLM.KeyEnvPrefix, cfg.LLM.KeyCount)
	}
	return &Client{
		pool:        pool,
		model:       cfg.LLM.Model,
		embedModel:  cfg.LLM.EmbeddingModel,
		temperature: cfg.LLM.Temperature,
		maxTokens:   int32(cfg.LLM.MaxTokens),
		clients:     make(map[string]*genai.Client),
	}, nil
}

func (c *Client) clientFor(ctx context.Context) (*genai.Client, error) {
	key, err := c.pool.Next(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gc, ok := c.clients[key]; ok {
		return gc, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.clients[key] = gc
	return gc, nil
}

func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	gc, err := c.clientFor(ctx)
	if err != nil {
		return "", err
	}

	conf := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxTokens,
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := gc.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), conf)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty reply")
	}
	return text, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	gc, err := c.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := gc.Models.EmbedContent(ctx, c.embedModel, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return resp.Embeddings[0].Values, nil
}
