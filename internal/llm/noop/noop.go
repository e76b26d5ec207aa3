package noop

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"

	"fingreat/internal/logger"
	"fingreat/internal/types"
)

// Completer answers every prompt directly, so the master agent never delegates.
// Used when no provider credentials are configured.
type Completer struct{}

func New() *Completer {
	return &Completer{}
}

func (c *Completer) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	logger.Debug(ctx, "Noop completer called", "prompt_len", len(req.Prompt))
	b, _ := json.Marshal(map[string]string{
		"agent":             "",
		"response_to_agent": "",
		"response_to_user":  "No language model is configured; set llm.provider in config.yaml.",
		"function":          "",
		"response":          "No language model is configured.",
	})
	return string(b), nil
}

// Embedder hashes words into a small deterministic vector.
type Embedder struct{}

func (Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 32)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%32]++
	}
	v[0] += 0.001
	return v, nil
}
