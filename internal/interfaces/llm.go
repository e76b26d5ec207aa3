package interfaces

import (
	"context"

	"fingreat/internal/types"
)

type Completer interface {
	Complete(ctx context.Context, req types.CompletionRequest) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
