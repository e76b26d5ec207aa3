package noop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/llm"
	"fingreat/internal/types"
)

func TestCompleteReturnsDirectAnswer(t *testing.T) {
	out, err := New().Complete(context.Background(), types.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)

	var reply struct {
		Agent          string `json:"agent"`
		ResponseToUser string `json:"response_to_user"`
		Function       string `json:"function"`
	}
	require.NoError(t, llm.ExtractJSON(out, &reply))
	assert.Empty(t, reply.Agent)
	assert.Empty(t, reply.Function)
	assert.NotEmpty(t, reply.ResponseToUser)
}

func TestEmbedderIsDeterministic(t *testing.T) {
	a, err := Embedder{}.Embed(context.Background(), "Reliance posts record profit")
	require.NoError(t, err)
	b, err := Embedder{}.Embed(context.Background(), "reliance POSTS record profit")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}
