package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/llm/keypool"
	"fingreat/internal/store"
)

func TestNewRequiresKeys(t *testing.T) {
	cfg, err := store.ParseConfig([]byte("llm:\n  provider: GEMINI\n"))
	require.NoError(t, err)

	_, err = New(cfg, keypool.New(nil, 15))
	require.Error(t, err)
	assert.ErrorIs(t, err, keypool.ErrNoKeys)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY_1")
}

func TestNewUsesConfiguredModels(t *testing.T) {
	cfg, err := store.ParseConfig([]byte("llm:\n  model: gemini-test\n  max_tokens: 99\n"))
	require.NoError(t, err)

	c, err := New(cfg, keypool.New([]string{"k"}, 15))
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", c.model)
	assert.Equal(t, "text-embedding-004", c.embedModel)
	assert.Equal(t, int32(99), c.maxTokens)
}
