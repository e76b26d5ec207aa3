package keypool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRoundRobin(t *testing.T) {
	p := New([]string{"a", "b", "c"}, 60)

	var got []string
	for i := 0; i < 3; i++ {
		k, err := p.Next(context.Background())
		require.NoError(t, err)
		got = append(got, k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestNextSkipsEmptyKeys(t *testing.T) {
	p := New([]string{"", "only", ""}, 60)
	assert.Equal(t, 1, p.Len())

	k, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only", k)
}

func TestNextNoKeys(t *testing.T) {
	_, err := New(nil, 15).Next(context.Background())
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestNextWaitsWhenExhaustedAndHonoursCancel(t *testing.T) {
	// one request per minute: the second call must wait
	p := New([]string{"a"}, 1)

	_, err := p.Next(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Next(ctx)
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TEST_KEY_1", "k1")
	t.Setenv("TEST_KEY_3", "k3")

	p := FromEnv("TEST_KEY_", 3, 15)
	assert.Equal(t, 2, p.Len())

	k, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k1", k)
	k, err = p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k3", k)
}
