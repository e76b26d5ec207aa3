package conversation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/types"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	bs, err := NewBoltStore(filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })
	return map[string]Store{"memory": NewMemoryStore(), "bolt": bs}
}

func TestAppendAndSetLastReply(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SetLastReply(ctx, TradingAgent, "u1", "ignored"))

			require.NoError(t, s.Append(ctx, TradingAgent, "u1", types.Turn{User: "buy TCS"}))
			require.NoError(t, s.SetLastReply(ctx, TradingAgent, "u1", "How many shares?"))
			require.NoError(t, s.Append(ctx, TradingAgent, "u1", types.Turn{User: "2"}))

			h, err := s.History(ctx, TradingAgent, "u1")
			require.NoError(t, err)
			assert.Equal(t, []types.Turn{
				{User: "buy TCS", Assistant: "How many shares?"},
				{User: "2"},
			}, h)
		})
	}
}

func TestHistoryEmptyNotNil(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h, err := s.History(ctx, StockAgent, "nobody")
			require.NoError(t, err)
			assert.NotNil(t, h)
			assert.Empty(t, h)
		})
	}
}

func TestHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, StockAgent, "u", types.Turn{User: "a"}))

	h, err := s.History(ctx, StockAgent, "u")
	require.NoError(t, err)
	h[0].User = "changed"

	h2, err := s.History(ctx, StockAgent, "u")
	require.NoError(t, err)
	assert.Equal(t, "a", h2[0].User)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, a := range AgentTypes {
				require.NoError(t, s.Append(ctx, a, "u", types.Turn{User: "hi"}))
				require.NoError(t, s.Append(ctx, a, "other", types.Turn{User: "hi"}))
			}

			require.NoError(t, s.Clear(ctx, StockAgent, "u"))
			h, _ := s.History(ctx, StockAgent, "u")
			assert.Empty(t, h)
			h, _ = s.History(ctx, TradingAgent, "u")
			assert.Len(t, h, 1)

			require.NoError(t, s.Clear(ctx, MasterAgent, "u"))
			for _, a := range AgentTypes {
				h, _ = s.History(ctx, a, "u")
				assert.Empty(t, h, a)
				h, _ = s.History(ctx, a, "other")
				assert.Len(t, h, 1, a)
			}
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c, err := s.Context(ctx, StockAgent, "u")
			require.NoError(t, err)
			assert.Empty(t, c)

			require.NoError(t, s.SetContext(ctx, StockAgent, "u", "from 2025-01-01 to 2025-01-31"))
			c, err = s.Context(ctx, StockAgent, "u")
			require.NoError(t, err)
			assert.Equal(t, "from 2025-01-01 to 2025-01-31", c)

			require.NoError(t, s.Clear(ctx, MasterAgent, "u"))
			c, _ = s.Context(ctx, StockAgent, "u")
			assert.Empty(t, c)
		})
	}
}

func TestUnknownAgent(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Append(ctx, "weather_agent", "u", types.Turn{}), ErrUnknownAgent)
			_, err := s.History(ctx, "weather_agent", "u")
			assert.ErrorIs(t, err, ErrUnknownAgent)
			assert.ErrorIs(t, s.Clear(ctx, "weather_agent", "u"), ErrUnknownAgent)
		})
	}
}

func TestBoltStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "c.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, MasterAgent, "u", types.Turn{User: "q", Assistant: "a"}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	h, err := s.History(ctx, MasterAgent, "u")
	require.NoError(t, err)
	assert.Equal(t, []types.Turn{{User: "q", Assistant: "a"}}, h)
}

func TestFormatHistory(t *testing.T) {
	out := FormatHistory([]types.Turn{
		{User: "price of TCS?", Assistant: "3500"},
		{User: "and INFY?"},
	})
	assert.Equal(t, "User: price of TCS?\nAssistant: 3500\nUser: and INFY?\nAssistant: ", out)
	assert.Equal(t, "", FormatHistory(nil))
}
