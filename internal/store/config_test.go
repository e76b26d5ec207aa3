package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("mode: LIVE\n"))
	require.NoError(t, err)

	assert.Equal(t, "LIVE", cfg.Mode)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "GEMINI", cfg.LLM.Provider)
	assert.Equal(t, "GEMINI_API_KEY_", cfg.LLM.KeyEnvPrefix)
	assert.Equal(t, 8, cfg.LLM.KeyCount)
	assert.Equal(t, 15, cfg.LLM.RequestsPerMinute)
	assert.Equal(t, "UPSTOX", cfg.Broker.Provider)
	assert.Equal(t, "2003-01-01", cfg.Agents.MinDate)
	assert.Equal(t, "2025-04-28", cfg.Agents.MaxDate)
	assert.Equal(t, 30, cfg.Agents.DefaultWindowDays)
	assert.Equal(t, 10, cfg.Agents.MaxToolIterations)
	assert.Equal(t, 0.6, cfg.Breaker.LLM.FailureRatio)
	assert.Equal(t, 2025, cfg.MaxDate().Year())
}

func TestParseConfigValidation(t *testing.T) {
	cases := map[string]string{
		"bad mode":      "mode: PAPER\n",
		"bad provider":  "llm:\n  provider: GROQ\n",
		"bad broker":    "broker:\n  provider: IBKR\n",
		"bad date":      "agents:\n  min_date: yesterday\n",
		"reversed":      "agents:\n  min_date: \"2025-05-01\"\n  max_date: \"2025-04-01\"\n",
		"breaker ratio": "breaker:\n  llm:\n    enabled: true\n    failure_ratio: 1.5\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
mode: DRY_RUN
llm:
  provider: NOOP
broker:
  provider: ZERODHA
  instrument_tokens:
    TCS: 2953217
agents:
  confirm_orders: true
  max_tool_iterations: -1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "NOOP", cfg.LLM.Provider)
	assert.Equal(t, uint32(2953217), cfg.Broker.InstrumentTokens["TCS"])
	assert.True(t, cfg.Agents.ConfirmOrders)
	assert.Equal(t, -1, cfg.Agents.MaxToolIterations)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
