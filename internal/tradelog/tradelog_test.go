package tradelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/types"
)

func TestAppendAndReadDay(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	req := types.OrderReq{InstrumentKey: "NSE_EQ|INE467B01029", Symbol: "TCS", Side: "BUY", OrderType: "LIMIT", Qty: 2, Price: decimal.RequireFromString("3500.5")}
	require.NoError(t, Append(FromOrder("u1", req, types.OrderResp{OrderID: "SIM-1", Status: "SIMULATED"})))
	require.NoError(t, Append(FromOrder("u2", req, types.OrderResp{OrderID: "SIM-2", Status: "SIMULATED"})))

	entries, err := ReadDay(time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SIM-1", entries[0].OrderID)
	assert.True(t, decimal.RequireFromString("3500.5").Equal(entries[0].Price))
	assert.NotEmpty(t, entries[0].Time)

	mine := ForUser(entries, "u2")
	require.Len(t, mine, 1)
	assert.Equal(t, "SIM-2", mine[0].OrderID)
}

func TestReadDayMissing(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	entries, err := ReadDay(time.Now().AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompressOlderKeepsEntriesReadable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	require.NoError(t, Append(Entry{User: "u1", Symbol: "INFY", OrderID: "SIM-9"}))
	p := dailyFilepath(time.Now())
	old := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(p, old, old))

	require.NoError(t, CompressOlder(7))

	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(p + ".gz")
	require.NoError(t, err)

	entries, err := ReadDay(time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SIM-9", entries[0].OrderID)
}

func TestCompressOlderIgnoresRecentFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)
	require.NoError(t, Append(Entry{User: "u1"}))
	require.NoError(t, CompressOlder(7))

	matches, err := filepath.Glob(filepath.Join(dir, "*.gz"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
