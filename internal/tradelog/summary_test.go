package tradelog

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/types"
)

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Symbol: "TCS", Side: "BUY", Qty: 2, Price: decimal.RequireFromString("3500.5")},
		{Symbol: "INFY", Side: "SELL", Qty: 1, Price: decimal.Zero},
		{Symbol: "TCS", Side: "SELL", Qty: 1, Price: decimal.RequireFromString("3600")},
	}
	got := Summarize(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "INFY", got[0].Symbol)
	assert.Equal(t, 1, got[0].SellQty)
	assert.True(t, got[0].SellValue.IsZero())

	tcs := got[1]
	assert.Equal(t, 2, tcs.Orders)
	assert.Equal(t, 2, tcs.BuyQty)
	assert.Equal(t, "7001.00", tcs.BuyValue.StringFixed(2))
	assert.Equal(t, "3600.00", tcs.SellValue.StringFixed(2))
}

func TestWriteDaySummary(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	p, err := WriteDaySummary(time.Now())
	require.NoError(t, err)
	assert.Empty(t, p)

	req := types.OrderReq{Symbol: "TCS", Side: "BUY", OrderType: "LIMIT", Qty: 3, Price: decimal.NewFromInt(100)}
	require.NoError(t, Append(FromOrder("u1", req, types.OrderResp{OrderID: "1", Status: "SIMULATED"})))

	p, err = WriteDaySummary(time.Now())
	require.NoError(t, err)
	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"TCS", "1", "3", "0", "300.00", "0.00"}, rows[1])
	assert.Equal(t, "TOTAL", rows[2][0])
}
