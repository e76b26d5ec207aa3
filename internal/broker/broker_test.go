package broker

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fingreat/internal/types"
)

func TestValidateOrder(t *testing.T) {
	ok := types.OrderReq{InstrumentKey: "NSE_EQ|INE002A01018", Side: "BUY", OrderType: "MARKET", Qty: 1}
	assert.NoError(t, ValidateOrder(ok))

	limit := ok
	limit.OrderType = "LIMIT"
	assert.Error(t, ValidateOrder(limit))
	limit.Price = decimal.NewFromFloat(2850.5)
	assert.NoError(t, ValidateOrder(limit))

	bad := ok
	bad.Qty = 0
	assert.Error(t, ValidateOrder(bad))

	bad = ok
	bad.Side = "HOLD"
	assert.Error(t, ValidateOrder(bad))

	bad = ok
	bad.InstrumentKey = ""
	assert.Error(t, ValidateOrder(bad))
}

func TestSimulate(t *testing.T) {
	resp := Simulate(context.Background(), types.OrderReq{Symbol: "TCS", Side: "BUY", Qty: 1})
	assert.True(t, strings.HasPrefix(resp.OrderID, "SIM-"))
	assert.Equal(t, "SIMULATED", resp.Status)
	assert.True(t, Params{Mode: ModeDryRun}.DryRun())
	assert.False(t, Params{Mode: "LIVE"}.DryRun())
}
