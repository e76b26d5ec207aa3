package zerodha

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"fingreat/internal/broker"
	"fingreat/internal/instruments"
	"fingreat/internal/types"
)

type fakeKite struct {
	net      float64
	prices   map[string]float64
	quoteMap map[string]types.Quote
	placed   []kiteconnect.OrderParams
	rows     []types.Candle
	gotToken int
	err      error
}

func (f *fakeKite) equityNet() (float64, error) { return f.net, f.err }

func (f *fakeKite) ltp(instruments ...string) (map[string]float64, error) {
	return f.prices, f.err
}

func (f *fakeKite) quotes(instruments ...string) (map[string]types.Quote, error) {
	return f.quoteMap, f.err
}

func (f *fakeKite) placeOrder(p kiteconnect.OrderParams) (string, error) {
	f.placed = append(f.placed, p)
	return "KITE-1", f.err
}

func (f *fakeKite) candles(token int, from, to time.Time) ([]types.Candle, error) {
	f.gotToken = token
	return f.rows, f.err
}

func newTestZerodha(mode string, fk *fakeKite) *Zerodha {
	z := NewZerodha(broker.Params{Mode: mode, APIKey: "k", AccessToken: "t", OrderTag: "fingreat_agent_order"},
		instruments.Default(), map[string]uint32{"tcs": 2953217})
	z.api = fk
	return z
}

const tcsKey = "NSE_EQ|INE467B01029"

func TestAvailableFunds(t *testing.T) {
	z := newTestZerodha("LIVE", &fakeKite{net: 12345.5})
	f, err := z.AvailableFunds(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Equal(decimal.RequireFromString("12345.5")))
}

func TestLTPTranslatesKey(t *testing.T) {
	z := newTestZerodha("LIVE", &fakeKite{prices: map[string]float64{"NSE:TCS": 3500.25}})
	p, err := z.LTP(context.Background(), tcsKey)
	require.NoError(t, err)
	assert.Equal(t, 3500.25, p)

	_, err = z.LTP(context.Background(), "NSE_EQ|UNKNOWN")
	assert.ErrorIs(t, err, instruments.ErrUnknownInstrument)
}

func TestQuotesMapsBackToKeys(t *testing.T) {
	z := newTestZerodha("LIVE", &fakeKite{quoteMap: map[string]types.Quote{
		"NSE:TCS": {LastPrice: 3500, PrevClose: 3450},
	}})
	q, err := z.Quotes(context.Background(), []string{tcsKey, "NSE_EQ|UNKNOWN"})
	require.NoError(t, err)
	assert.Equal(t, types.Quote{LastPrice: 3500, PrevClose: 3450}, q[tcsKey])
	assert.Len(t, q, 1)
}

func TestPlaceOrderLive(t *testing.T) {
	fk := &fakeKite{}
	z := newTestZerodha("LIVE", fk)

	resp, err := z.PlaceOrder(context.Background(), types.OrderReq{
		InstrumentKey: tcsKey, Side: "BUY", OrderType: "LIMIT", Qty: 2, Price: decimal.RequireFromString("3400"),
	})
	require.NoError(t, err)
	assert.Equal(t, "KITE-1", resp.OrderID)
	require.Len(t, fk.placed, 1)
	assert.Equal(t, "TCS", fk.placed[0].Tradingsymbol)
	assert.Equal(t, "NSE", fk.placed[0].Exchange)
	assert.Equal(t, "CNC", fk.placed[0].Product)
	assert.Equal(t, 3400.0, fk.placed[0].Price)
	assert.Equal(t, "fingreat_agent_order", fk.placed[0].Tag)
}

func TestPlaceOrderDryRun(t *testing.T) {
	fk := &fakeKite{}
	z := newTestZerodha(broker.ModeDryRun, fk)

	resp, err := z.PlaceOrder(context.Background(), types.OrderReq{
		InstrumentKey: tcsKey, Side: "SELL", OrderType: "MARKET", Qty: 1,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.OrderID, "SIM-"))
	assert.Empty(t, fk.placed)
}

func TestHistoricalCandlesUsesConfiguredToken(t *testing.T) {
	fk := &fakeKite{rows: []types.Candle{{Ts: 300}, {Ts: 100}, {Ts: 200}}}
	z := newTestZerodha("LIVE", fk)

	cs, err := z.HistoricalCandles(context.Background(), tcsKey, time.Now().AddDate(0, 0, -5), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2953217, fk.gotToken)
	assert.Equal(t, []int64{100, 200, 300}, []int64{cs[0].Ts, cs[1].Ts, cs[2].Ts})

	_, err = z.HistoricalCandles(context.Background(), "NSE_EQ|INE002A01018", time.Now(), time.Now())
	assert.ErrorContains(t, err, "instrument_tokens")
}

func TestErrorsAreWrapped(t *testing.T) {
	boom := errors.New("TokenException")
	z := newTestZerodha("LIVE", &fakeKite{err: boom})
	_, err := z.AvailableFunds(context.Background())
	assert.ErrorIs(t, err, boom)
}
