package market

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/types"
)

const (
	dayLayout = "2006-01-02"
	// how far to walk from a date looking for a session
	tradingDayLookaround = 10
)

// History serves daily candles by symbol with a TTL cache in front of the broker.
type History struct {
	broker  interfaces.Broker
	catalog *instruments.Catalog
	cache   *ristretto.Cache
	ttl     time.Duration
}

func NewHistory(b interfaces.Broker, catalog *instruments.Catalog, ttl time.Duration) (*History, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 16, // counted in candles
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("candle cache: %w", err)
	}
	return &History{broker: b, catalog: catalog, cache: cache, ttl: ttl}, nil
}

func (h *History) Close() {
	h.cache.Close()
}

// Range returns candles for symbol with from <= day <= to, ascending.
func (h *History) Range(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	in, err := h.catalog.Resolve(symbol)
	if err != nil {
		return nil, err
	}
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return []types.Candle{}, nil
	}

	key := in.Key + "|" + from.Format(dayLayout) + "|" + to.Format(dayLayout)
	if v, ok := h.cache.Get(key); ok {
		return v.([]types.Candle), nil
	}

	cs, err := h.broker.HistoricalCandles(ctx, in.Key, from, to)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []types.Candle{}
	}
	h.cache.SetWithTTL(key, cs, int64(len(cs)+1), h.ttl)
	h.cache.Wait()
	return cs, nil
}

// CloseOn reports the close on day, if the market traded that day.
func (h *History) CloseOn(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
	cs, err := h.Range(ctx, symbol, day, day)
	if err != nil {
		return 0, false, err
	}
	want := truncateDay(day).Format(dayLayout)
	for _, c := range cs {
		if c.Day() == want {
			return c.Close, true, nil
		}
	}
	return 0, false, nil
}

// PreviousTradingClose finds the latest session strictly before day.
func (h *History) PreviousTradingClose(ctx context.Context, symbol string, day time.Time) (types.Candle, bool, error) {
	day = truncateDay(day)
	cs, err := h.Range(ctx, symbol, day.AddDate(0, 0, -tradingDayLookaround), day.AddDate(0, 0, -1))
	if err != nil || len(cs) == 0 {
		return types.Candle{}, false, err
	}
	return cs[len(cs)-1], true, nil
}

// NextTradingClose finds the earliest session strictly after day.
func (h *History) NextTradingClose(ctx context.Context, symbol string, day time.Time) (types.Candle, bool, error) {
	day = truncateDay(day)
	cs, err := h.Range(ctx, symbol, day.AddDate(0, 0, 1), day.AddDate(0, 0, tradingDayLookaround))
	if err != nil || len(cs) == 0 {
		return types.Candle{}, false, err
	}
	return cs[0], true, nil
}

// LastTradingDays returns up to n sessions strictly before day, ascending.
func (h *History) LastTradingDays(ctx context.Context, symbol string, before time.Time, n int) ([]types.Candle, error) {
	before = truncateDay(before)
	// two calendar days per session plus holidays is always enough
	cs, err := h.Range(ctx, symbol, before.AddDate(0, 0, -(2*n+tradingDayLookaround)), before.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	if len(cs) > n {
		cs = cs[len(cs)-n:]
	}
	return cs, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.In(types.IST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, types.IST)
}
