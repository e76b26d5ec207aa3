package market

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/logger"
	"fingreat/internal/types"
)

// Feed polls quotes for the whole catalogue and keeps the latest price per symbol.
type Feed struct {
	broker   interfaces.Broker
	catalog  *instruments.Catalog
	interval time.Duration

	mu     sync.RWMutex
	prices map[string]types.MarketPrice
}

func NewFeed(b interfaces.Broker, catalog *instruments.Catalog, interval time.Duration) *Feed {
	return &Feed{
		broker:   b,
		catalog:  catalog,
		interval: interval,
		prices:   make(map[string]types.MarketPrice),
	}
}

// Run refreshes immediately, then every interval until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	logger.Info(ctx, "Price feed started", "interval", f.interval.String(), "symbols", len(f.catalog.Symbols()))

	if err := f.Refresh(ctx); err != nil {
		logger.Warn(ctx, "Price refresh failed", "error", err)
	}

	t := time.NewTicker(f.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Price feed stopped")
			return
		case <-t.C:
			if err := f.Refresh(ctx); err != nil {
				logger.Warn(ctx, "Price refresh failed", "error", err)
			}
		}
	}
}

func (f *Feed) Refresh(ctx context.Context) error {
	quotes, err := f.broker.Quotes(ctx, f.catalog.Keys())
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for key, q := range quotes {
		in, ok := f.catalog.ByKey(key)
		if !ok {
			continue
		}
		f.prices[in.Symbol] = priceFromQuote(q)
	}
	return nil
}

func priceFromQuote(q types.Quote) types.MarketPrice {
	mp := types.MarketPrice{
		Price:  q.LastPrice,
		Change: round2(q.LastPrice - q.PrevClose),
	}
	if q.PrevClose > 0 {
		mp.PercentageChange = round2((q.LastPrice - q.PrevClose) * 100 / q.PrevClose)
	}
	return mp
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (f *Feed) All() map[string]types.MarketPrice {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]types.MarketPrice, len(f.prices))
	for k, v := range f.prices {
		out[k] = v
	}
	return out
}

func (f *Feed) Get(symbol string) (types.MarketPrice, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	mp, ok := f.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	return mp, ok
}
