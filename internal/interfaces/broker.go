package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fingreat/internal/types"
)

type Broker interface {
	AvailableFunds(ctx context.Context) (decimal.Decimal, error)
	LTP(ctx context.Context, instrumentKey string) (float64, error)
	Quotes(ctx context.Context, instrumentKeys []string) (map[string]types.Quote, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	HistoricalCandles(ctx context.Context, instrumentKey string, from, to time.Time) ([]types.Candle, error)
}
