package brokerobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"fingreat/internal/breaker"
	"fingreat/internal/interfaces"
	"fingreat/internal/logger"
	"fingreat/internal/metrics"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

// observableBroker wraps a Broker with observability (logging, tracing, metrics) and a breaker
type observableBroker struct {
	broker interfaces.Broker
	cb     *gobreaker.CircuitBreaker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware. cb may be nil.
func Wrap(b interfaces.Broker, cb *gobreaker.CircuitBreaker) interfaces.Broker {
	return &observableBroker{broker: b, cb: cb}
}

func (ob *observableBroker) AvailableFunds(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "broker.AvailableFunds")
	defer span.End()

	funds, err := breaker.Do(ob.cb, func() (decimal.Decimal, error) {
		return ob.broker.AvailableFunds(ctx)
	})
	metrics.BrokerRequests.WithLabelValues("funds", metrics.Result(err)).Inc()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch account balance", err)
		return decimal.Zero, err
	}

	logger.DebugSkip(ctx, 1, "Account balance fetched", "funds", funds.String())
	return funds, nil
}

func (ob *observableBroker) LTP(ctx context.Context, instrumentKey string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.LTP")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching LTP", "instrument_key", instrumentKey)

	price, err := breaker.Do(ob.cb, func() (float64, error) {
		return ob.broker.LTP(ctx, instrumentKey)
	})
	metrics.BrokerRequests.WithLabelValues("ltp", metrics.Result(err)).Inc()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch LTP", err, "instrument_key", instrumentKey)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "LTP fetched successfully", "instrument_key", instrumentKey, "price", price)
	return price, nil
}

func (ob *observableBroker) Quotes(ctx context.Context, instrumentKeys []string) (map[string]types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Quotes")
	defer span.End()

	quotes, err := breaker.Do(ob.cb, func() (map[string]types.Quote, error) {
		return ob.broker.Quotes(ctx, instrumentKeys)
	})
	metrics.BrokerRequests.WithLabelValues("quotes", metrics.Result(err)).Inc()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch quotes", err, "count", len(instrumentKeys))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Quotes fetched", "requested", len(instrumentKeys), "received", len(quotes))
	return quotes, nil
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"instrument_key", req.InstrumentKey,
		"side", req.Side,
		"order_type", req.OrderType,
		"qty", req.Qty,
		"price", req.Price.String(),
	)

	// orders bypass the breaker: a half-open probe must never be a trade
	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		metrics.Orders.WithLabelValues(req.Side, "FAILED").Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, err
	}

	metrics.Orders.WithLabelValues(req.Side, resp.Status).Inc()
	logger.Trade(ctx, req.Symbol, req.Side, req.Qty, req.Price.String(), resp.OrderID, "status", resp.Status)
	return resp, nil
}

func (ob *observableBroker) HistoricalCandles(ctx context.Context, instrumentKey string, from, to time.Time) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.HistoricalCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching historical candles",
		"instrument_key", instrumentKey,
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
	)

	candles, err := breaker.Do(ob.cb, func() ([]types.Candle, error) {
		return ob.broker.HistoricalCandles(ctx, instrumentKey, from, to)
	})
	metrics.BrokerRequests.WithLabelValues("candles", metrics.Result(err)).Inc()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err, "instrument_key", instrumentKey)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Candles fetched successfully", "instrument_key", instrumentKey, "count", len(candles))
	return candles, nil
}
