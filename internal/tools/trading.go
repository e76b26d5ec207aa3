package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/logger"
	"fingreat/internal/tradelog"
	"fingreat/internal/types"
)

// Trading wraps the broker operations the trading agent may request.
type Trading struct {
	broker  interfaces.Broker
	catalog *instruments.Catalog
	tag     string
}

func NewTrading(b interfaces.Broker, catalog *instruments.Catalog, orderTag string) *Trading {
	return &Trading{broker: b, catalog: catalog, tag: orderTag}
}

func (t *Trading) Balance(ctx context.Context) (decimal.Decimal, error) {
	return t.broker.AvailableFunds(ctx)
}

// instrument accepts an instrument key or a catalogue symbol or name.
// Keys outside the catalogue pass through so the broker can judge them.
func (t *Trading) instrument(keyOrSymbol string) (instruments.Instrument, error) {
	in, err := t.catalog.ResolveKey(keyOrSymbol)
	if err == nil {
		return in, nil
	}
	if strings.Contains(keyOrSymbol, "|") {
		return instruments.Instrument{Key: keyOrSymbol}, nil
	}
	return instruments.Instrument{}, err
}

// ParseOrder turns place-order arguments into a validated request.
func (t *Trading) ParseOrder(args Args) (types.OrderReq, error) {
	raw, err := args.String("instrument_token")
	if err != nil {
		return types.OrderReq{}, err
	}
	in, err := t.instrument(raw)
	if err != nil {
		return types.OrderReq{}, err
	}

	orderType, err := args.String("order_type")
	if err != nil {
		return types.OrderReq{}, err
	}
	orderType = strings.ToUpper(orderType)
	if orderType != "LIMIT" && orderType != "MARKET" {
		return types.OrderReq{}, fmt.Errorf("order_type must be LIMIT or MARKET, got %q", orderType)
	}

	side, err := args.String("transaction_type")
	if err != nil {
		return types.OrderReq{}, err
	}
	side = strings.ToUpper(side)
	if side != "BUY" && side != "SELL" {
		return types.OrderReq{}, fmt.Errorf("transaction_type must be BUY or SELL, got %q", side)
	}

	qty, err := args.Int("quantity")
	if err != nil {
		return types.OrderReq{}, err
	}
	if qty <= 0 {
		return types.OrderReq{}, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	price := decimal.Zero
	if orderType == "LIMIT" {
		price, err = args.Decimal("price")
		if err != nil {
			return types.OrderReq{}, err
		}
		if !price.IsPositive() {
			return types.OrderReq{}, fmt.Errorf("limit orders need a positive price, got %s", price)
		}
	}

	return types.OrderReq{
		InstrumentKey: in.Key,
		Symbol:        in.Symbol,
		Side:          side,
		OrderType:     orderType,
		Qty:           qty,
		Price:         price,
		Tag:           t.tag,
	}, nil
}

// Execute places req and appends it to the trade log.
func (t *Trading) Execute(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	resp, err := t.broker.PlaceOrder(ctx, req)
	if err != nil {
		return types.OrderResp{}, err
	}
	if err := tradelog.Append(tradelog.FromOrder(UserFrom(ctx), req, resp)); err != nil {
		logger.ErrorWithErr(ctx, "Failed to append trade log", err, "order_id", resp.OrderID)
	}
	return resp, nil
}

func (t *Trading) Register(r *Registry) {
	r.Register(Tool{
		Name:        ViewBalance,
		Aliases:     []string{"view_upstox_account_balance_tool"},
		Description: "returns the available equity funds in rupees",
		Run: func(ctx context.Context, _ Args) (string, error) {
			bal, err := t.Balance(ctx)
			if err != nil {
				return "", err
			}
			return bal.String(), nil
		},
	})
	r.Register(Tool{
		Name:        LivePrice,
		Aliases:     []string{"get_current_market_price_tool"},
		Description: "returns the last traded price of the instrument",
		Params:      []string{"instrument_token"},
		Run: func(ctx context.Context, args Args) (string, error) {
			raw, err := args.String("instrument_token")
			if err != nil {
				return "", err
			}
			in, err := t.instrument(raw)
			if err != nil {
				return "", err
			}
			ltp, err := t.broker.LTP(ctx, in.Key)
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(ltp, 'f', -1, 64), nil
		},
	})
	r.Register(Tool{
		Name:        PlaceOrder,
		Aliases:     []string{"place_upstox_order_tool"},
		Description: "places a delivery order and returns the order id; order_type is LIMIT or MARKET, transaction_type is BUY or SELL, price is ignored for MARKET orders",
		Params:      []string{"instrument_token", "order_type", "quantity", "price", "transaction_type"},
		Run: func(ctx context.Context, args Args) (string, error) {
			req, err := t.ParseOrder(args)
			if err != nil {
				return "", err
			}
			resp, err := t.Execute(ctx, req)
			if err != nil {
				return "", err
			}
			return resp.OrderID, nil
		},
	})
}
