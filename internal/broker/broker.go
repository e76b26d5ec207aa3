// Package broker holds what the brokerage adapters share: parameters, order checks and dry-run fills.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fingreat/internal/logger"
	"fingreat/internal/types"
)

const ModeDryRun = "DRY_RUN"

type Params struct {
	Mode        string
	APIKey      string
	AccessToken string
	BaseURL     string
	Exchange    string
	OrderTag    string
}

func (p Params) DryRun() bool {
	return p.Mode == ModeDryRun
}

// ValidateOrder rejects requests no broker would accept.
func ValidateOrder(req types.OrderReq) error {
	if req.InstrumentKey == "" {
		return errors.New("missing instrument key")
	}
	if req.Side != "BUY" && req.Side != "SELL" {
		return fmt.Errorf("invalid transaction type %q", req.Side)
	}
	if req.OrderType != "MARKET" && req.OrderType != "LIMIT" {
		return fmt.Errorf("invalid order type %q", req.OrderType)
	}
	if req.Qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", req.Qty)
	}
	if req.OrderType == "LIMIT" && !req.Price.IsPositive() {
		return errors.New("limit orders need a positive price")
	}
	return nil
}

// Simulate fills an order without touching the exchange.
func Simulate(ctx context.Context, req types.OrderReq) types.OrderResp {
	resp := types.OrderResp{
		OrderID: fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
		Status:  "SIMULATED",
		Message: "dry-run",
	}
	logger.Info(ctx, "Simulated order placed",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"order_id", resp.OrderID)
	return resp
}
