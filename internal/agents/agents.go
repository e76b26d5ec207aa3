// Package agents implements the master router and the specialist agents it delegates to.
package agents

import (
	"context"
	"errors"
	"time"

	"fingreat/internal/metrics"
	"fingreat/internal/store"
)

// Names the master agent may delegate to.
const (
	StockPrice        = "stock_price_agent"
	FinancialMetrics  = "financial_metrics_agent"
	CompanyBackground = "company_background_agent"
	Trading           = "trading_agent"
)

var (
	ErrPartialNewsContext = errors.New("either provide all of movement_prediction, explanation, and news, or none of them")
	ErrNoPendingOrder     = errors.New("no pending order")
)

// Specialist answers one class of query for a user about a company.
type Specialist interface {
	Handle(ctx context.Context, userID, company, query string) (string, error)
}

type Options struct {
	MinDate           time.Time
	MaxDate           time.Time
	WindowDays        int
	CheckDataNeed     bool
	MaxToolIterations int
	ConfirmOrders     bool
	PendingTTL        time.Duration
}

func OptionsFromConfig(cfg *store.Config) Options {
	return Options{
		MinDate:           cfg.MinDate(),
		MaxDate:           cfg.MaxDate(),
		WindowDays:        cfg.Agents.DefaultWindowDays,
		CheckDataNeed:     cfg.Agents.CheckDataNeed,
		MaxToolIterations: cfg.Agents.MaxToolIterations,
		ConfirmOrders:     cfg.Agents.ConfirmOrders,
		PendingTTL:        10 * time.Minute,
	}
}

func observe(agent string, err error) {
	metrics.AgentRequests.WithLabelValues(agent, metrics.Result(err)).Inc()
}
