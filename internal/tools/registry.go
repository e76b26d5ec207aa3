// Package tools exposes the brokerage and data operations the agents can invoke by name.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fingreat/internal/logger"
	"fingreat/internal/metrics"
)

const (
	ViewBalance = "view_account_balance_tool"
	LivePrice   = "get_live_market_price_tool"
	PlaceOrder  = "place_order_tool"
	PriceRange  = "get_stock_price_range_tool"
	Financials  = "get_company_financials_tool"
	Background  = "get_company_background_information_tool"
)

var ErrUnknownTool = errors.New("unknown tool")

// Args are the decoded "arguments" object of a model reply.
type Args map[string]any

type Func func(ctx context.Context, args Args) (string, error)

type Tool struct {
	Name        string
	Aliases     []string
	Description string
	Params      []string
	Run         Func
}

type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Tool{}}
}

// Register adds t under its name and every alias. A later registration replaces an earlier one.
func (r *Registry) Register(t Tool) {
	if _, ok := r.byName[t.Name]; !ok {
		r.order = append(r.order, t.Name)
	}
	r.byName[t.Name] = t
	for _, a := range t.Aliases {
		r.byName[a] = t
	}
}

// Lookup resolves a name or alias to the canonical tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[strings.TrimSpace(name)]
	return t, ok
}

func (r *Registry) Call(ctx context.Context, name string, args Args) (string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		metrics.ToolCalls.WithLabelValues("unknown", metrics.ResultFailure).Inc()
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Args{}
	}
	out, err := t.Run(ctx, args)
	metrics.ToolCalls.WithLabelValues(t.Name, metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn(ctx, "Tool call failed", "tool", t.Name, "error", err)
		return "", err
	}
	logger.Debug(ctx, "Tool call succeeded", "tool", t.Name, "result", out)
	return out, nil
}

// Catalogue describes the registered tools for a system prompt, in registration order.
func (r *Registry) Catalogue() string {
	var sb strings.Builder
	for i, name := range r.order {
		t := r.byName[name]
		fmt.Fprintf(&sb, "%d. %s(%s): %s\n", i+1, t.Name, strings.Join(t.Params, ", "), t.Description)
	}
	return sb.String()
}

type userKey struct{}

// WithUser tags ctx with the user an order is placed for.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}
