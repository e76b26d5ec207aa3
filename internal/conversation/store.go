// Package conversation keeps per-agent, per-user dialogue history.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fingreat/internal/types"
)

const (
	StockAgent      = "stock_agent"
	FinancialAgent  = "financial_agent"
	BackgroundAgent = "background_agent"
	TradingAgent    = "trading_agent"
	MasterAgent     = "master_agent"
)

// AgentTypes lists every store namespace.
var AgentTypes = []string{StockAgent, FinancialAgent, BackgroundAgent, TradingAgent, MasterAgent}

var ErrUnknownAgent = errors.New("unknown agent type")

type Store interface {
	Append(ctx context.Context, agent, user string, turn types.Turn) error
	// SetLastReply fills the assistant side of the latest turn; no-op without turns.
	SetLastReply(ctx context.Context, agent, user, reply string) error
	History(ctx context.Context, agent, user string) ([]types.Turn, error)
	// Clear on MasterAgent wipes every agent for that user.
	Clear(ctx context.Context, agent, user string) error
	Context(ctx context.Context, agent, user string) (string, error)
	SetContext(ctx context.Context, agent, user, text string) error
	Close() error
}

func validAgent(agent string) error {
	for _, a := range AgentTypes {
		if a == agent {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownAgent, agent)
}

// clearTargets expands MasterAgent to all agent types.
func clearTargets(agent string) []string {
	if agent == MasterAgent {
		return AgentTypes
	}
	return []string{agent}
}

// FormatHistory renders turns as "User: ...\nAssistant: ..." blocks joined by newlines.
func FormatHistory(turns []types.Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, "User: "+t.User+"\nAssistant: "+t.Assistant)
	}
	return strings.Join(parts, "\n")
}
