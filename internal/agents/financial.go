package agents

import (
	"context"

	"fingreat/internal/conversation"
	"fingreat/internal/interfaces"
	"fingreat/internal/tools"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

const noFinancials = "No financial data available for this company."

type FinancialAgent struct {
	llm   interfaces.Completer
	store conversation.Store
	data  *tools.Data
}

func NewFinancialAgent(llm interfaces.Completer, s conversation.Store, data *tools.Data) *FinancialAgent {
	return &FinancialAgent{llm: llm, store: s, data: data}
}

func (a *FinancialAgent) Handle(ctx context.Context, userID, company, query string) (reply string, err error) {
	ctx, span := trace.StartSpan(ctx, "agents.FinancialMetrics")
	defer span.End()
	defer func() { observe(FinancialMetrics, err) }()

	report := a.data.Financials(company)
	if report == "" {
		return noFinancials, nil
	}
	return converse(ctx, a.llm, a.store, conversation.FinancialAgent, userID, query, financialsPrompt(company, report))
}

// converse appends the query, answers it against the full history and records the reply.
func converse(ctx context.Context, llm interfaces.Completer, s conversation.Store, agent, userID, query, system string) (string, error) {
	if err := s.Append(ctx, agent, userID, types.Turn{User: query}); err != nil {
		return "", err
	}
	history, err := s.History(ctx, agent, userID)
	if err != nil {
		return "", err
	}
	reply, err := llm.Complete(ctx, types.CompletionRequest{System: system, Prompt: conversation.FormatHistory(history)})
	if err != nil {
		return "", err
	}
	if err := s.SetLastReply(ctx, agent, userID, reply); err != nil {
		return "", err
	}
	return reply, nil
}
