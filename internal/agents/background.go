package agents

import (
	"context"

	"fingreat/internal/conversation"
	"fingreat/internal/interfaces"
	"fingreat/internal/tools"
	"fingreat/internal/trace"
)

const noBackground = "No background information available."

type BackgroundAgent struct {
	llm   interfaces.Completer
	store conversation.Store
	data  *tools.Data
}

func NewBackgroundAgent(llm interfaces.Completer, s conversation.Store, data *tools.Data) *BackgroundAgent {
	return &BackgroundAgent{llm: llm, store: s, data: data}
}

func (a *BackgroundAgent) Handle(ctx context.Context, userID, company, query string) (reply string, err error) {
	ctx, span := trace.StartSpan(ctx, "agents.CompanyBackground")
	defer span.End()
	defer func() { observe(CompanyBackground, err) }()

	summary, err := a.data.Background(ctx, company)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return noBackground, nil
	}
	return converse(ctx, a.llm, a.store, conversation.BackgroundAgent, userID, query, backgroundPrompt(company, summary))
}
