package agents

import (
	"context"
	"fmt"
	"strings"

	"fingreat/internal/conversation"
	"fingreat/internal/interfaces"
	"fingreat/internal/llm"
	"fingreat/internal/logger"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

// Query is one user message to the master agent. The news fields are all set or all empty.
type Query struct {
	UserID             string
	Company            string
	Text               string
	News               string
	MovementPrediction string
	Explanation        string
}

// HasNewsContext reports whether all three news fields are present; PartialNewsContext whether only some are.
func (q Query) HasNewsContext() bool {
	return q.News != "" && q.MovementPrediction != "" && q.Explanation != ""
}

func (q Query) PartialNewsContext() bool {
	n := 0
	for _, s := range []string{q.News, q.MovementPrediction, q.Explanation} {
		if s != "" {
			n++
		}
	}
	return n > 0 && n < 3
}

type routeReply struct {
	Agent           string `json:"agent"`
	ResponseToAgent string `json:"response_to_agent"`
	ResponseToUser  string `json:"response_to_user"`
}

// MasterAgent classifies each query and delegates it to a specialist or answers it directly.
type MasterAgent struct {
	llm         interfaces.Completer
	store       conversation.Store
	specialists map[string]Specialist
}

func NewMasterAgent(c interfaces.Completer, s conversation.Store, specialists map[string]Specialist) *MasterAgent {
	return &MasterAgent{llm: c, store: s, specialists: specialists}
}

func (m *MasterAgent) Handle(ctx context.Context, q Query) (reply string, err error) {
	ctx, span := trace.StartSpan(ctx, "agents.Master")
	defer span.End()
	defer func() { observe(conversation.MasterAgent, err) }()

	if q.PartialNewsContext() {
		return "", ErrPartialNewsContext
	}
	if err := m.store.Append(ctx, conversation.MasterAgent, q.UserID, types.Turn{User: q.Text}); err != nil {
		return "", err
	}
	history, err := m.store.History(ctx, conversation.MasterAgent, q.UserID)
	if err != nil {
		return "", err
	}

	system := masterPrompt
	if q.HasNewsContext() {
		system += newsContextPrompt(q.Company, q.News, q.MovementPrediction, q.Explanation)
	}

	reply = m.route(ctx, q, system, conversation.FormatHistory(history))
	if err := m.store.SetLastReply(ctx, conversation.MasterAgent, q.UserID, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// route never fails: model and specialist errors become the reply text.
func (m *MasterAgent) route(ctx context.Context, q Query, system, prompt string) string {
	raw, err := m.llm.Complete(ctx, types.CompletionRequest{System: system, Prompt: prompt})
	if err != nil {
		return processingError(ctx, err)
	}
	var r routeReply
	if err := llm.ExtractJSON(raw, &r); err != nil {
		return processingError(ctx, err)
	}

	agent := strings.TrimSpace(r.Agent)
	if agent == "" {
		return r.ResponseToUser
	}
	logger.Agent(ctx, conversation.MasterAgent, "delegate", "to", agent, "user", q.UserID, "company", q.Company)

	s, ok := m.specialists[agent]
	if !ok {
		return "Unknown agent type: " + agent
	}
	out, err := s.Handle(ctx, q.UserID, q.Company, r.ResponseToAgent)
	if err != nil {
		return processingError(ctx, err)
	}
	return out
}

func processingError(ctx context.Context, err error) string {
	logger.ErrorWithErr(ctx, "Master agent failed to process query", err)
	return fmt.Sprintf("Error processing query: %v", err)
}
