package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/conversation"
)

type stubSpecialist struct {
	reply   string
	err     error
	company string
	query   string
}

func (s *stubSpecialist) Handle(_ context.Context, _, company, query string) (string, error) {
	s.company, s.query = company, query
	return s.reply, s.err
}

func newMaster(f *fixture, stub *stubSpecialist) *MasterAgent {
	return NewMasterAgent(f.llm, f.store, map[string]Specialist{
		StockPrice:        stub,
		FinancialMetrics:  stub,
		CompanyBackground: stub,
		Trading:           stub,
	})
}

func TestMasterDelegates(t *testing.T) {
	f := newFixture(t, "```json\n"+`{"agent": "financial_metrics_agent", "response_to_agent": "TCS revenue trend", "response_to_user": ""}`+"\n```")
	stub := &stubSpecialist{reply: "Revenue grew."}

	reply, err := newMaster(f, stub).Handle(context.Background(), Query{UserID: "u1", Company: "TCS", Text: "how is revenue?"})
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew.", reply)
	assert.Equal(t, "TCS", stub.company)
	assert.Equal(t, "TCS revenue trend", stub.query)
	assert.Equal(t, "Revenue grew.", f.history(t, conversation.MasterAgent, "u1")[0].Assistant)
}

func TestMasterAnswersDirectly(t *testing.T) {
	f := newFixture(t, `{"agent": "", "response_to_agent": "", "response_to_user": "Hello!"}`)
	reply, err := newMaster(f, &stubSpecialist{}).Handle(context.Background(), Query{UserID: "u1", Company: "TCS", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
	assert.Equal(t, masterPrompt, f.llm.last().System)
	assert.Equal(t, "User: hi\nAssistant: ", f.llm.last().Prompt)
}

func TestMasterFailuresBecomeReplies(t *testing.T) {
	cases := map[string]struct {
		reply   string
		llmErr  error
		specErr error
		want    string
	}{
		"unknown agent":    {reply: `{"agent": "tax_agent"}`, want: "Unknown agent type: tax_agent"},
		"not json":         {reply: "no idea", want: "Error processing query: no JSON object in reply"},
		"model error":      {llmErr: errors.New("quota exceeded"), want: "Error processing query: quota exceeded"},
		"specialist error": {reply: `{"agent": "stock_price_agent"}`, specErr: errors.New("boom"), want: "Error processing query: boom"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, tc.reply)
			f.llm.err = tc.llmErr
			reply, err := newMaster(f, &stubSpecialist{err: tc.specErr}).Handle(context.Background(), Query{UserID: "u1", Company: "TCS", Text: "q"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, reply)
			assert.Equal(t, tc.want, f.history(t, conversation.MasterAgent, "u1")[0].Assistant)
		})
	}
}

func TestMasterNewsContext(t *testing.T) {
	f := newFixture(t, `{"agent": "", "response_to_user": "ok"}`)
	m := newMaster(f, &stubSpecialist{})
	ctx := context.Background()

	_, err := m.Handle(ctx, Query{UserID: "u1", Company: "TCS", Text: "q", News: "TCS wins deal"})
	assert.ErrorIs(t, err, ErrPartialNewsContext)
	assert.Empty(t, f.history(t, conversation.MasterAgent, "u1"))

	_, err = m.Handle(ctx, Query{UserID: "u1", Company: "TCS", Text: "q", News: "TCS wins deal", MovementPrediction: "UP", Explanation: "big contract"})
	require.NoError(t, err)
	sys := f.llm.last().System
	assert.Contains(t, sys, "news impact analysis for TCS")
	assert.Contains(t, sys, "TCS wins deal")
	assert.Contains(t, sys, "Predicted movement: UP")
	assert.Contains(t, sys, "Explanation: big contract")
}
