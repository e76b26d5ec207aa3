package agents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fingreat/internal/conversation"
	"fingreat/internal/financials"
	"fingreat/internal/instruments"
	"fingreat/internal/knowledge"
	"fingreat/internal/market"
	"fingreat/internal/tools"
	"fingreat/internal/types"
)

// scripted replies in order, then repeats the last reply forever when repeat is set.
type scripted struct {
	mu      sync.Mutex
	replies []string
	repeat  bool
	err     error
	reqs    []types.CompletionRequest
}

func (s *scripted) Complete(_ context.Context, req types.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	r := s.replies[0]
	if len(s.replies) > 1 || !s.repeat {
		s.replies = s.replies[1:]
	}
	return r, nil
}

func (s *scripted) last() types.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

type fakeBroker struct {
	mu      sync.Mutex
	funds   decimal.Decimal
	orders  []types.OrderReq
	candles map[string]float64
	fail    error
}

func (f *fakeBroker) AvailableFunds(context.Context) (decimal.Decimal, error) {
	return f.funds, nil
}

func (f *fakeBroker) LTP(context.Context, string) (float64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	return 3521.4, nil
}

func (f *fakeBroker) Quotes(context.Context, []string) (map[string]types.Quote, error) {
	return nil, nil
}

func (f *fakeBroker) PlaceOrder(_ context.Context, req types.OrderReq) (types.OrderResp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, req)
	return types.OrderResp{OrderID: "ORD-1", Status: "PLACED"}, nil
}

func (f *fakeBroker) HistoricalCandles(_ context.Context, _ string, from, to time.Time) ([]types.Candle, error) {
	var out []types.Candle
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if c, ok := f.candles[d.Format(dateLayout)]; ok {
			out = append(out, types.Candle{Ts: d.Unix(), Open: c, High: c, Low: c, Close: c, Vol: 10})
		}
	}
	return out, nil
}

type fixture struct {
	llm     *scripted
	broker  *fakeBroker
	store   *conversation.MemoryStore
	data    *tools.Data
	catalog *instruments.Catalog
	opts    Options
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	catalog := instruments.Default()
	fb := &fakeBroker{
		funds:   decimal.NewFromInt(50000),
		candles: map[string]float64{"2025-04-24": 100, "2025-04-25": 101},
	}
	h, err := market.NewHistory(fb, catalog, time.Minute)
	require.NoError(t, err)
	t.Cleanup(h.Close)

	fin, err := financials.Parse([]byte(`{"TCS":{"ttm":{"TTM":{"Revenue":240893,"NetProfit":46099}}}}`))
	require.NoError(t, err)
	g, err := knowledge.Parse([]byte("companies:\n  Tata Consultancy Services:\n    - {relation: industry, entity: IT Services}\n"))
	require.NoError(t, err)

	llm := &scripted{replies: replies}
	maxDate, _ := time.Parse(dateLayout, "2025-04-28")
	minDate, _ := time.Parse(dateLayout, "2003-01-01")
	return &fixture{
		llm:     llm,
		broker:  fb,
		store:   conversation.NewMemoryStore(),
		data:    tools.NewData(h, fin, g, catalog, llm),
		catalog: catalog,
		opts: Options{
			MinDate:           minDate,
			MaxDate:           maxDate,
			WindowDays:        30,
			MaxToolIterations: 10,
			PendingTTL:        10 * time.Minute,
		},
	}
}

func (f *fixture) history(t *testing.T, agent, user string) []types.Turn {
	h, err := f.store.History(context.Background(), agent, user)
	require.NoError(t, err)
	return h
}

func (f *fixture) trading() *TradingAgent {
	tr := tools.NewTrading(f.broker, f.catalog, "tag")
	r := tools.NewRegistry()
	tr.Register(r)
	f.data.Register(r)
	return NewTradingAgent(f.llm, f.store, r, tr, f.catalog, f.opts)
}
