package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/agents"
	"fingreat/internal/conversation"
	"fingreat/internal/impact"
	"fingreat/internal/instruments"
	"fingreat/internal/tradelog"
	"fingreat/internal/types"
)

type fakeMaster struct {
	got   agents.Query
	reply string
	err   error
}

func (f *fakeMaster) Handle(_ context.Context, q agents.Query) (string, error) {
	f.got = q
	return f.reply, f.err
}

type fakeOrders struct {
	pending map[string]bool
}

func (f *fakeOrders) Confirm(_ context.Context, user, id string) (types.OrderResp, error) {
	if !f.pending[user+"/"+id] {
		return types.OrderResp{}, fmt.Errorf("%w: %s", agents.ErrNoPendingOrder, id)
	}
	delete(f.pending, user+"/"+id)
	return types.OrderResp{OrderID: "ORD-9", Status: "PLACED"}, nil
}

func (f *fakeOrders) Cancel(_ context.Context, user, id string) error {
	if !f.pending[user+"/"+id] {
		return fmt.Errorf("%w: %s", agents.ErrNoPendingOrder, id)
	}
	delete(f.pending, user+"/"+id)
	return nil
}

type fakePrices map[string]types.MarketPrice

func (f fakePrices) All() map[string]types.MarketPrice { return f }

func (f fakePrices) Get(symbol string) (types.MarketPrice, bool) {
	p, ok := f[symbol]
	return p, ok
}

type fakeCandles struct {
	from, to time.Time
}

func (f *fakeCandles) Range(_ context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	if symbol != "TCS" {
		return nil, fmt.Errorf("%w: %q", instruments.ErrUnknownInstrument, symbol)
	}
	f.from, f.to = from, to
	return []types.Candle{{Ts: from.Unix(), Open: 1, High: 2, Low: 0.5, Close: 1.5, Vol: 100}}, nil
}

type fakeImpact struct {
	fail error
}

func (f fakeImpact) Validate(req types.ImpactRequest) error {
	if req.CompanyTicker == "ACME" {
		return errors.New("unknown instrument")
	}
	return nil
}

func (f fakeImpact) Run(_ context.Context, _ types.ImpactRequest, emit impact.Emit) (types.Verdict, error) {
	emit(types.ImpactStatus{Stage: 0, Message: "start", TotalStages: 9})
	if f.fail != nil {
		return types.Verdict{}, f.fail
	}
	emit(types.ImpactStatus{Stage: 9, Message: "done", TotalStages: 9})
	return types.Verdict{Result: "UP", Explanation: "because"}, nil
}

type harness struct {
	srv    *httptest.Server
	master *fakeMaster
	orders *fakeOrders
	convs  *conversation.MemoryStore
	candle *fakeCandles
}

func newHarness(t *testing.T, im fakeImpact) *harness {
	h := &harness{
		master: &fakeMaster{reply: "hello"},
		orders: &fakeOrders{pending: map[string]bool{"u1/abc": true}},
		convs:  conversation.NewMemoryStore(),
		candle: &fakeCandles{},
	}
	s := New(":0", time.Second, time.Second, Deps{
		Master:        h.master,
		Orders:        h.orders,
		Conversations: h.convs,
		Prices:        fakePrices{"TCS": {Price: 3500, Change: 12.5, PercentageChange: 0.36}},
		Candles:       h.candle,
		Impact:        im,
	})
	h.srv = httptest.NewServer(s.Handler())
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteString("\n")
	}
	return resp, strings.TrimSpace(sb.String())
}

func TestWelcomeHealthAndMetrics(t *testing.T) {
	h := newHarness(t, fakeImpact{})

	resp, body := h.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome to FinGReaT!", body)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, body = h.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, _ = h.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodOptions, "/process_news", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMarketPrices(t *testing.T) {
	h := newHarness(t, fakeImpact{})

	_, body := h.do(t, http.MethodGet, "/market_prices", "")
	assert.JSONEq(t, `{"TCS":{"price":3500,"change":12.5,"percentage_change":0.36}}`, body)

	resp, body := h.do(t, http.MethodGet, "/market_price/TCS", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"price":3500,"change":12.5,"percentage_change":0.36}`, body)

	resp, body = h.do(t, http.MethodGet, "/market_price/ACME", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Symbol not found"}`, body)
}

func TestTimeSeries(t *testing.T) {
	h := newHarness(t, fakeImpact{})

	resp, body := h.do(t, http.MethodGet, "/time_series_price?company=TCS&from_date=2025-04-01&to_date=2025-04-10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"date":"2025-04-01","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}]`, body)
	assert.Equal(t, "2025-04-10", h.candle.to.Format(dateLayout))

	cases := map[string]int{
		"/time_series_price?from_date=2025-04-01&to_date=2025-04-10":              http.StatusBadRequest,
		"/time_series_price?company=TCS&from_date=04/01/2025&to_date=2025-04-10":  http.StatusBadRequest,
		"/time_series_price?company=TCS&from_date=2025-04-10&to_date=2025-04-01":  http.StatusBadRequest,
		"/time_series_price?company=ACME&from_date=2025-04-01&to_date=2025-04-10": http.StatusNotFound,
	}
	for path, want := range cases {
		resp, _ := h.do(t, http.MethodGet, path, "")
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestProcessNewsStreamsStatusLinesThenVerdict(t *testing.T) {
	h := newHarness(t, fakeImpact{})

	resp, body := h.do(t, http.MethodPost, "/process_news", `{"news_article":"x","company_ticker":"TCS","date_of_publish":"2025-04-25"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	lines := strings.Split(body, "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"stage":0,"message":"start","total_stages":9}`, lines[0])
	assert.JSONEq(t, `{"stage":9,"message":"done","total_stages":9}`, lines[1])
	assert.JSONEq(t, `{"result":"UP","explanation":"because"}`, lines[2])
}

func TestProcessNewsErrors(t *testing.T) {
	h := newHarness(t, fakeImpact{fail: errors.New("model unavailable")})

	resp, _ := h.do(t, http.MethodPost, "/process_news", `{"company_ticker":"ACME"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/process_news", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := h.do(t, http.MethodPost, "/process_news", `{"news_article":"x","company_ticker":"TCS","date_of_publish":"2025-04-25"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"error":"model unavailable"}`, lines[1])
}

func TestConversations(t *testing.T) {
	h := newHarness(t, fakeImpact{})
	ctx := context.Background()
	require.NoError(t, h.convs.Append(ctx, conversation.StockAgent, "u1", types.Turn{User: "hi", Assistant: "hello"}))

	resp, body := h.do(t, http.MethodGet, "/u1/agents/stock_agent/conversations", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"user":"hi","assistant":"hello"}]`, body)

	_, body = h.do(t, http.MethodGet, "/u2/agents/stock_agent/conversations", "")
	assert.JSONEq(t, `[]`, body)

	resp, _ = h.do(t, http.MethodGet, "/u1/agents/weather_agent/conversations", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = h.do(t, http.MethodDelete, "/u1/agents/master_agent/conversations", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Conversations cleared successfully"}`, body)

	turns, err := h.convs.History(ctx, conversation.StockAgent, "u1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMasterAgentValidation(t *testing.T) {
	h := newHarness(t, fakeImpact{})

	cases := []struct {
		body string
		want string
	}{
		{`{"query":"q","company":"TCS","news":"n"}`, "Either provide all of movement_prediction, explanation, and news, or none of them"},
		{`{"query":"q","news":"n","movement_prediction":"UP","explanation":"e"}`, "Please send company name"},
		{`{"company":"TCS"}`, "Please send user query"},
	}
	for _, tc := range cases {
		resp, body := h.do(t, http.MethodPost, "/u1/agents/master_agent", tc.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var e map[string]string
		require.NoError(t, json.Unmarshal([]byte(body), &e))
		assert.Equal(t, tc.want, e["error"])
	}
}

func TestMasterAgentForwardsQuery(t *testing.T) {
	h := newHarness(t, fakeImpact{})

	resp, body := h.do(t, http.MethodPost, "/u7/agents/master_agent",
		`{"query":"why?","company":"TCS","news":"deal","movement_prediction":"UP","explanation":"orders"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"response":"hello"}`, body)
	assert.Equal(t, agents.Query{UserID: "u7", Company: "TCS", Text: "why?", News: "deal", MovementPrediction: "UP", Explanation: "orders"}, h.master.got)

	h.master.err = agents.ErrPartialNewsContext
	resp, _ = h.do(t, http.MethodPost, "/u7/agents/master_agent", `{"query":"q","company":"TCS","news":"","movement_prediction":"UP","explanation":"e"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrders(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	h := newHarness(t, fakeImpact{})

	req := types.OrderReq{Symbol: "TCS", InstrumentKey: "NSE_EQ|INE467B01029", Side: "BUY", OrderType: "MARKET", Qty: 1, Price: decimal.Zero}
	require.NoError(t, tradelog.Append(tradelog.FromOrder("u1", req, types.OrderResp{OrderID: "A", Status: "PLACED"})))
	require.NoError(t, tradelog.Append(tradelog.FromOrder("u2", req, types.OrderResp{OrderID: "B", Status: "PLACED"})))

	resp, body := h.do(t, http.MethodGet, "/u1/orders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []tradelog.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].OrderID)

	resp, _ = h.do(t, http.MethodPost, "/u1/orders/nope/confirm", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = h.do(t, http.MethodPost, "/u1/orders/abc/confirm", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"order_id":"ORD-9","status":"PLACED"}`, body)

	h.orders.pending["u1/def"] = true
	resp, _ = h.do(t, http.MethodDelete, "/u1/orders/def", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.do(t, http.MethodDelete, "/u1/orders/def", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
