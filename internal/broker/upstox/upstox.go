package upstox

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fingreat/internal/api"
	"fingreat/internal/broker"
	"fingreat/internal/interfaces"
	"fingreat/internal/types"
)

const DefaultBaseURL = "https://api.upstox.com"

// paperFunds is reported in DRY_RUN when no access token is configured.
var paperFunds = decimal.NewFromInt(100000)

type Upstox struct {
	p    broker.Params
	http *api.Client
}

var _ interfaces.Broker = (*Upstox)(nil)

func New(p broker.Params) *Upstox {
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	return &Upstox{
		p: p,
		http: api.NewClient(
			api.WithBaseURL(p.BaseURL),
			api.WithHeaders(api.UpstoxHeaders(p.AccessToken)),
			api.WithTimeout(15*time.Second),
			// Upstox allows 25 req/s on standard APIs; stay well below
			api.WithRateLimit(10),
			api.WithName("upstox"),
		),
	}
}

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

func (u *Upstox) AvailableFunds(ctx context.Context) (decimal.Decimal, error) {
	if u.p.DryRun() && u.p.AccessToken == "" {
		return paperFunds, nil
	}

	var r envelope[struct {
		Equity struct {
			AvailableMargin decimal.Decimal `json:"available_margin"`
		} `json:"equity"`
	}]
	q := url.Values{"segment": {"SEC"}}
	if err := u.http.GetJSON(ctx, "/v2/user/get-funds-and-margin", q, &r); err != nil {
		return decimal.Zero, fmt.Errorf("upstox funds: %w", err)
	}
	return r.Data.Equity.AvailableMargin, nil
}

type ltpEntry struct {
	InstrumentToken string  `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
}

func (u *Upstox) LTP(ctx context.Context, instrumentKey string) (float64, error) {
	var r envelope[map[string]ltpEntry]
	q := url.Values{"instrument_key": {instrumentKey}}
	if err := u.http.GetJSON(ctx, "/v2/market-quote/ltp", q, &r); err != nil {
		return 0, fmt.Errorf("upstox ltp: %w", err)
	}
	for _, e := range r.Data {
		return e.LastPrice, nil
	}
	return 0, fmt.Errorf("upstox ltp: no data for %s", instrumentKey)
}

func (u *Upstox) Quotes(ctx context.Context, instrumentKeys []string) (map[string]types.Quote, error) {
	var r envelope[map[string]struct {
		InstrumentToken string  `json:"instrument_token"`
		LastPrice       float64 `json:"last_price"`
		NetChange       float64 `json:"net_change"`
	}]
	q := url.Values{"instrument_key": {strings.Join(instrumentKeys, ",")}}
	if err := u.http.GetJSON(ctx, "/v2/market-quote/quotes", q, &r); err != nil {
		return nil, fmt.Errorf("upstox quotes: %w", err)
	}

	out := make(map[string]types.Quote, len(r.Data))
	for _, e := range r.Data {
		out[e.InstrumentToken] = types.Quote{
			LastPrice: e.LastPrice,
			PrevClose: e.LastPrice - e.NetChange,
		}
	}
	return out, nil
}

type placeOrderBody struct {
	Quantity          int     `json:"quantity"`
	Product           string  `json:"product"`
	Validity          string  `json:"validity"`
	Price             float64 `json:"price"`
	Tag               string  `json:"tag"`
	InstrumentToken   string  `json:"instrument_token"`
	OrderType         string  `json:"order_type"`
	TransactionType   string  `json:"transaction_type"`
	DisclosedQuantity int     `json:"disclosed_quantity"`
	TriggerPrice      float64 `json:"trigger_price"`
	IsAMO             bool    `json:"is_amo"`
}

func (u *Upstox) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if err := broker.ValidateOrder(req); err != nil {
		return types.OrderResp{}, err
	}
	if u.p.DryRun() {
		return broker.Simulate(ctx, req), nil
	}
	if u.p.AccessToken == "" {
		return types.OrderResp{}, errors.New("missing UPSTOX_ACCESS_TOKEN")
	}

	tag := req.Tag
	if tag == "" {
		tag = u.p.OrderTag
	}
	body := placeOrderBody{
		Quantity:        req.Qty,
		Product:         "D",
		Validity:        "DAY",
		Price:           req.Price.InexactFloat64(),
		Tag:             tag,
		InstrumentToken: req.InstrumentKey,
		OrderType:       req.OrderType,
		TransactionType: req.Side,
	}

	var r envelope[struct {
		OrderID string `json:"order_id"`
	}]
	if err := u.http.PostJSON(ctx, "/v2/order/place", body, &r); err != nil {
		return types.OrderResp{}, fmt.Errorf("upstox place order: %w", err)
	}
	if r.Data.OrderID == "" {
		return types.OrderResp{}, fmt.Errorf("upstox place order: status %q without order id", r.Status)
	}
	return types.OrderResp{OrderID: r.Data.OrderID, Status: "PLACED", Message: r.Status}, nil
}

// HistoricalCandles returns daily candles in ascending order; Upstox sends them newest first.
func (u *Upstox) HistoricalCandles(ctx context.Context, instrumentKey string, from, to time.Time) ([]types.Candle, error) {
	path := fmt.Sprintf("/v2/historical-candle/%s/day/%s/%s",
		url.PathEscape(instrumentKey), to.Format("2006-01-02"), from.Format("2006-01-02"))

	var r envelope[struct {
		Candles [][]any `json:"candles"`
	}]
	if err := u.http.GetJSON(ctx, path, nil, &r); err != nil {
		return nil, fmt.Errorf("upstox candles: %w", err)
	}

	out := make([]types.Candle, 0, len(r.Data.Candles))
	for _, row := range r.Data.Candles {
		c, err := parseCandle(row)
		if err != nil {
			return nil, fmt.Errorf("upstox candles: %w", err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ts < out[j].Ts })
	return out, nil
}

// parseCandle reads [timestamp, open, high, low, close, volume, oi].
func parseCandle(row []any) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, fmt.Errorf("short candle row (%d fields)", len(row))
	}
	s, ok := row[0].(string)
	if !ok {
		return types.Candle{}, errors.New("candle timestamp is not a string")
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return types.Candle{}, fmt.Errorf("candle timestamp: %w", err)
	}

	var vals [5]float64
	for i := range vals {
		f, ok := row[i+1].(float64)
		if !ok {
			return types.Candle{}, fmt.Errorf("candle field %d is not a number", i+1)
		}
		vals[i] = f
	}
	return types.Candle{
		Ts:    ts.Unix(),
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Vol:   vals[4],
	}, nil
}
