package zerodha

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"fingreat/internal/broker"
	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/types"
)

// Zerodha speaks Kite Connect; instrument keys are translated to EXCHANGE:SYMBOL through the catalogue.
type Zerodha struct {
	p       broker.Params
	api     kiteAPI
	catalog *instruments.Catalog
	tokens  tokenTable
}

var _ interfaces.Broker = (*Zerodha)(nil)

func NewZerodha(p broker.Params, catalog *instruments.Catalog, tokens map[string]uint32) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	return &Zerodha{
		p:       p,
		api:     newKiteClient(p.APIKey, p.AccessToken, p.BaseURL),
		catalog: catalog,
		tokens:  newTokenTable(tokens),
	}
}

func (z *Zerodha) tradingSymbol(instrumentKey string) (string, error) {
	in, err := z.catalog.ResolveKey(instrumentKey)
	if err != nil {
		return "", err
	}
	return in.Symbol, nil
}

func (z *Zerodha) kiteName(instrumentKey string) (string, error) {
	sym, err := z.tradingSymbol(instrumentKey)
	if err != nil {
		return "", err
	}
	return z.p.Exchange + ":" + sym, nil
}

func (z *Zerodha) AvailableFunds(ctx context.Context) (decimal.Decimal, error) {
	net, err := z.api.equityNet()
	if err != nil {
		return decimal.Zero, fmt.Errorf("kite margins: %w", err)
	}
	return decimal.NewFromFloat(net), nil
}

func (z *Zerodha) LTP(ctx context.Context, instrumentKey string) (float64, error) {
	name, err := z.kiteName(instrumentKey)
	if err != nil {
		return 0, err
	}
	res, err := z.api.ltp(name)
	if err != nil {
		return 0, fmt.Errorf("kite ltp: %w", err)
	}
	p, ok := res[name]
	if !ok {
		return 0, fmt.Errorf("kite ltp: no data for %s", name)
	}
	return p, nil
}

func (z *Zerodha) Quotes(ctx context.Context, instrumentKeys []string) (map[string]types.Quote, error) {
	names := make([]string, 0, len(instrumentKeys))
	keyByName := make(map[string]string, len(instrumentKeys))
	for _, k := range instrumentKeys {
		name, err := z.kiteName(k)
		if err != nil {
			continue
		}
		names = append(names, name)
		keyByName[name] = k
	}
	if len(names) == 0 {
		return map[string]types.Quote{}, nil
	}

	res, err := z.api.quotes(names...)
	if err != nil {
		return nil, fmt.Errorf("kite quotes: %w", err)
	}
	out := make(map[string]types.Quote, len(res))
	for name, q := range res {
		if k, ok := keyByName[name]; ok {
			out[k] = q
		}
	}
	return out, nil
}

func (z *Zerodha) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if err := broker.ValidateOrder(req); err != nil {
		return types.OrderResp{}, err
	}
	if z.p.DryRun() {
		return broker.Simulate(ctx, req), nil
	}
	if z.p.APIKey == "" || z.p.AccessToken == "" {
		return types.OrderResp{}, errors.New("missing API key/access token")
	}

	sym, err := z.tradingSymbol(req.InstrumentKey)
	if err != nil {
		return types.OrderResp{}, err
	}
	tag := req.Tag
	if tag == "" {
		tag = z.p.OrderTag
	}
	// Kite caps tags at 20 characters
	if len(tag) > 20 {
		tag = tag[:20]
	}

	params := kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   sym,
		Validity:        "DAY",
		Product:         "CNC",
		OrderType:       req.OrderType,
		TransactionType: req.Side,
		Quantity:        req.Qty,
		Tag:             tag,
	}
	if req.OrderType == "LIMIT" {
		params.Price = req.Price.InexactFloat64()
	}

	id, err := z.api.placeOrder(params)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("kite place order: %w", err)
	}
	return types.OrderResp{OrderID: id, Status: "PLACED", Message: "ok"}, nil
}

func (z *Zerodha) HistoricalCandles(ctx context.Context, instrumentKey string, from, to time.Time) ([]types.Candle, error) {
	sym, err := z.tradingSymbol(instrumentKey)
	if err != nil {
		return nil, err
	}
	token, err := z.tokens.token(sym)
	if err != nil {
		return nil, err
	}

	cs, err := z.api.candles(token, from, to)
	if err != nil {
		return nil, fmt.Errorf("kite historical: %w", err)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Ts < cs[j].Ts })
	return cs, nil
}
