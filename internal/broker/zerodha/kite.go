package zerodha

import (
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"fingreat/internal/types"
)

// kiteAPI is the slice of Kite Connect the adapter needs, in our own types.
type kiteAPI interface {
	equityNet() (float64, error)
	ltp(instruments ...string) (map[string]float64, error)
	quotes(instruments ...string) (map[string]types.Quote, error)
	placeOrder(p kiteconnect.OrderParams) (string, error)
	candles(token int, from, to time.Time) ([]types.Candle, error)
}

type kiteClient struct {
	kc *kiteconnect.Client
}

func newKiteClient(apiKey, accessToken, baseURL string) *kiteClient {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	if baseURL != "" {
		kc.SetBaseURI(baseURL)
	}
	return &kiteClient{kc: kc}
}

func (k *kiteClient) equityNet() (float64, error) {
	m, err := k.kc.GetUserMargins()
	if err != nil {
		return 0, err
	}
	return m.Equity.Net, nil
}

func (k *kiteClient) ltp(instruments ...string) (map[string]float64, error) {
	res, err := k.kc.GetLTP(instruments...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(res))
	for name, q := range res {
		out[name] = q.LastPrice
	}
	return out, nil
}

func (k *kiteClient) quotes(instruments ...string) (map[string]types.Quote, error) {
	res, err := k.kc.GetQuote(instruments...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.Quote, len(res))
	for name, q := range res {
		out[name] = types.Quote{LastPrice: q.LastPrice, PrevClose: q.LastPrice - q.NetChange}
	}
	return out, nil
}

func (k *kiteClient) placeOrder(p kiteconnect.OrderParams) (string, error) {
	res, err := k.kc.PlaceOrder("regular", p)
	if err != nil {
		return "", err
	}
	return res.OrderID, nil
}

func (k *kiteClient) candles(token int, from, to time.Time) ([]types.Candle, error) {
	rows, err := k.kc.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		return nil, err
	}
	out := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Candle{
			Ts:    r.Date.Unix(),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   float64(r.Volume),
		})
	}
	return out, nil
}
