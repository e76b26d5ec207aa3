package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one daily OHLCV bar; Ts is unix seconds at the session open.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

func (c Candle) Day() string {
	return time.Unix(c.Ts, 0).In(IST).Format("2006-01-02")
}

var IST = time.FixedZone("IST", 5*3600+1800)

type OrderReq struct {
	InstrumentKey string
	Symbol        string
	Side          string // BUY or SELL
	OrderType     string // MARKET or LIMIT
	Qty           int
	Price         decimal.Decimal
	Tag           string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Quote struct {
	LastPrice float64
	PrevClose float64
}

type MarketPrice struct {
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	PercentageChange float64 `json:"percentage_change"`
}

type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type CompletionRequest struct {
	System string
	Prompt string
}

type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Symbol      string    `json:"symbol"`
}

type ImpactRequest struct {
	NewsArticle   string `json:"news_article"`
	CompanyTicker string `json:"company_ticker"`
	DateOfPublish string `json:"date_of_publish"`
}

type ImpactStatus struct {
	Stage       int    `json:"stage"`
	Message     string `json:"message"`
	TotalStages int    `json:"total_stages"`
}

type Verdict struct {
	Result      string `json:"result"`
	Explanation string `json:"explanation"`
}
