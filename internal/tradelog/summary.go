package tradelog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fingreat/internal/types"
)

// SymbolSummary aggregates one day's orders for a symbol.
// Values only count LIMIT orders, since market orders carry no price.
type SymbolSummary struct {
	Symbol    string
	Orders    int
	BuyQty    int
	SellQty   int
	BuyValue  decimal.Decimal
	SellValue decimal.Decimal
}

// Summarize groups entries by symbol, sorted by symbol.
func Summarize(entries []Entry) []SymbolSummary {
	by := map[string]*SymbolSummary{}
	for _, e := range entries {
		s := by[e.Symbol]
		if s == nil {
			s = &SymbolSummary{Symbol: e.Symbol}
			by[e.Symbol] = s
		}
		s.Orders++
		value := e.Price.Mul(decimal.NewFromInt(int64(e.Qty)))
		switch e.Side {
		case "BUY":
			s.BuyQty += e.Qty
			s.BuyValue = s.BuyValue.Add(value)
		case "SELL":
			s.SellQty += e.Qty
			s.SellValue = s.SellValue.Add(value)
		}
	}
	out := make([]SymbolSummary, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func eodCSVPath(day time.Time) string {
	return filepath.Join(logDir(), "eod", day.In(types.IST).Format("2006-01-02")+".csv")
}

// WriteDaySummary writes the day's per-symbol CSV under <log dir>/eod and returns its path.
// Days without orders produce no file and an empty path.
func WriteDaySummary(day time.Time) (string, error) {
	entries, err := ReadDay(day)
	if err != nil || len(entries) == 0 {
		return "", err
	}
	rows := Summarize(entries)

	p := eodCSVPath(day)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"symbol", "orders", "buy_qty", "sell_qty", "buy_value", "sell_value"})
	var buy, sell decimal.Decimal
	for _, r := range rows {
		_ = w.Write([]string{r.Symbol, strconv.Itoa(r.Orders), strconv.Itoa(r.BuyQty), strconv.Itoa(r.SellQty), r.BuyValue.StringFixed(2), r.SellValue.StringFixed(2)})
		buy, sell = buy.Add(r.BuyValue), sell.Add(r.SellValue)
	}
	_ = w.Write([]string{"TOTAL", strconv.Itoa(len(entries)), "", "", buy.StringFixed(2), sell.StringFixed(2)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return p, nil
}
