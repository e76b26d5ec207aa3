// Package financials renders per-company financial reports from a JSON document keyed by symbol.
package financials

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	quarters = []string{"Dec2024", "Sep2024", "Jun2024", "Mar2024"}
	years    = []string{"Mar2024", "Mar2023"}

	cumulativeSections = []struct{ label, field string }{
		{"Compounded Sales Growth", "CompoundedSalesGrowth"},
		{"Compounded Profit Growth", "CompoundedProfitGrowth"},
		{"Stock Price CAGR", "StockPriceCAGR"},
		{"Return on Equity", "ReturnonEquity"},
	}
)

type metrics map[string]any

type company struct {
	Quarterly  map[string]metrics `json:"quarterlydata"`
	Yearly     map[string]metrics `json:"yearlydata"`
	Cumulative map[string]metrics `json:"cumulativedata"`
	TTM        map[string]metrics `json:"ttm"`
}

type Store struct {
	companies map[string]company
}

func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read financials: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Store, error) {
	raw := map[string]company{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse financials: %w", err)
	}
	s := &Store{companies: make(map[string]company, len(raw))}
	for sym, c := range raw {
		s.companies[strings.ToUpper(sym)] = c
	}
	return s, nil
}

func (s *Store) Has(symbol string) bool {
	_, ok := s.companies[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// Report returns the formatted report, or "" when the symbol has no data.
func (s *Store) Report(symbol string) string {
	c, ok := s.companies[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return ""
	}

	lines := []string{"Quarterly Performance (Last 4 Quarters):"}
	for _, q := range quarters {
		m := c.Quarterly[q]
		if len(m) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  - %s: Revenue - %s Cr Rupees, Net Profit - %s Cr Rupees",
			q, m.revenue(), m.get("NetProfit")))
	}

	lines = append(lines, "", "Yearly Performance (Last 2 Years):")
	for _, y := range years {
		m := c.Yearly[y]
		if len(m) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  - %s: Revenue - %s Cr Rupees, Net Profit - %s Cr Rupees, Total Assets - %s Cr Rupees, Net Cash Flow - %s Cr Rupees",
			y, m.revenue(), m.get("NetProfit"), m.get("TotalAssets"), m.get("NetCashFlow")))
	}

	lines = append(lines, "", "Cumulative Performance Over Time:")
	for _, sec := range cumulativeSections {
		m := c.Cumulative[sec.field]
		parts := make([]string, 0, len(m))
		for _, period := range periodOrder(m) {
			parts = append(parts, fmt.Sprintf("%s: %s%%", period, m.get(period)))
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s", sec.label, strings.Join(parts, ", ")))
	}

	ttm := c.TTM["TTM"]
	lines = append(lines, "", "Trailing Twelve Months (TTM) Performance:",
		fmt.Sprintf("  - Total Revenue: %s Cr Rupees, Net Profit: %s Cr Rupees", ttm.revenue(), ttm.get("NetProfit")))

	return strings.Join(lines, "\n")
}

func (m metrics) revenue() string {
	if v, ok := m["Revenue"]; ok && v != nil {
		return format(v)
	}
	return m.get("Sales")
}

func (m metrics) get(k string) string {
	v, ok := m[k]
	if !ok || v == nil {
		return "N/A"
	}
	return format(v)
}

func format(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		if t == "" {
			return "N/A"
		}
		return t
	default:
		return fmt.Sprint(t)
	}
}

// periodOrder sorts "10 Years", "5 Years", "TTM" by leading year count, descending; others last, alphabetically.
func periodOrder(m metrics) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, oki := leadingNumber(keys[i])
		nj, okj := leadingNumber(keys[j])
		switch {
		case oki && okj && ni != nj:
			return ni > nj
		case oki != okj:
			return oki
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func leadingNumber(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}
