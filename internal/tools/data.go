package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fingreat/internal/financials"
	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/knowledge"
	"fingreat/internal/market"
	"fingreat/internal/types"
)

const dateLayout = "2006-01-02"

// Data serves the read-only lookups behind the stock, financial and background agents.
type Data struct {
	history    *market.History
	financials *financials.Store
	graph      *knowledge.Graph
	catalog    *instruments.Catalog
	llm        interfaces.Completer
}

func NewData(h *market.History, fin *financials.Store, g *knowledge.Graph, catalog *instruments.Catalog, llm interfaces.Completer) *Data {
	return &Data{history: h, financials: fin, graph: g, catalog: catalog, llm: llm}
}

// PriceRange returns daily candles between the two YYYY-MM-DD dates, inclusive and ascending.
func (d *Data) PriceRange(ctx context.Context, company, start, end string) ([]types.Candle, error) {
	from, err := time.ParseInLocation(dateLayout, strings.TrimSpace(start), types.IST)
	if err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	to, err := time.ParseInLocation(dateLayout, strings.TrimSpace(end), types.IST)
	if err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	return d.history.Range(ctx, company, from, to)
}

// FormatCandles renders candles as a pipe-separated table with a header row.
func FormatCandles(cs []types.Candle) string {
	var sb strings.Builder
	sb.WriteString("Date | Open | High | Low | Close | Volume\n")
	for _, c := range cs {
		fmt.Fprintf(&sb, "%s | %.2f | %.2f | %.2f | %.2f | %.0f\n", c.Day(), c.Open, c.High, c.Low, c.Close, c.Vol)
	}
	return sb.String()
}

// Financials returns the company's report, or "" when there is none.
func (d *Data) Financials(company string) string {
	if d.financials == nil {
		return ""
	}
	if in, err := d.catalog.Resolve(company); err == nil {
		return d.financials.Report(in.Symbol)
	}
	return d.financials.Report(company)
}

// Background asks the model to summarise the company's knowledge-graph edges.
// A company without edges yields an empty summary and no model call.
func (d *Data) Background(ctx context.Context, company string) (string, error) {
	if d.graph == nil {
		return "", nil
	}
	in, err := d.catalog.Resolve(company)
	if err != nil {
		return "", err
	}
	rels := d.graph.Relations(in.Name)
	if len(rels) == 0 {
		return "", nil
	}
	prompt := fmt.Sprintf("We are talking about the company %s. Here are its known relations as (relation, entity) pairs: %s.\n"+
		"Write a short factual summary of the company's background using only these relations. Respond with plain text.",
		in.Name, knowledge.FormatRelations(rels))
	summary, err := d.llm.Complete(ctx, types.CompletionRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("summarise background: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func (d *Data) Register(r *Registry) {
	r.Register(Tool{
		Name:        PriceRange,
		Description: "returns daily open, high, low, close and volume between two YYYY-MM-DD dates",
		Params:      []string{"company_name", "start_date", "end_date"},
		Run: func(ctx context.Context, args Args) (string, error) {
			company, err := args.String("company_name")
			if err != nil {
				return "", err
			}
			start, err := args.String("start_date")
			if err != nil {
				return "", err
			}
			end, err := args.String("end_date")
			if err != nil {
				return "", err
			}
			cs, err := d.PriceRange(ctx, company, start, end)
			if err != nil {
				return "", err
			}
			if len(cs) == 0 {
				return fmt.Sprintf("No stock data found for %s between %s and %s.", company, start, end), nil
			}
			return FormatCandles(cs), nil
		},
	})
	r.Register(Tool{
		Name:        Financials,
		Description: "returns quarterly, yearly, cumulative and trailing-twelve-month financials",
		Params:      []string{"company"},
		Run: func(_ context.Context, args Args) (string, error) {
			company, err := args.String("company")
			if err != nil {
				return "", err
			}
			return d.Financials(company), nil
		},
	})
	r.Register(Tool{
		Name:        Background,
		Description: "returns a summary of the company's background",
		Params:      []string{"company"},
		Run: func(ctx context.Context, args Args) (string, error) {
			company, err := args.String("company")
			if err != nil {
				return "", err
			}
			return d.Background(ctx, company)
		},
	})
}
