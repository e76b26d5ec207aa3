package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fingreat/internal/conversation"
	"fingreat/internal/interfaces"
	"fingreat/internal/logger"
	"fingreat/internal/tools"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

const dateLayout = "2006-01-02"

var loadedRange = regexp.MustCompile(`from (\d{4}-\d{2}-\d{2}) to (\d{4}-\d{2}-\d{2})`)

// StockAgent answers questions about historical prices, loading a date range the model picks.
type StockAgent struct {
	llm   interfaces.Completer
	store conversation.Store
	data  *tools.Data
	opts  Options
}

func NewStockAgent(llm interfaces.Completer, s conversation.Store, data *tools.Data, opts Options) *StockAgent {
	return &StockAgent{llm: llm, store: s, data: data, opts: opts}
}

func (a *StockAgent) Handle(ctx context.Context, userID, company, query string) (reply string, err error) {
	ctx, span := trace.StartSpan(ctx, "agents.StockPrice")
	defer span.End()
	defer func() { observe(StockPrice, err) }()

	if err := a.store.Append(ctx, conversation.StockAgent, userID, types.Turn{User: query}); err != nil {
		return "", err
	}
	prior, err := a.store.Context(ctx, conversation.StockAgent, userID)
	if err != nil {
		return "", err
	}

	var start, end string
	if m := loadedRange.FindStringSubmatch(prior); m != nil {
		start, end = m[1], m[2]
	}

	fetch, err := a.needsData(ctx, company, query, prior, start, end)
	if err != nil {
		return "", err
	}

	if fetch {
		reply, err = a.fresh(ctx, userID, company, query)
	} else {
		reply, err = a.followUp(ctx, userID, prior)
	}
	if err != nil {
		return "", err
	}
	if err := a.store.SetLastReply(ctx, conversation.StockAgent, userID, reply); err != nil {
		return "", err
	}
	return reply, nil
}

func (a *StockAgent) needsData(ctx context.Context, company, query, prior, start, end string) (bool, error) {
	if prior == "" || !a.opts.CheckDataNeed {
		return true, nil
	}
	answer, err := a.llm.Complete(ctx, types.CompletionRequest{
		System: dataNeedPrompt(company, start, end),
		Prompt: query,
	})
	if err != nil {
		return false, err
	}
	yes := strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "YES")
	logger.Agent(ctx, StockPrice, "data_need", "fetch", yes, "loaded_from", start, "loaded_to", end)
	return yes, nil
}

func (a *StockAgent) fresh(ctx context.Context, userID, company, query string) (string, error) {
	start, end, err := a.dateRange(ctx, query)
	if err != nil {
		return "", err
	}
	candles, err := a.data.PriceRange(ctx, company, start, end)
	if err != nil {
		return "", err
	}
	if len(candles) == 0 {
		return fmt.Sprintf("No stock data found for %s between %s and %s.", company, start, end), nil
	}

	system := stockAnalysisPrompt(company, start, end, tools.FormatCandles(candles))
	if err := a.store.SetContext(ctx, conversation.StockAgent, userID, system); err != nil {
		return "", err
	}
	logger.Agent(ctx, StockPrice, "data_loaded", "company", company, "from", start, "to", end, "rows", len(candles))

	return a.llm.Complete(ctx, types.CompletionRequest{System: system, Prompt: "User: " + query})
}

func (a *StockAgent) followUp(ctx context.Context, userID, prior string) (string, error) {
	history, err := a.store.History(ctx, conversation.StockAgent, userID)
	if err != nil {
		return "", err
	}
	return a.llm.Complete(ctx, types.CompletionRequest{System: prior, Prompt: conversation.FormatHistory(history)})
}

// dateRange asks the model for START_DATE/END_DATE lines and falls back to the default window
// ending at MaxDate when the reply is unusable or out of bounds.
func (a *StockAgent) dateRange(ctx context.Context, query string) (string, string, error) {
	minDate, maxDate := a.opts.MinDate.Format(dateLayout), a.opts.MaxDate.Format(dateLayout)
	reply, err := a.llm.Complete(ctx, types.CompletionRequest{
		System: dateRangePrompt(minDate, maxDate, a.opts.WindowDays),
		Prompt: query,
	})
	if err != nil {
		return "", "", err
	}
	start, end, ok := parseDateRange(reply)
	if ok && a.inBounds(start, end) {
		return start, end, nil
	}
	fallback := a.opts.MaxDate.AddDate(0, 0, -a.opts.WindowDays).Format(dateLayout)
	logger.Warn(ctx, "Unusable date range from model, using default window", "reply", reply, "from", fallback, "to", maxDate)
	return fallback, maxDate, nil
}

func parseDateRange(reply string) (start, end string, ok bool) {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		_, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch {
		case strings.HasPrefix(line, "START_DATE") && start == "":
			start = strings.TrimSpace(value)
		case strings.HasPrefix(line, "END_DATE") && end == "":
			end = strings.TrimSpace(value)
		}
	}
	return start, end, start != "" && end != ""
}

func (a *StockAgent) inBounds(start, end string) bool {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return false
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return false
	}
	return !s.Before(a.opts.MinDate) && !e.After(a.opts.MaxDate) && !e.Before(s)
}
