// Package impact predicts how a news story will move a company's stock, streaming progress as it goes.
package impact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fingreat/internal/financials"
	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/knowledge"
	"fingreat/internal/llm"
	"fingreat/internal/logger"
	"fingreat/internal/market"
	"fingreat/internal/metrics"
	"fingreat/internal/newsindex"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

const (
	TotalStages       = 9
	similarCount      = 3
	recentSessions    = 5
	indicatorSessions = 21
)

var (
	ErrBadPublishDate = errors.New("date_of_publish must be YYYY-MM-DD or YYYY-MM-DD HH:MM:SS")
	ErrEmptyNews      = errors.New("news_article is empty")
)

// Searcher finds indexed articles similar to a text.
type Searcher interface {
	Search(ctx context.Context, text string, n int) ([]newsindex.Match, error)
}

// Emit receives each progress update. It is called synchronously from Run.
type Emit func(types.ImpactStatus)

type Pipeline struct {
	llm        interfaces.Completer
	search     Searcher
	history    *market.History
	graph      *knowledge.Graph
	financials *financials.Store
	catalog    *instruments.Catalog
}

func New(c interfaces.Completer, s Searcher, h *market.History, g *knowledge.Graph, fin *financials.Store, catalog *instruments.Catalog) *Pipeline {
	return &Pipeline{llm: c, search: s, history: h, graph: g, financials: fin, catalog: catalog}
}

// job is a validated request.
type job struct {
	news      string
	company   instruments.Instrument
	published time.Time
}

// Validate checks a request without calling any model, so callers can reject it before streaming.
func (p *Pipeline) Validate(req types.ImpactRequest) error {
	_, err := p.prepare(req)
	return err
}

func (p *Pipeline) prepare(req types.ImpactRequest) (job, error) {
	if strings.TrimSpace(req.NewsArticle) == "" {
		return job{}, ErrEmptyNews
	}
	in, err := p.catalog.Resolve(req.CompanyTicker)
	if err != nil {
		return job{}, err
	}
	published, err := ParsePublishDate(req.DateOfPublish)
	if err != nil {
		return job{}, err
	}
	return job{news: req.NewsArticle, company: in, published: published}, nil
}

// ParsePublishDate accepts "YYYY-MM-DD HH:MM:SS" or "YYYY-MM-DD", in IST.
func ParsePublishDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, types.IST); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadPublishDate, s)
}

// Run executes the nine analysis stages and returns the final verdict.
// Invalid requests fail before the first status is emitted.
func (p *Pipeline) Run(ctx context.Context, req types.ImpactRequest, emit Emit) (v types.Verdict, err error) {
	j, err := p.prepare(req)
	if err != nil {
		return types.Verdict{}, err
	}

	ctx, span := trace.StartSpan(ctx, "impact.Run")
	defer span.End()
	timer := logger.StartOperation(ctx, "impact_pipeline", "symbol", j.company.Symbol)
	defer func() {
		if err != nil {
			metrics.PipelineRuns.WithLabelValues("error").Inc()
			timer.EndWithError(err)
			return
		}
		metrics.PipelineRuns.WithLabelValues(v.Result).Inc()
		timer.End("result", v.Result)
	}()

	status := func(stage int, msg string) {
		emit(types.ImpactStatus{Stage: stage, Message: msg, TotalStages: TotalStages})
	}

	status(0, "Analysing your financial news")

	status(1, "Looking at similar events in the past")
	similar, err := p.similar(ctx, j.news)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("similar news: %w", err)
	}
	status(1, fmt.Sprintf("Retrieved %d similar articles for comparative study", len(similar)))

	status(2, "Analysing how market reacted to similar past events")
	examples, err := p.examples(ctx, similar)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("past reactions: %w", err)
	}
	status(2, fmt.Sprintf("Studied %d market reactions to past events", len(examples)))

	status(3, "Thinking about how your news will impact the market")
	factors, err := p.factors(ctx, j.company.Name, j.news)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("news factors: %w", err)
	}

	status(4, "Making an initial prediction")
	initial, err := p.verdict(ctx, fewShotPrompt(j.company.Name, examples, factors))
	if err != nil {
		return types.Verdict{}, fmt.Errorf("initial prediction: %w", err)
	}

	status(5, "Gathering background knowledge about the company")
	background, err := p.background(ctx, j)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("knowledge graph: %w", err)
	}

	status(6, "Looking at the company's financial metrics")
	fin, err := p.financialAnalysis(ctx, j.company.Symbol)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("financial analysis: %w", err)
	}

	status(7, "Putting the fundamentals together")
	refined, err := p.verdict(ctx, refineWithFundamentalsPrompt(factors, initial, background, fin))
	if err != nil {
		return types.Verdict{}, fmt.Errorf("first refinement: %w", err)
	}

	status(8, "Analysing how the stock performed over the last week")
	recent, err := p.recentPrices(ctx, j)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("recent prices: %w", err)
	}

	status(9, "Generating the final verdict")
	final, err := p.verdict(ctx, refineWithPricesPrompt(factors, refined, recent))
	if err != nil {
		return types.Verdict{}, fmt.Errorf("final verdict: %w", err)
	}
	return types.Verdict{Result: final.Result, Explanation: final.Explanation}, nil
}

func (p *Pipeline) similar(ctx context.Context, news string) ([]newsindex.Match, error) {
	matches, err := p.search.Search(ctx, news, similarCount)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, k int) bool { return matches[i].Score > matches[k].Score })
	if len(matches) > similarCount {
		matches = matches[:similarCount]
	}
	return matches, nil
}

// examples describes, for every Nifty 50 company a similar article touched, how its stock
// moved around that article and which factors the article raised.
func (p *Pipeline) examples(ctx context.Context, similar []newsindex.Match) ([]example, error) {
	var out []example
	for _, m := range similar {
		day, err := ParsePublishDate(m.Article.Date)
		if err != nil {
			logger.Warn(ctx, "Skipping similar article with bad date", "id", m.Article.ID, "date", m.Article.Date)
			continue
		}
		for _, sym := range p.symbolsFor(m.Article.Stocks) {
			movement, ok, err := p.movementAround(ctx, sym, day)
			if err != nil {
				return nil, err
			}
			if !ok {
				logger.Debug(ctx, "No sessions around article date", "symbol", sym, "date", m.Article.Date)
				continue
			}
			in, _ := p.catalog.Resolve(sym)
			factors, err := p.factors(ctx, in.Name, m.Article.Title+". "+m.Article.Description)
			if err != nil {
				return nil, err
			}
			out = append(out, example{Company: in.Name, Factors: factors, Movement: movement})
		}
	}
	return out, nil
}

// symbolsFor maps news codes to distinct catalogue symbols, keeping first-seen order.
func (p *Pipeline) symbolsFor(codes []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range codes {
		sym, ok := p.catalog.ByNewsCode(c)
		if !ok || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

func (p *Pipeline) movementAround(ctx context.Context, symbol string, day time.Time) (string, bool, error) {
	prev, okPrev, err := p.history.PreviousTradingClose(ctx, symbol, day)
	if err != nil {
		return "", false, err
	}
	next, okNext, err := p.history.NextTradingClose(ctx, symbol, day)
	if err != nil {
		return "", false, err
	}
	if !okPrev || !okNext {
		return "", false, nil
	}
	onDay, traded, err := p.history.CloseOn(ctx, symbol, day)
	if err != nil {
		return "", false, err
	}

	var prices strings.Builder
	fmt.Fprintf(&prices, "Last session before the news (%s): %.2f\n", prev.Day(), prev.Close)
	if traded {
		fmt.Fprintf(&prices, "News day (%s): %.2f\n", day.Format("2006-01-02"), onDay)
	}
	fmt.Fprintf(&prices, "Next session (%s): %.2f\n", next.Day(), next.Close)

	var r map[string]any
	if err := p.ask(ctx, movementPrompt(prices.String(), traded), &r); err != nil {
		return "", false, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Last session before the news: %s\n", describe(r["pre-day"]))
	if traded {
		fmt.Fprintf(&sb, "News day: %s\n", describe(r["news-day"]))
	}
	fmt.Fprintf(&sb, "Next session: %s", describe(r["post-day"]))
	return sb.String(), true, nil
}

// describe renders a movement value; models sometimes answer with numbers or lists.
func describe(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (p *Pipeline) factors(ctx context.Context, company, news string) ([]string, error) {
	var r struct {
		Factor []string `json:"factor"`
	}
	if err := p.ask(ctx, factorsPrompt(company, news), &r); err != nil {
		return nil, err
	}
	return r.Factor, nil
}

func (p *Pipeline) background(ctx context.Context, j job) (string, error) {
	edges := p.graph.Edges(j.company.Name)
	if len(edges) == 0 {
		return "No background information available.", nil
	}
	var picked struct {
		Relations []string `json:"important_relations"`
	}
	if err := p.ask(ctx, relationsPrompt(j.company.Name, j.news, edges), &picked); err != nil {
		return "", err
	}
	triples := p.graph.Select(j.company.Name, picked.Relations)
	if len(triples) == 0 {
		return "No relevant background information found.", nil
	}
	var r struct {
		Summary string `json:"summary"`
	}
	if err := p.ask(ctx, summariseTriplesPrompt(knowledge.FormatTriples(triples)), &r); err != nil {
		return "", err
	}
	return r.Summary, nil
}

func (p *Pipeline) financialAnalysis(ctx context.Context, symbol string) (string, error) {
	report := p.financials.Report(symbol)
	if report == "" {
		return "No financial data available.", nil
	}
	var r map[string]any
	if err := p.ask(ctx, financialAnalysisPrompt(report), &r); err != nil {
		return "", err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *Pipeline) recentPrices(ctx context.Context, j job) (string, error) {
	cs, err := p.history.LastTradingDays(ctx, j.company.Symbol, j.published, indicatorSessions)
	if err != nil {
		return "", err
	}
	if len(cs) == 0 {
		return "No recent price data available.", nil
	}
	var prices strings.Builder
	week := cs
	if len(week) > recentSessions {
		week = week[len(week)-recentSessions:]
	}
	for _, c := range week {
		fmt.Fprintf(&prices, "%s: %.2f\n", c.Day(), c.Close)
	}
	closes := market.Closes(cs)
	for _, ind := range []struct {
		label string
		v     float64
	}{
		{"5-session average close", market.SMA(closes, 5)},
		{"20-session average close", market.SMA(closes, 20)},
		{"14-session RSI", market.RSI(closes, 14)},
		{"14-session average true range", market.ATR(cs, 14)},
	} {
		if !math.IsNaN(ind.v) {
			fmt.Fprintf(&prices, "%s: %.2f\n", ind.label, ind.v)
		}
	}

	var r struct {
		Summary string `json:"summary"`
	}
	if err := p.ask(ctx, priceSummaryPrompt(prices.String()), &r); err != nil {
		return "", err
	}
	return r.Summary, nil
}

type verdictReply struct {
	Result      string `json:"result"`
	Explanation string `json:"explanation"`
}

func (p *Pipeline) verdict(ctx context.Context, prompt string) (verdictReply, error) {
	var r verdictReply
	if err := p.ask(ctx, prompt, &r); err != nil {
		return verdictReply{}, err
	}
	r.Result = strings.ToUpper(strings.Trim(strings.TrimSpace(r.Result), ".!"))
	switch r.Result {
	case "UP", "DOWN", "NEUTRAL":
		return r, nil
	default:
		return verdictReply{}, fmt.Errorf("unexpected prediction %q", r.Result)
	}
}

func (p *Pipeline) ask(ctx context.Context, prompt string, v any) error {
	reply, err := p.llm.Complete(ctx, types.CompletionRequest{Prompt: prompt})
	if err != nil {
		return err
	}
	return llm.ExtractJSON(reply, v)
}
