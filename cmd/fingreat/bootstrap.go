package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"fingreat/internal/agents"
	"fingreat/internal/breaker"
	"fingreat/internal/broker"
	"fingreat/internal/broker/brokerobs"
	"fingreat/internal/broker/upstox"
	"fingreat/internal/broker/zerodha"
	"fingreat/internal/conversation"
	"fingreat/internal/financials"
	"fingreat/internal/impact"
	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/knowledge"
	"fingreat/internal/llm/claude"
	"fingreat/internal/llm/gemini"
	"fingreat/internal/llm/keypool"
	"fingreat/internal/llm/llmobs"
	"fingreat/internal/llm/noop"
	"fingreat/internal/llm/openai"
	"fingreat/internal/logger"
	"fingreat/internal/market"
	"fingreat/internal/news"
	"fingreat/internal/newsindex"
	"fingreat/internal/store"
	"fingreat/internal/tools"
	"fingreat/internal/trace"
	"fingreat/internal/tradelog"
)

// app is every long-lived component, wired once per process.
type app struct {
	cfg      *store.Config
	catalog  *instruments.Catalog
	broker   interfaces.Broker
	history  *market.History
	feed     *market.Feed
	convs    conversation.Store
	index    *newsindex.Index
	ingestor *news.Ingestor
	trading  *agents.TradingAgent
	master   *agents.MasterAgent
	impact   *impact.Pipeline
}

// initializeSystem loads .env and starts logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
	logger.Sync()
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips trade logs older than TRADER_LOG_RETENTION_DAYS.
func compressOldLogs(ctx context.Context) {
	v := os.Getenv("TRADER_LOG_RETENTION_DAYS")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn(ctx, "Ignoring bad TRADER_LOG_RETENTION_DAYS", "value", v)
		return
	}
	if err := tradelog.CompressOlder(n); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

func initializeLLM(ctx context.Context, cfg *store.Config) (interfaces.Completer, interfaces.Embedder, error) {
	cb := breaker.New("llm", cfg.Breaker.LLM)

	var (
		c   interfaces.Completer
		emb interfaces.Embedder = noop.Embedder{}
	)
	switch cfg.LLM.Provider {
	case "GEMINI":
		g, err := gemini.New(cfg, keypool.FromEnv(cfg.LLM.KeyEnvPrefix, cfg.LLM.KeyCount, cfg.LLM.RequestsPerMinute))
		if err != nil {
			return nil, nil, err
		}
		c, emb = g, g
	case "OPENAI":
		o, err := openai.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		c = o
	case "CLAUDE":
		cl, err := claude.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		c = cl
	default:
		c = noop.New()
		logger.Warn(ctx, "No LLM provider configured - agents will only explain how to configure one")
	}
	if _, hashed := emb.(noop.Embedder); hashed {
		logger.Warn(ctx, "Using hashed word embeddings for the news index", "provider", cfg.LLM.Provider)
	}
	return llmobs.Wrap(c, cb), llmobs.WrapEmbedder(emb, cb), nil
}

func initializeBroker(ctx context.Context, cfg *store.Config, catalog *instruments.Catalog) interfaces.Broker {
	p := broker.Params{
		Mode:     cfg.Mode,
		BaseURL:  cfg.Broker.BaseURL,
		Exchange: cfg.Broker.Exchange,
		OrderTag: cfg.Broker.OrderTag,
	}

	var b interfaces.Broker
	switch cfg.Broker.Provider {
	case "ZERODHA":
		p.APIKey = os.Getenv("KITE_API_KEY")
		p.AccessToken = os.Getenv("KITE_ACCESS_TOKEN")
		b = zerodha.NewZerodha(p, catalog, cfg.Broker.InstrumentTokens)
	default:
		p.AccessToken = os.Getenv("UPSTOX_ACCESS_TOKEN")
		b = upstox.New(p)
	}

	if p.DryRun() {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return brokerobs.Wrap(b, breaker.New("broker", cfg.Breaker.Broker))
}

func initializeConversations(ctx context.Context, cfg *store.Config) (conversation.Store, error) {
	if cfg.Data.ConversationsDB == "" {
		return conversation.NewMemoryStore(), nil
	}
	s, err := conversation.NewBoltStore(cfg.Data.ConversationsDB)
	if err != nil {
		return nil, fmt.Errorf("open conversations db: %w", err)
	}
	logger.Info(ctx, "Conversation history persisted", "path", cfg.Data.ConversationsDB)
	return s, nil
}

// loadOptional runs load when path exists; a missing file yields empty data.
func loadOptional[T any](ctx context.Context, what, path string, load func(string) (T, error), empty func() (T, error)) (T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Warn(ctx, "Data file missing, starting without it", "data", what, "path", path)
		return empty()
	}
	return load(path)
}

func initializeIndex(ctx context.Context, cfg *store.Config, emb interfaces.Embedder) (*newsindex.Index, error) {
	ix, err := newsindex.New(cfg.Data.NewsIndexDir, emb)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Data.NewsCorpusPath); err == nil {
		if _, err := ix.LoadCorpus(ctx, cfg.Data.NewsCorpusPath); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

func buildApp(ctx context.Context, cfg *store.Config) (*app, error) {
	catalog := instruments.Default()

	completer, embedder, err := initializeLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	brk := initializeBroker(ctx, cfg, catalog)

	history, err := market.NewHistory(brk, catalog, time.Duration(cfg.Market.HistoryCacheTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	fin, err := loadOptional(ctx, "financials", cfg.Data.FinancialsPath, financials.Load,
		func() (*financials.Store, error) { return financials.Parse([]byte("{}")) })
	if err != nil {
		return nil, fmt.Errorf("load financials: %w", err)
	}
	graph, err := loadOptional(ctx, "knowledge graph", cfg.Data.KnowledgeGraphPath, knowledge.Load,
		func() (*knowledge.Graph, error) { return knowledge.Parse([]byte("companies: {}\n")) })
	if err != nil {
		return nil, fmt.Errorf("load knowledge graph: %w", err)
	}

	convs, err := initializeConversations(ctx, cfg)
	if err != nil {
		return nil, err
	}
	index, err := initializeIndex(ctx, cfg, embedder)
	if err != nil {
		_ = convs.Close()
		return nil, err
	}

	data := tools.NewData(history, fin, graph, catalog, completer)
	trading := tools.NewTrading(brk, catalog, cfg.Broker.OrderTag)
	registry := tools.NewRegistry()
	trading.Register(registry)
	data.Register(registry)

	opts := agents.OptionsFromConfig(cfg)
	tradingAgent := agents.NewTradingAgent(completer, convs, registry, trading, catalog, opts)
	master := agents.NewMasterAgent(completer, convs, map[string]agents.Specialist{
		agents.StockPrice:        agents.NewStockAgent(completer, convs, data, opts),
		agents.FinancialMetrics:  agents.NewFinancialAgent(completer, convs, data),
		agents.CompanyBackground: agents.NewBackgroundAgent(completer, convs, data),
		agents.Trading:           tradingAgent,
	})

	scraper := news.NewScraper(time.Duration(cfg.News.ScrapeTimeoutSeconds) * time.Second)

	return &app{
		cfg:      cfg,
		catalog:  catalog,
		broker:   brk,
		history:  history,
		feed:     market.NewFeed(brk, catalog, time.Duration(cfg.Market.PollSeconds)*time.Second),
		convs:    convs,
		index:    index,
		ingestor: news.NewIngestor(scraper, index, catalog, cfg.News.MaxArticles),
		trading:  tradingAgent,
		master:   master,
		impact:   impact.New(completer, index, history, graph, fin, catalog),
	}, nil
}

func (a *app) Close() {
	a.history.Close()
	if err := a.convs.Close(); err != nil {
		logger.Warn(context.Background(), "Failed to close conversation store", "error", err)
	}
}
