package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode   string `yaml:"mode"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	} `yaml:"server"`
	LLM struct {
		Provider          string  `yaml:"provider"`
		Model             string  `yaml:"model"`
		EmbeddingModel    string  `yaml:"embedding_model"`
		MaxTokens         int     `yaml:"max_tokens"`
		Temperature       float32 `yaml:"temperature"`
		KeyEnvPrefix      string  `yaml:"key_env_prefix"`
		KeyCount          int     `yaml:"key_count"`
		RequestsPerMinute int     `yaml:"requests_per_minute"`
	} `yaml:"llm"`
	Broker struct {
		Provider         string            `yaml:"provider"`
		BaseURL          string            `yaml:"base_url"`
		Exchange         string            `yaml:"exchange"`
		OrderTag         string            `yaml:"order_tag"`
		InstrumentTokens map[string]uint32 `yaml:"instrument_tokens"`
	} `yaml:"broker"`
	Market struct {
		PollSeconds            int `yaml:"poll_seconds"`
		HistoryCacheTTLSeconds int `yaml:"history_cache_ttl_seconds"`
	} `yaml:"market"`
	Agents struct {
		MinDate           string `yaml:"min_date"`
		MaxDate           string `yaml:"max_date"`
		DefaultWindowDays int    `yaml:"default_window_days"`
		MaxToolIterations int    `yaml:"max_tool_iterations"`
		ConfirmOrders     bool   `yaml:"confirm_orders"`
		CheckDataNeed     bool   `yaml:"check_data_need"`
	} `yaml:"agents"`
	Data struct {
		FinancialsPath     string `yaml:"financials_path"`
		KnowledgeGraphPath string `yaml:"knowledge_graph_path"`
		NewsCorpusPath     string `yaml:"news_corpus_path"`
		NewsIndexDir       string `yaml:"news_index_dir"`
		ConversationsDB    string `yaml:"conversations_db"`
	} `yaml:"data"`
	News struct {
		ScrapeTimeoutSeconds  int `yaml:"scrape_timeout_seconds"`
		MaxArticles           int `yaml:"max_articles"`
		IngestIntervalMinutes int `yaml:"ingest_interval_minutes"`
	} `yaml:"news"`
	Breaker struct {
		LLM    BreakerSettings `yaml:"llm"`
		Broker BreakerSettings `yaml:"broker"`
	} `yaml:"breaker"`
}

type BreakerSettings struct {
	Enabled             bool    `yaml:"enabled"`
	MinRequests         uint32  `yaml:"min_requests"`
	FailureRatio        float64 `yaml:"failure_ratio"`
	OpenTimeoutSeconds  int     `yaml:"open_timeout_seconds"`
	HalfOpenMaxRequests uint32  `yaml:"half_open_max_requests"`
}

const dateLayout = "2006-01-02"

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	switch c.LLM.Provider {
	case "GEMINI", "OPENAI", "CLAUDE", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'GEMINI', 'OPENAI', 'CLAUDE' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.Broker.Provider != "UPSTOX" && c.Broker.Provider != "ZERODHA" {
		return fmt.Errorf("broker.provider must be 'UPSTOX' or 'ZERODHA', got '%s'", c.Broker.Provider)
	}
	if c.LLM.RequestsPerMinute <= 0 {
		return fmt.Errorf("llm.requests_per_minute must be positive, got %d", c.LLM.RequestsPerMinute)
	}
	minDate, err := time.Parse(dateLayout, c.Agents.MinDate)
	if err != nil {
		return fmt.Errorf("agents.min_date: %w", err)
	}
	maxDate, err := time.Parse(dateLayout, c.Agents.MaxDate)
	if err != nil {
		return fmt.Errorf("agents.max_date: %w", err)
	}
	if !minDate.Before(maxDate) {
		return errors.New("agents.min_date must be before agents.max_date")
	}
	if c.Agents.DefaultWindowDays <= 0 {
		return fmt.Errorf("agents.default_window_days must be positive, got %d", c.Agents.DefaultWindowDays)
	}
	if c.Market.PollSeconds <= 0 {
		return fmt.Errorf("market.poll_seconds must be positive, got %d", c.Market.PollSeconds)
	}
	for name, b := range map[string]BreakerSettings{"llm": c.Breaker.LLM, "broker": c.Breaker.Broker} {
		if b.Enabled && (b.FailureRatio <= 0 || b.FailureRatio > 1) {
			return fmt.Errorf("breaker.%s.failure_ratio must be in (0, 1], got %.2f", name, b.FailureRatio)
		}
	}
	return nil
}

// MinDate and MaxDate bound the historical data the stock agent may ask for.
func (c *Config) MinDate() time.Time {
	t, _ := time.Parse(dateLayout, c.Agents.MinDate)
	return t
}

func (c *Config) MaxDate() time.Time {
	t, _ := time.Parse(dateLayout, c.Agents.MaxDate)
	return t
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 300
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "GEMINI"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash-001"
	}
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = "text-embedding-004"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.KeyEnvPrefix == "" {
		c.LLM.KeyEnvPrefix = "GEMINI_API_KEY_"
	}
	if c.LLM.KeyCount == 0 {
		c.LLM.KeyCount = 8
	}
	if c.LLM.RequestsPerMinute == 0 {
		c.LLM.RequestsPerMinute = 15
	}

	if c.Broker.Provider == "" {
		c.Broker.Provider = "UPSTOX"
	}
	if c.Broker.Exchange == "" {
		c.Broker.Exchange = "NSE"
	}
	if c.Broker.OrderTag == "" {
		c.Broker.OrderTag = "fingreat_agent_order"
	}

	if c.Market.PollSeconds == 0 {
		c.Market.PollSeconds = 5
	}
	if c.Market.HistoryCacheTTLSeconds == 0 {
		c.Market.HistoryCacheTTLSeconds = 600
	}

	if c.Agents.MinDate == "" {
		c.Agents.MinDate = "2003-01-01"
	}
	if c.Agents.MaxDate == "" {
		c.Agents.MaxDate = "2025-04-28"
	}
	if c.Agents.DefaultWindowDays == 0 {
		c.Agents.DefaultWindowDays = 30
	}
	if c.Agents.MaxToolIterations == 0 {
		c.Agents.MaxToolIterations = 10
	}

	if c.Data.FinancialsPath == "" {
		c.Data.FinancialsPath = "data/company_financials.json"
	}
	if c.Data.KnowledgeGraphPath == "" {
		c.Data.KnowledgeGraphPath = "data/knowledge_graph.yaml"
	}
	if c.Data.NewsCorpusPath == "" {
		c.Data.NewsCorpusPath = "data/news_corpus.json"
	}
	if c.Data.NewsIndexDir == "" {
		c.Data.NewsIndexDir = "data/news_index"
	}
	if c.Data.ConversationsDB == "" {
		c.Data.ConversationsDB = "data/conversations.db"
	}

	if c.News.ScrapeTimeoutSeconds == 0 {
		c.News.ScrapeTimeoutSeconds = 30
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}

	breakerDefaults(&c.Breaker.LLM, 3, 60)
	breakerDefaults(&c.Breaker.Broker, 5, 30)
}

func breakerDefaults(b *BreakerSettings, minRequests uint32, openSeconds int) {
	if b.MinRequests == 0 {
		b.MinRequests = minRequests
	}
	if b.FailureRatio == 0 {
		b.FailureRatio = 0.6
	}
	if b.OpenTimeoutSeconds == 0 {
		b.OpenTimeoutSeconds = openSeconds
	}
	if b.HalfOpenMaxRequests == 0 {
		b.HalfOpenMaxRequests = 2
	}
}
