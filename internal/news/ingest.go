package news

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fingreat/internal/instruments"
	"fingreat/internal/logger"
	"fingreat/internal/newsindex"
	"fingreat/internal/types"
)

// Indexer is the part of the news index ingestion writes to.
type Indexer interface {
	AddMissing(ctx context.Context, articles []newsindex.Article) (int, error)
}

// Headlines is implemented by Scraper.
type Headlines interface {
	Scrape(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error)
}

// Ingestor keeps the similar-news index topped up with fresh headlines.
type Ingestor struct {
	scraper     Headlines
	index       Indexer
	catalog     *instruments.Catalog
	maxArticles int
}

func NewIngestor(s Headlines, index Indexer, catalog *instruments.Catalog, maxArticles int) *Ingestor {
	return &Ingestor{scraper: s, index: index, catalog: catalog, maxArticles: maxArticles}
}

// IngestOnce scrapes every symbol and returns how many new articles were indexed.
// Symbols that fail are logged and skipped.
func (in *Ingestor) IngestOnce(ctx context.Context, symbols []string) (int, error) {
	timer := logger.StartOperation(ctx, "news_ingest", "symbols", len(symbols))
	added := 0
	for _, sym := range symbols {
		inst, err := in.catalog.Resolve(sym)
		if err != nil {
			logger.Warn(ctx, "Skipping unknown symbol", "symbol", sym)
			continue
		}
		scraped, err := in.scraper.Scrape(ctx, inst.Symbol, in.maxArticles)
		if err != nil {
			if ctx.Err() != nil {
				timer.EndWithError(err)
				return added, err
			}
			logger.ErrorWithErr(ctx, "News scrape failed", err, "symbol", inst.Symbol)
			continue
		}
		articles := make([]newsindex.Article, 0, len(scraped))
		for _, a := range scraped {
			articles = append(articles, ToIndexArticle(a, inst))
		}
		n, err := in.index.AddMissing(ctx, articles)
		if err != nil {
			timer.EndWithError(err)
			return added, err
		}
		added += n
	}
	timer.End("added", added)
	return added, nil
}

// Run ingests all symbols now and then every interval until ctx is done.
func (in *Ingestor) Run(ctx context.Context, symbols []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := in.IngestOnce(ctx, symbols); err != nil && ctx.Err() == nil {
			logger.ErrorWithErr(ctx, "News ingestion failed", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ToIndexArticle converts a scraped headline. The ID is derived from the URL so rescrapes dedupe.
func ToIndexArticle(a types.NewsArticle, inst instruments.Instrument) newsindex.Article {
	desc := strings.TrimSpace(a.Content)
	if desc == "" {
		desc = a.Title
	}
	codes := inst.NewsCodes
	if len(codes) == 0 {
		codes = []string{inst.Symbol}
	}
	return newsindex.Article{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(a.URL)).String(),
		Title:       a.Title,
		Description: desc,
		Stocks:      append([]string(nil), codes...),
		Date:        a.PublishedAt.In(types.IST).Format("2006-01-02 15:04:05"),
	}
}
