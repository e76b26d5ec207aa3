// Package news scrapes company headlines from Indian financial news sites and feeds them into the similar-news index.
package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"fingreat/internal/logger"
	"fingreat/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper walks the configured sources in order.
type Scraper struct {
	sources []Source
	timeout time.Duration
	pause   time.Duration
}

type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // {symbol} is replaced with the lower-cased symbol
	Selectors  Selectors
}

// Selectors are CSS selectors relative to Container.
type Selectors struct {
	Container   string
	Title       string
	URL         string
	Content     string
	PublishedAt string
}

func NewScraper(timeout time.Duration, sources ...Source) *Scraper {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Scraper{sources: sources, timeout: timeout, pause: 2 * time.Second}
}

// WithPause sets the delay between sources and between article fetches.
func (s *Scraper) WithPause(d time.Duration) *Scraper {
	s.pause = d
	return s
}

func DefaultSources() []Source {
	return []Source{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{symbol}.html",
			Selectors: Selectors{
				Container:   "li.clearfix",
				Title:       "h2 a, h3 a",
				URL:         "h2 a, h3 a",
				Content:     "p",
				PublishedAt: "span.ago",
			},
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{symbol}",
			Selectors: Selectors{
				Container:   "div.story-box",
				Title:       "a",
				URL:         "a",
				Content:     "p",
				PublishedAt: "time",
			},
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={symbol}",
			Selectors: Selectors{
				Container:   "div.listing-txt",
				Title:       "a.Hdng",
				URL:         "a.Hdng",
				Content:     "p",
				PublishedAt: "span.listing-date",
			},
		},
	}
}

// Scrape collects up to maxArticles headlines for symbol, split evenly across sources.
// A failing source is logged and skipped.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	logger.Info(ctx, "Starting news scraping", "symbol", symbol, "sources", len(s.sources))

	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	all := []types.NewsArticle{}
	for i, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		articles, err := s.scrapeSource(ctx, src, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", src.Name, "symbol", symbol)
			continue
		}
		all = append(all, articles...)
		if i < len(s.sources)-1 {
			s.sleep(ctx)
		}
	}

	logger.Info(ctx, "News scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) collector(ctx context.Context, domains ...string) *colly.Collector {
	opts := []colly.CollectorOption{colly.MaxDepth(1), colly.StdlibContext(ctx)}
	if len(domains) > 0 {
		opts = append(opts, colly.AllowedDomains(domains...))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})
	return c
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, symbol string, limit int) ([]types.NewsArticle, error) {
	var articles []types.NewsArticle
	now := time.Now()

	c := s.collector(ctx, hostname(src.BaseURL))
	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		if len(articles) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText(src.Selectors.Title))
		link := e.ChildAttr(src.Selectors.URL, "href")
		if title == "" || link == "" {
			return
		}
		articles = append(articles, types.NewsArticle{
			Title:       title,
			URL:         e.Request.AbsoluteURL(link),
			Content:     strings.TrimSpace(e.ChildText(src.Selectors.Content)),
			Source:      src.Name,
			PublishedAt: ParsePublished(e.ChildText(src.Selectors.PublishedAt), now),
			Symbol:      symbol,
		})
	})
	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("%s: %w", r.Request.URL, err)
	})

	target := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", url.PathEscape(strings.ToLower(symbol)))
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("visit %s: %w", target, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}

	for i := range articles {
		if len(articles[i].Content) >= 100 {
			continue
		}
		s.sleep(ctx)
		if body := s.fetchBody(ctx, articles[i].URL); body != "" {
			articles[i].Content = body
		}
	}
	return articles, nil
}

// fetchBody returns the article's paragraphs, or "" when the page cannot be read.
func (s *Scraper) fetchBody(ctx context.Context, articleURL string) string {
	var body string
	c := s.collector(ctx)
	c.OnHTML("article, div.article-body, div.content-body, div.story-content", func(e *colly.HTMLElement) {
		if body == "" {
			body = paragraphs(e.DOM)
		}
	})
	if err := c.Visit(articleURL); err != nil {
		logger.Warn(ctx, "Failed to fetch article body", "url", articleURL, "error", err)
		return ""
	}
	c.Wait()
	return body
}

// paragraphs joins the substantial <p> texts under sel.
func paragraphs(sel *goquery.Selection) string {
	var out []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); len(text) > 20 {
			out = append(out, text)
		}
	})
	return strings.Join(out, "\n\n")
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"January 2, 2006 15:04 IST",
	"Jan 2, 2006 03:04 PM IST",
	"02 Jan 2006, 03:04 PM IST",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// ParsePublished reads the timestamps news listings print, in IST.
// Relative or unreadable stamps fall back to fallback.
func ParsePublished(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		if t, err := time.ParseInLocation(layout, s, types.IST); err == nil {
			return t
		}
	}
	return fallback.In(types.IST)
}

func (s *Scraper) sleep(ctx context.Context) {
	if s.pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.pause):
	}
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
