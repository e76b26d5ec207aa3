// Package newsindex stores past news articles as embeddings and finds the ones most similar to a new story.
package newsindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"fingreat/internal/interfaces"
	"fingreat/internal/logger"
)

const collectionName = "news"

// Article is one indexed story. Stocks holds news-feed company codes.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Stocks      []string `json:"stocks"`
	Date        string   `json:"date"`
}

type Match struct {
	Article Article
	Score   float32
}

type Index struct {
	mu  sync.Mutex
	db  *chromem.DB
	col *chromem.Collection
}

// New opens the index. dir empty keeps it in memory; otherwise it persists under dir.
func New(dir string, embedder interfaces.Embedder) (*Index, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, true)
		if err != nil {
			return nil, fmt.Errorf("open news index %s: %w", dir, err)
		}
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("news collection: %w", err)
	}
	return &Index{db: db, col: col}, nil
}

func (ix *Index) Count() int {
	return ix.col.Count()
}

func (ix *Index) Add(ctx context.Context, a Article) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("article %q has no id", a.Title)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.col.AddDocument(ctx, toDocument(a))
}

// AddMissing indexes the articles whose ids are not in the index yet and reports how many were added.
func (ix *Index) AddMissing(ctx context.Context, articles []Article) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var docs []chromem.Document
	for _, a := range articles {
		if strings.TrimSpace(a.ID) == "" {
			continue
		}
		if _, err := ix.col.GetByID(ctx, a.ID); err == nil {
			continue
		}
		docs = append(docs, toDocument(a))
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := ix.col.AddDocuments(ctx, docs, 4); err != nil {
		return 0, fmt.Errorf("index news: %w", err)
	}
	return len(docs), nil
}

// Search returns up to n articles ordered by similarity to text. n is clamped to the collection size.
func (ix *Index) Search(ctx context.Context, text string, n int) ([]Match, error) {
	count := ix.col.Count()
	if n > count {
		n = count
	}
	if n <= 0 {
		return []Match{}, nil
	}
	res, err := ix.col.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search news: %w", err)
	}
	out := make([]Match, 0, len(res))
	for _, r := range res {
		out = append(out, Match{Article: fromResult(r), Score: r.Similarity})
	}
	return out, nil
}

// LoadCorpus reads a JSON array of articles and indexes those not already present.
func (ix *Index) LoadCorpus(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read news corpus: %w", err)
	}
	var articles []Article
	if err := json.Unmarshal(b, &articles); err != nil {
		return 0, fmt.Errorf("parse news corpus: %w", err)
	}
	added, err := ix.AddMissing(ctx, articles)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "News corpus loaded", "path", path, "articles", len(articles), "added", added, "indexed", ix.Count())
	return added, nil
}

func toDocument(a Article) chromem.Document {
	return chromem.Document{
		ID:      a.ID,
		Content: a.Description,
		Metadata: map[string]string{
			"title":  a.Title,
			"date":   a.Date,
			"stocks": strings.Join(a.Stocks, ","),
		},
	}
}

func fromResult(r chromem.Result) Article {
	var stocks []string
	if s := r.Metadata["stocks"]; s != "" {
		stocks = strings.Split(s, ",")
	}
	return Article{
		ID:          r.ID,
		Title:       r.Metadata["title"],
		Description: r.Content,
		Stocks:      stocks,
		Date:        r.Metadata["date"],
	}
}
