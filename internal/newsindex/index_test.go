package newsindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/llm/noop"
)

var corpus = []Article{
	{ID: "1", Title: "TCS bags large deal", Description: "TCS wins a large banking technology contract in Europe", Stocks: []string{"TCS"}, Date: "2024-05-02 10:15:00"},
	{ID: "2", Title: "Crude rises", Description: "Oil prices climb as supply tightens, refiners under pressure", Stocks: []string{"RELI", "ONGC"}, Date: "2024-06-10 09:00:00"},
	{ID: "3", Title: "Infosys deal", Description: "Infosys wins a technology contract with a European bank", Stocks: []string{"INFY"}, Date: "2024-07-01 12:30:00"},
}

func newIndex(t *testing.T) *Index {
	ix, err := New("", noop.Embedder{})
	require.NoError(t, err)
	for _, a := range corpus {
		require.NoError(t, ix.Add(context.Background(), a))
	}
	return ix
}

func TestSearchRanksSimilarArticles(t *testing.T) {
	ix := newIndex(t)
	res, err := ix.Search(context.Background(), "TCS wins a large technology contract", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "1", res[0].Article.ID)
	assert.Equal(t, []string{"TCS"}, res[0].Article.Stocks)
	assert.Equal(t, "TCS bags large deal", res[0].Article.Title)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
}

func TestSearchClampsToCollectionSize(t *testing.T) {
	ix := newIndex(t)
	res, err := ix.Search(context.Background(), "oil", 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)

	empty, err := New("", noop.Embedder{})
	require.NoError(t, err)
	res, err = empty.Search(context.Background(), "oil", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestAddRequiresID(t *testing.T) {
	ix := newIndex(t)
	assert.Error(t, ix.Add(context.Background(), Article{Title: "no id"}))
}

func TestLoadCorpusSkipsIndexedArticles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "1", "title": "a", "description": "alpha news", "stocks": ["TCS"], "date": "2024-01-01"},
		{"id": "9", "title": "b", "description": "beta news", "stocks": [], "date": "2024-01-02"}
	]`), 0o644))

	ix := newIndex(t)
	added, err := ix.LoadCorpus(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 4, ix.Count())

	_, err = ix.LoadCorpus(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestPersistentIndex(t *testing.T) {
	dir := t.TempDir()
	ix, err := New(dir, noop.Embedder{})
	require.NoError(t, err)
	require.NoError(t, ix.Add(context.Background(), corpus[0]))

	reopened, err := New(dir, noop.Embedder{})
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}
