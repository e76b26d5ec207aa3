package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `
companies:
  Tata Consultancy Services:
    - {relation: headquartered_in, entity: Mumbai}
    - {relation: parent_organization, entity: Tata Group}
    - {relation: industry, entity: IT Services}
    - {relation: industry, entity: Consulting}
  Infosys:
    - {relation: founded_by, entity: N. R. Narayana Murthy}
`

func TestGraphQueries(t *testing.T) {
	g, err := Parse([]byte(doc))
	require.NoError(t, err)

	const tcs = "Tata Consultancy Services"
	assert.True(t, g.Has(tcs))
	assert.Len(t, g.Relations(tcs), 4)
	assert.Equal(t, []string{"headquartered_in", "industry", "parent_organization"}, g.Edges(tcs))

	sel := g.Select(tcs, []string{"industry", "not_a_relation"})
	require.Len(t, sel, 2)
	assert.Equal(t, Triple{Node: tcs, Relation: "industry", Entity: "IT Services"}, sel[0])
	assert.Equal(t, "(Tata Consultancy Services, industry, IT Services), (Tata Consultancy Services, industry, Consulting)", FormatTriples(sel))

	assert.Equal(t, "(founded_by, N. R. Narayana Murthy)", FormatRelations(g.Relations("Infosys")))
}

func TestUnknownNode(t *testing.T) {
	g, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.False(t, g.Has("Wipro"))
	assert.Nil(t, g.Relations("Wipro"))
	assert.Empty(t, g.Edges("Wipro"))
	assert.Empty(t, g.Tuples("Wipro"))
	assert.Empty(t, g.Select("Wipro", []string{"industry"}))
}

func TestRelationsReturnsCopy(t *testing.T) {
	g, err := Parse([]byte(doc))
	require.NoError(t, err)
	rels := g.Relations("Infosys")
	rels[0].Entity = "changed"
	assert.Equal(t, "N. R. Narayana Murthy", g.Relations("Infosys")[0].Entity)
}

func TestParseRejectsIncompleteEdges(t *testing.T) {
	_, err := Parse([]byte("companies:\n  X:\n    - {relation: industry}\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	g, err := Load(path)
	require.NoError(t, err)
	assert.True(t, g.Has("Infosys"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
