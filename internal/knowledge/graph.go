// Package knowledge holds the company knowledge graph: per-node (relation, entity) edges loaded from YAML.
package knowledge

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Relation struct {
	Relation string `yaml:"relation" json:"relation"`
	Entity   string `yaml:"entity" json:"entity"`
}

// Triple is a (node, relation, entity) fact.
type Triple struct {
	Node     string
	Relation string
	Entity   string
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s, %s, %s)", t.Node, t.Relation, t.Entity)
}

type Graph struct {
	nodes map[string][]Relation
}

type document struct {
	Companies map[string][]Relation `yaml:"companies"`
}

func Load(path string) (*Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge graph: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Graph, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge graph: %w", err)
	}
	g := &Graph{nodes: make(map[string][]Relation, len(doc.Companies))}
	for node, rels := range doc.Companies {
		for i, r := range rels {
			if strings.TrimSpace(r.Relation) == "" || strings.TrimSpace(r.Entity) == "" {
				return nil, fmt.Errorf("knowledge graph node %q: edge %d needs relation and entity", node, i)
			}
		}
		g.nodes[node] = rels
	}
	return g, nil
}

func (g *Graph) Has(node string) bool {
	_, ok := g.nodes[node]
	return ok
}

// Relations returns the node's edges in file order; nil for an unknown node.
func (g *Graph) Relations(node string) []Relation {
	rels := g.nodes[node]
	if len(rels) == 0 {
		return nil
	}
	out := make([]Relation, len(rels))
	copy(out, rels)
	return out
}

// Edges returns the distinct relation names, sorted.
func (g *Graph) Edges(node string) []string {
	seen := map[string]struct{}{}
	for _, r := range g.nodes[node] {
		seen[r.Relation] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) Tuples(node string) []Triple {
	out := make([]Triple, 0, len(g.nodes[node]))
	for _, r := range g.nodes[node] {
		out = append(out, Triple{Node: node, Relation: r.Relation, Entity: r.Entity})
	}
	return out
}

// Select keeps the triples whose relation is one of edges.
func (g *Graph) Select(node string, edges []string) []Triple {
	want := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		want[e] = struct{}{}
	}
	var out []Triple
	for _, t := range g.Tuples(node) {
		if _, ok := want[t.Relation]; ok {
			out = append(out, t)
		}
	}
	return out
}

// FormatRelations renders edges as "(relation, entity)" pairs joined by ", ".
func FormatRelations(rels []Relation) string {
	parts := make([]string, len(rels))
	for i, r := range rels {
		parts[i] = fmt.Sprintf("(%s, %s)", r.Relation, r.Entity)
	}
	return strings.Join(parts, ", ")
}

func FormatTriples(ts []Triple) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
