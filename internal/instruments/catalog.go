// Package instruments maps between NSE symbols, company names, broker instrument keys and news codes.
package instruments

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

type Instrument struct {
	Symbol    string
	Name      string // knowledge-graph node
	Key       string // Upstox instrument key, NSE_EQ|<ISIN>
	NewsCodes []string
}

// Catalog holds the lookup indexes; safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	bySym   map[string]Instrument
	byName  map[string]Instrument
	byKey   map[string]Instrument
	byNews  map[string]string
	symbols []string
}

// Default returns the Nifty 50 catalogue.
func Default() *Catalog {
	return New(nifty50)
}

func New(list []Instrument) *Catalog {
	c := &Catalog{
		bySym:  make(map[string]Instrument, len(list)),
		byName: make(map[string]Instrument, len(list)),
		byKey:  make(map[string]Instrument, len(list)),
		byNews: make(map[string]string),
	}
	for _, in := range list {
		c.add(in)
	}
	return c
}

func (c *Catalog) add(in Instrument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sym := strings.ToUpper(in.Symbol)
	if _, dup := c.bySym[sym]; !dup {
		c.symbols = append(c.symbols, in.Symbol)
		sort.Strings(c.symbols)
	}
	c.bySym[sym] = in
	c.byName[strings.ToLower(in.Name)] = in
	c.byKey[in.Key] = in
	for _, code := range in.NewsCodes {
		c.byNews[code] = in.Symbol
	}
}

// Resolve accepts a symbol or a company name, case-insensitively.
func (c *Catalog) Resolve(symbolOrName string) (Instrument, error) {
	q := strings.TrimSpace(symbolOrName)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if in, ok := c.bySym[strings.ToUpper(q)]; ok {
		return in, nil
	}
	if in, ok := c.byName[strings.ToLower(q)]; ok {
		return in, nil
	}
	return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, symbolOrName)
}

func (c *Catalog) ByKey(key string) (Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.byKey[key]
	return in, ok
}

// ResolveKey accepts an instrument key or anything Resolve accepts.
func (c *Catalog) ResolveKey(keyOrSymbol string) (Instrument, error) {
	if in, ok := c.ByKey(strings.TrimSpace(keyOrSymbol)); ok {
		return in, nil
	}
	return c.Resolve(keyOrSymbol)
}

// ByNewsCode maps a news-feed company code to its symbol. Codes are case-sensitive.
func (c *Catalog) ByNewsCode(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sym, ok := c.byNews[code]
	return sym, ok
}

func (c *Catalog) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

func (c *Catalog) Keys() []string {
	syms := c.Symbols()
	keys := make([]string, 0, len(syms))
	for _, s := range syms {
		in, _ := c.Resolve(s)
		keys = append(keys, in.Key)
	}
	return keys
}

// PromptTable renders "SYMBOL: KEY" lines for the trading prompt.
func (c *Catalog) PromptTable() string {
	var sb strings.Builder
	for _, s := range c.Symbols() {
		in, _ := c.Resolve(s)
		fmt.Fprintf(&sb, "%s: %s\n", in.Symbol, in.Key)
	}
	return sb.String()
}
