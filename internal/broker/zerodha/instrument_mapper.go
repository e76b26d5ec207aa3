package zerodha

import (
	"fmt"
	"strings"
)

// tokenTable resolves NSE trading symbols to Kite instrument tokens.
// It is built once from broker.instrument_tokens and never mutated.
type tokenTable map[string]uint32

func newTokenTable(tokens map[string]uint32) tokenTable {
	t := make(tokenTable, len(tokens))
	for sym, tok := range tokens {
		if tok == 0 {
			continue
		}
		t[strings.ToUpper(strings.TrimSpace(sym))] = tok
	}
	return t
}

func (t tokenTable) token(symbol string) (int, error) {
	tok, ok := t[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("no Kite instrument token configured for %s (broker.instrument_tokens)", symbol)
	}
	return int(tok), nil
}
