// Package keypool rotates requests across several API keys, each with its own rate limit.
package keypool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrNoKeys = errors.New("no API keys configured")

type Pool struct {
	mu       sync.Mutex
	keys     []string
	limiters []*rate.Limiter
	cursor   int
}

// New allows requestsPerMinute per key with a burst of one.
func New(keys []string, requestsPerMinute int) *Pool {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 15
	}
	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))

	p := &Pool{}
	for _, k := range keys {
		if k == "" {
			continue
		}
		p.keys = append(p.keys, k)
		p.limiters = append(p.limiters, rate.NewLimiter(every, 1))
	}
	return p
}

// FromEnv reads <prefix>1 .. <prefix>n, skipping unset variables.
func FromEnv(prefix string, n, requestsPerMinute int) *Pool {
	keys := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		keys = append(keys, os.Getenv(fmt.Sprintf("%s%d", prefix, i)))
	}
	return New(keys, requestsPerMinute)
}

func (p *Pool) Len() int {
	return len(p.keys)
}

// Next returns the first key from the cursor that can send a request now.
// When every key is exhausted it blocks on the key under the cursor.
func (p *Pool) Next(ctx context.Context) (string, error) {
	p.mu.Lock()
	n := len(p.keys)
	if n == 0 {
		p.mu.Unlock()
		return "", ErrNoKeys
	}

	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		if p.limiters[idx].Allow() {
			p.cursor = (idx + 1) % n
			key := p.keys[idx]
			p.mu.Unlock()
			return key, nil
		}
	}

	idx := p.cursor
	p.cursor = (idx + 1) % n
	key, lim := p.keys[idx], p.limiters[idx]
	p.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return "", err
	}
	return key, nil
}
