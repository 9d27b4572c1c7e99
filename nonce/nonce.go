// Package nonce issues request nonces for signed exchange actions.
package nonce

import (
	"sync"
	"time"
)

// Generator returns millisecond-timestamp nonces that are strictly
// increasing for the lifetime of the generator, even when several are
// requested within the same millisecond or the clock steps backwards.
type Generator struct {
	mu   sync.Mutex
	last uint64
	now  func() time.Time
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns max(now in ms, last+1).
func (g *Generator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := uint64(g.now().UnixMilli())
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return n
}

// Last returns the most recently issued nonce, or 0.
func (g *Generator) Last() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
