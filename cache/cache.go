// Package cache holds short-lived copies of exchange read results, tagged by
// the kind of state they reflect so that successful writes can drop exactly
// the views they affect.
package cache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/banky/go-hyperliquid-agent/internal/logger"
)

type Tag string

const (
	UserState   Tag = "userState"
	OpenOrders  Tag = "openOrders"
	Fills       Tag = "fills"
	SpotState   Tag = "spotState"
	Staking     Tag = "staking"
	Delegations Tag = "delegations"
	Rewards     Tag = "rewards"
	Vaults      Tag = "vaults"
	Referral    Tag = "referral"
	Agents      Tag = "agents"
	SubAccounts Tag = "subAccounts"
	Fees        Tag = "fees"
	Meta        Tag = "meta"
)

type entry struct {
	value   any
	expires time.Time
	tags    []Tag
}

type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = logger.OrNop(l)
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result for ttl. Errors are not cached. A nil store always loads.
func GetOrLoad[T any](
	ctx context.Context,
	s *Store,
	key string,
	ttl time.Duration,
	tags []Tag,
	load func(context.Context) (T, error),
) (T, error) {
	if s == nil {
		return load(ctx)
	}

	if v, ok := s.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	s.set(key, v, ttl, tags)
	return v, nil
}

func (s *Store) get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *Store) set(key string, value any, ttl time.Duration, tags []Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:   value,
		expires: s.now().Add(ttl),
		tags:    slices.Clone(tags),
	}
}

// Invalidate drops every entry carrying any of tags and returns how many
// were dropped.
func (s *Store) Invalidate(tags ...Tag) int {
	if s == nil || len(tags) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for key, e := range s.entries {
		for _, t := range e.tags {
			if slices.Contains(tags, t) {
				delete(s.entries, key)
				dropped++
				break
			}
		}
	}

	s.log.Debug("cache invalidated", "tags", tags, "dropped", dropped)
	return dropped
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}
