// Package storage persists the agent's small pieces of local state (the
// agent credential and the trading-context selection) under namespaced keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/banky/go-hyperliquid-agent/constants"
)

var (
	// ErrNotFound is returned by Get for keys that were never set or were
	// deleted.
	ErrNotFound = errors.New("storage: key not found")

	// ErrUnavailable marks failures of the backend itself (disabled, not
	// writable, unreachable). Callers degrade instead of failing hard.
	ErrUnavailable = errors.New("storage: unavailable")
)

// Backend is a persisted key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Key joins parts under the storage namespace, e.g.
// hyperliquid-agent:agent:testnet:0xabc...
func Key(parts ...string) string {
	all := append([]string{constants.STORAGE_NAMESPACE}, parts...)
	for i, p := range all {
		all[i] = strings.ToLower(p)
	}
	return strings.Join(all, ":")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// Disabled is a Backend where every call fails with ErrUnavailable, like a
// browser profile with local storage turned off.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%w: disabled", ErrUnavailable)
}

func (Disabled) Set(context.Context, string, []byte) error {
	return fmt.Errorf("%w: disabled", ErrUnavailable)
}

func (Disabled) Delete(context.Context, string) error {
	return fmt.Errorf("%w: disabled", ErrUnavailable)
}
