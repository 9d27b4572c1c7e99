// Package agent owns the lifecycle of the ephemeral agent keypair: generation,
// persistence, retrieval and invalidation.
package agent

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/storage"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/mo"
)

var (
	// ErrNoCredential is returned when there is no approved, unexpired
	// credential to sign with.
	ErrNoCredential = errors.New("agent: no approved credential")

	// ErrKeyMismatch is returned by MarkApprovedWithKey when the key does not
	// belong to the pending credential.
	ErrKeyMismatch = errors.New("agent: key does not match pending credential")
)

// Credential is an agent keypair and its approval state. It may only sign
// trading actions when Approved is true.
type Credential struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
	Approved   bool
	CreatedAt  time.Time
	Name       string
}

// Generated is the key material handed back by GenerateAndStore. It is meant
// for the approval flow only and is not readable from storage until approved.
type Generated struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// Store is what the signer needs from a credential store.
type Store interface {
	IsReady(ctx context.Context) bool
	GenerateAndStore(ctx context.Context) (Generated, error)
	MarkApprovedWithKey(ctx context.Context, key *ecdsa.PrivateKey) error
	Clear(ctx context.Context) error
	Credential(ctx context.Context) (Credential, error)
}

// record is the persisted form. privateKey is only written once approved.
type record struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey,omitempty"`
	Approved   bool   `json:"approved"`
	CreatedAt  int64  `json:"createdAt"`
	Name       string `json:"name,omitempty"`
}

// KeyStore is a Store backed by a storage.Backend, scoped to one master
// address on one network.
type KeyStore struct {
	mu      sync.Mutex
	backend storage.Backend
	key     string
	name    string
	maxAge  mo.Option[time.Duration]
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*KeyStore)

// WithMaxAge treats credentials older than d as expired.
func WithMaxAge(d time.Duration) Option {
	return func(s *KeyStore) {
		if d > 0 {
			s.maxAge = mo.Some(d)
		}
	}
}

// WithName records the agent name alongside the credential.
func WithName(name string) Option {
	return func(s *KeyStore) {
		s.name = name
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *KeyStore) {
		s.log = logger.OrNop(l)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *KeyStore) {
		s.now = now
	}
}

// NewKeyStore returns the credential store for master on network.
func NewKeyStore(
	backend storage.Backend,
	network types.Network,
	master common.Address,
	opts ...Option,
) *KeyStore {
	s := &KeyStore{
		backend: backend,
		key:     storage.Key("agent", string(network), master.Hex()),
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsReady reports whether an approved, unexpired credential exists. Storage
// failures read as not ready.
func (s *KeyStore) IsReady(ctx context.Context) bool {
	_, err := s.Credential(ctx)
	return err == nil
}

// Credential returns the approved credential, or ErrNoCredential.
func (s *KeyStore) Credential(ctx context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("agent credential unreadable", "error", err)
		}
		return Credential{}, ErrNoCredential
	}
	if !rec.Approved || rec.PrivateKey == "" {
		return Credential{}, ErrNoCredential
	}

	cred, err := rec.credential()
	if err != nil {
		s.log.Warn("agent credential corrupt", "error", err)
		return Credential{}, ErrNoCredential
	}

	if maxAge, ok := s.maxAge.Get(); ok && s.now().Sub(cred.CreatedAt) > maxAge {
		s.log.Info("agent credential expired", "agent", cred.Address, "createdAt", cred.CreatedAt)
		return Credential{}, ErrNoCredential
	}

	return cred, nil
}

// GenerateAndStore creates a fresh keypair and writes an unapproved record
// for it. The returned key is valid even if the write failed; the error then
// wraps storage.ErrUnavailable.
func (s *KeyStore) GenerateAndStore(ctx context.Context) (Generated, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Generated{}, fmt.Errorf("failed to generate agent key: %w", err)
	}

	gen := Generated{
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{
		Address:   gen.Address.Hex(),
		Approved:  false,
		CreatedAt: s.now().UnixMilli(),
		Name:      s.name,
	}
	if err := s.save(ctx, rec); err != nil {
		s.log.Warn("failed to persist pending agent", "agent", gen.Address, "error", err)
		return gen, err
	}

	s.log.Debug("agent generated", "agent", gen.Address)
	return gen, nil
}

// MarkApprovedWithKey persists key as the approved credential.
func (s *KeyStore) MarkApprovedWithKey(ctx context.Context, key *ecdsa.PrivateKey) error {
	if key == nil {
		return errors.New("agent: nil key")
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now().UnixMilli()
	pending, err := s.load(ctx)
	switch {
	case err == nil:
		if !strings.EqualFold(pending.Address, address.Hex()) {
			return ErrKeyMismatch
		}
		createdAt = pending.CreatedAt
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.log.Warn("pending agent unreadable", "error", err)
	}

	rec := record{
		Address:    address.Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		Approved:   true,
		CreatedAt:  createdAt,
		Name:       s.name,
	}
	if err := s.save(ctx, rec); err != nil {
		s.log.Warn("failed to persist approved agent", "agent", address, "error", err)
		return err
	}

	s.log.Info("agent approved", "agent", address)
	return nil
}

// Clear deletes the credential.
func (s *KeyStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.log.Warn("failed to clear agent", "error", err)
		return err
	}
	return nil
}

func (s *KeyStore) load(ctx context.Context) (record, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("failed to decode agent record: %w", err)
	}
	return rec, nil
}

func (s *KeyStore) save(ctx context.Context, rec record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key, raw)
}

func (r record) credential() (Credential, error) {
	raw, err := hexutil.Decode(r.PrivateKey)
	if err != nil {
		return Credential{}, err
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return Credential{}, err
	}
	address := crypto.PubkeyToAddress(key.PublicKey)
	if !strings.EqualFold(address.Hex(), r.Address) {
		return Credential{}, ErrKeyMismatch
	}
	return Credential{
		Address:    address,
		PrivateKey: key,
		Approved:   r.Approved,
		CreatedAt:  time.UnixMilli(r.CreatedAt),
		Name:       r.Name,
	}, nil
}
