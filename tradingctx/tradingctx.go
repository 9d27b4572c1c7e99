// Package tradingctx decides whose data a read targets and which vault
// address, if any, accompanies a write.
package tradingctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/storage"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
)

type Type string

const (
	Master     Type = "master"
	SubAccount Type = "subaccount"
)

const masterLabel = "Master"

var (
	ErrUnknownSubAccount = errors.New("tradingctx: address is not a sub-account of the connected wallet")
	ErrInvalidAddress    = errors.New("tradingctx: invalid sub-account address")
)

// TradingContext is the account the user is currently viewing and trading
// as. For a sub-account VaultAddress is always the sub-account's own
// address; for the master it is empty.
type TradingContext struct {
	Type         Type
	Address      common.Address
	Label        string
	VaultAddress mo.Option[common.Address]
}

func (c TradingContext) IsSubAccount() bool {
	return c.Type == SubAccount
}

// Resolution is a snapshot of the context for one call.
type Resolution struct {
	FetchAddress common.Address
	VaultAddress mo.Option[common.Address]
	IsSubAccount bool
	ContextLabel string
}

// SubAccountLister reports the sub-accounts owned by a master address.
type SubAccountLister interface {
	SubAccountAddresses(ctx context.Context, master common.Address) ([]common.Address, error)
}

type persisted struct {
	Type         Type    `json:"type"`
	Address      string  `json:"address"`
	Label        string  `json:"label"`
	VaultAddress *string `json:"vaultAddress,omitempty"`
}

type Resolver struct {
	mu      sync.RWMutex
	backend storage.Backend
	network types.Network
	master  mo.Option[common.Address]
	current mo.Option[TradingContext]
	lister  mo.Option[SubAccountLister]
	log     *slog.Logger
}

type Option func(*Resolver)

// WithSubAccountLister makes UseSubAccount verify ownership before switching.
func WithSubAccountLister(l SubAccountLister) Option {
	return func(r *Resolver) {
		if l != nil {
			r.lister = mo.Some(l)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.log = logger.OrNop(l)
	}
}

func New(backend storage.Backend, network types.Network, opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		network: network,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect binds the resolver to master and restores the persisted selection
// for it, falling back to the master context.
func (r *Resolver) Connect(ctx context.Context, master common.Address) TradingContext {
	selected := masterContext(master)

	raw, err := r.backend.Get(ctx, r.key(master))
	switch {
	case err == nil:
		if restored, ok := decode(raw); ok {
			selected = restored
		} else {
			r.log.Warn("ignoring unreadable trading context", "master", master)
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		r.log.Warn("trading context unavailable", "master", master, "error", err)
	}

	r.mu.Lock()
	r.master = mo.Some(master)
	r.current = mo.Some(selected)
	r.mu.Unlock()

	r.log.Debug("trading context connected", "master", master, "type", selected.Type, "address", selected.Address)
	return selected
}

// UseMaster switches back to the connected wallet's own account.
func (r *Resolver) UseMaster(ctx context.Context) {
	r.mu.Lock()
	master, connected := r.master.Get()
	r.current = mo.None[TradingContext]()
	if connected {
		r.current = mo.Some(masterContext(master))
	}
	r.mu.Unlock()

	if connected {
		r.persist(ctx, master, masterContext(master))
	}
}

// UseSubAccount switches to the sub-account at address. The switch applies
// to the next Resolve call.
func (r *Resolver) UseSubAccount(ctx context.Context, address common.Address, label string) error {
	if address == (common.Address{}) {
		return ErrInvalidAddress
	}

	r.mu.RLock()
	master, connected := r.master.Get()
	r.mu.RUnlock()

	if lister, ok := r.lister.Get(); ok && connected {
		subs, err := lister.SubAccountAddresses(ctx, master)
		if err != nil {
			return fmt.Errorf("failed to list sub-accounts: %w", err)
		}
		found := false
		for _, s := range subs {
			if s == address {
				found = true
				break
			}
		}
		if !found {
			return ErrUnknownSubAccount
		}
	}

	selected := subAccountContext(address, label)

	r.mu.Lock()
	r.current = mo.Some(selected)
	r.mu.Unlock()

	if connected {
		r.persist(ctx, master, selected)
	}
	r.log.Info("trading context switched", "subAccount", address, "label", selected.Label)
	return nil
}

// Current returns the selected context; the zero value before Connect.
func (r *Resolver) Current() TradingContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.OrEmpty()
}

// Resolve snapshots the addresses to use for master's next read or write.
func (r *Resolver) Resolve(master common.Address) Resolution {
	r.mu.RLock()
	current, ok := r.current.Get()
	r.mu.RUnlock()

	if !ok || current.Type != SubAccount {
		return Resolution{
			FetchAddress: master,
			VaultAddress: mo.None[common.Address](),
			ContextLabel: masterLabel,
		}
	}

	return Resolution{
		FetchAddress: current.Address,
		VaultAddress: mo.Some(current.Address),
		IsSubAccount: true,
		ContextLabel: current.Label,
	}
}

func (r *Resolver) FetchAddress(master common.Address) common.Address {
	return r.Resolve(master).FetchAddress
}

func (r *Resolver) VaultAddress() mo.Option[common.Address] {
	return r.Resolve(common.Address{}).VaultAddress
}

func (r *Resolver) key(master common.Address) string {
	return storage.Key("context", string(r.network), master.Hex())
}

func (r *Resolver) persist(ctx context.Context, master common.Address, c TradingContext) {
	p := persisted{
		Type:    c.Type,
		Address: c.Address.Hex(),
		Label:   c.Label,
	}
	if vault, ok := c.VaultAddress.Get(); ok {
		v := vault.Hex()
		p.VaultAddress = &v
	}

	raw, err := json.Marshal(p)
	if err == nil {
		err = r.backend.Set(ctx, r.key(master), raw)
	}
	if err != nil {
		r.log.Warn("failed to persist trading context", "master", master, "error", err)
	}
}

func decode(raw []byte) (TradingContext, bool) {
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return TradingContext{}, false
	}
	if !common.IsHexAddress(p.Address) {
		return TradingContext{}, false
	}
	address := common.HexToAddress(p.Address)

	switch p.Type {
	case Master:
		return masterContext(address), true
	case SubAccount:
		// the vault qualifier is always the sub-account itself
		return subAccountContext(address, p.Label), true
	}
	return TradingContext{}, false
}

func masterContext(master common.Address) TradingContext {
	return TradingContext{
		Type:         Master,
		Address:      master,
		Label:        masterLabel,
		VaultAddress: mo.None[common.Address](),
	}
}

func subAccountContext(address common.Address, label string) TradingContext {
	if label == "" {
		hex := address.Hex()
		label = hex[:6] + "…" + hex[len(hex)-4:]
	}
	return TradingContext{
		Type:         SubAccount,
		Address:      address,
		Label:        label,
		VaultAddress: mo.Some(address),
	}
}
