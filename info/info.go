// Package info is the read side of the exchange API: account, order,
// staking, vault and referral state, optionally served through a tagged
// view cache.
package info

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/banky/go-hyperliquid-agent/cache"
	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/rest"
	"github.com/ethereum/go-ethereum/common"
)

// Poll intervals of the views that read each kind of state.
const (
	fastTTL   = 3 * time.Second
	normalTTL = 10 * time.Second
	slowTTL   = 30 * time.Second
	metaTTL   = 5 * time.Minute
)

// spot asset ids are offset from perp ids
const spotAssetOffset = 10000

// Info provides access to market data and user account information
type Info struct {
	rest  rest.ClientInterface
	cache *cache.Store
	log   *slog.Logger

	mu                sync.RWMutex
	coinToAsset       map[string]int
	assetToSzDecimals map[int]int
}

// Config for initializing the Info client
type Config struct {
	// Client is the transport; a REST client or a websocket post client.
	Client rest.ClientInterface
	// Cache is optional. Without one every call hits the API.
	Cache  *cache.Store
	Logger *slog.Logger
}

// New creates a new Info client
func New(cfg Config) *Info {
	return &Info{
		rest:              cfg.Client,
		cache:             cfg.Cache,
		log:               logger.OrNop(cfg.Logger),
		coinToAsset:       make(map[string]int),
		assetToSzDecimals: make(map[int]int),
	}
}

// Cache returns the view cache, nil when none is configured.
func (i *Info) Cache() *cache.Store {
	return i.cache
}

// query posts body to /info, going through the cache under a key derived
// from the request itself.
func query[T any](
	ctx context.Context,
	i *Info,
	ttl time.Duration,
	tags []cache.Tag,
	body map[string]any,
) (T, error) {
	key, err := json.Marshal(body)
	if err != nil {
		var zero T
		return zero, err
	}

	return cache.GetOrLoad(ctx, i.cache, string(key), ttl, tags, func(ctx context.Context) (T, error) {
		var result T
		err := i.rest.Post(ctx, "/info", body, &result)
		if err != nil {
			i.log.Debug("info query failed", "type", body["type"], "error", err)
		}
		return result, err
	})
}

func user(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// ===== Market Data Queries =====

// AllMids retrieves mid-prices for all coins.
func (i *Info) AllMids(ctx context.Context) (map[string]string, error) {
	return query[map[string]string](ctx, i, fastTTL, nil, map[string]any{
		"type": "allMids",
	})
}

// Meta retrieves exchange metadata for perpetuals.
func (i *Info) Meta(ctx context.Context) (*Meta, error) {
	return query[*Meta](ctx, i, metaTTL, []cache.Tag{cache.Meta}, map[string]any{
		"type": "meta",
	})
}

// SpotMeta retrieves exchange metadata for spot trading.
func (i *Info) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	return query[*SpotMeta](ctx, i, metaTTL, []cache.Tag{cache.Meta}, map[string]any{
		"type": "spotMeta",
	})
}

// ===== User Account Queries =====

// UserState retrieves account portfolio and position data.
func (i *Info) UserState(ctx context.Context, address common.Address) (*UserState, error) {
	return query[*UserState](ctx, i, fastTTL, []cache.Tag{cache.UserState}, map[string]any{
		"type": "clearinghouseState",
		"user": user(address),
	})
}

// SpotUserState retrieves spot balances.
func (i *Info) SpotUserState(ctx context.Context, address common.Address) (*SpotUserState, error) {
	return query[*SpotUserState](ctx, i, normalTTL, []cache.Tag{cache.SpotState}, map[string]any{
		"type": "spotClearinghouseState",
		"user": user(address),
	})
}

// OpenOrders retrieves a user's active orders.
func (i *Info) OpenOrders(ctx context.Context, address common.Address) ([]OpenOrder, error) {
	return query[[]OpenOrder](ctx, i, fastTTL, []cache.Tag{cache.OpenOrders}, map[string]any{
		"type": "openOrders",
		"user": user(address),
	})
}

// FrontendOpenOrders retrieves active orders with trigger details.
func (i *Info) FrontendOpenOrders(ctx context.Context, address common.Address) ([]FrontendOpenOrder, error) {
	return query[[]FrontendOpenOrder](ctx, i, fastTTL, []cache.Tag{cache.OpenOrders}, map[string]any{
		"type": "frontendOpenOrders",
		"user": user(address),
	})
}

// HistoricalOrders retrieves recent orders in any terminal or open state.
func (i *Info) HistoricalOrders(ctx context.Context, address common.Address) ([]HistoricalOrder, error) {
	return query[[]HistoricalOrder](ctx, i, slowTTL, []cache.Tag{cache.OpenOrders, cache.Fills}, map[string]any{
		"type": "historicalOrders",
		"user": user(address),
	})
}

// UserFills retrieves a user's fills/executed trades.
func (i *Info) UserFills(ctx context.Context, address common.Address) ([]Fill, error) {
	return query[[]Fill](ctx, i, normalTTL, []cache.Tag{cache.Fills}, map[string]any{
		"type": "userFills",
		"user": user(address),
	})
}

// UserFees retrieves a user's fee schedule and trading volume.
func (i *Info) UserFees(ctx context.Context, address common.Address) (*UserFees, error) {
	return query[*UserFees](ctx, i, slowTTL, []cache.Tag{cache.Fees}, map[string]any{
		"type": "userFees",
		"user": user(address),
	})
}

// ===== Staking =====

func (i *Info) DelegatorSummary(ctx context.Context, address common.Address) (*DelegatorSummary, error) {
	return query[*DelegatorSummary](ctx, i, normalTTL, []cache.Tag{cache.Staking}, map[string]any{
		"type": "delegatorSummary",
		"user": user(address),
	})
}

func (i *Info) Delegations(ctx context.Context, address common.Address) ([]Delegation, error) {
	return query[[]Delegation](ctx, i, normalTTL, []cache.Tag{cache.Delegations}, map[string]any{
		"type": "delegations",
		"user": user(address),
	})
}

func (i *Info) DelegatorRewards(ctx context.Context, address common.Address) ([]DelegatorReward, error) {
	return query[[]DelegatorReward](ctx, i, slowTTL, []cache.Tag{cache.Rewards}, map[string]any{
		"type": "delegatorRewards",
		"user": user(address),
	})
}

// ValidatorSummaries lists validators with their stake; delegating moves
// stake so it shares the delegations tag.
func (i *Info) ValidatorSummaries(ctx context.Context) ([]ValidatorSummary, error) {
	return query[[]ValidatorSummary](ctx, i, slowTTL, []cache.Tag{cache.Delegations}, map[string]any{
		"type": "validatorSummaries",
	})
}

// ===== Vaults =====

// VaultDetails retrieves a vault, including address's follower state when
// address is non-zero.
func (i *Info) VaultDetails(ctx context.Context, vault common.Address, address common.Address) (*VaultDetails, error) {
	body := map[string]any{
		"type":         "vaultDetails",
		"vaultAddress": user(vault),
	}
	if address != (common.Address{}) {
		body["user"] = user(address)
	}
	return query[*VaultDetails](ctx, i, slowTTL, []cache.Tag{cache.Vaults}, body)
}

func (i *Info) UserVaultEquities(ctx context.Context, address common.Address) ([]UserVaultEquity, error) {
	return query[[]UserVaultEquity](ctx, i, normalTTL, []cache.Tag{cache.Vaults}, map[string]any{
		"type": "userVaultEquities",
		"user": user(address),
	})
}

// ===== Referral, agents, sub-accounts =====

func (i *Info) Referral(ctx context.Context, address common.Address) (*ReferralState, error) {
	return query[*ReferralState](ctx, i, slowTTL, []cache.Tag{cache.Referral}, map[string]any{
		"type": "referral",
		"user": user(address),
	})
}

// ExtraAgents lists the API wallets approved by address.
func (i *Info) ExtraAgents(ctx context.Context, address common.Address) ([]ExtraAgent, error) {
	return query[[]ExtraAgent](ctx, i, slowTTL, []cache.Tag{cache.Agents}, map[string]any{
		"type": "extraAgents",
		"user": user(address),
	})
}

func (i *Info) SubAccounts(ctx context.Context, master common.Address) ([]SubAccount, error) {
	return query[[]SubAccount](ctx, i, slowTTL, []cache.Tag{cache.SubAccounts}, map[string]any{
		"type": "subAccounts",
		"user": user(master),
	})
}

// SubAccountAddresses lists the sub-account addresses owned by master.
func (i *Info) SubAccountAddresses(ctx context.Context, master common.Address) ([]common.Address, error) {
	subs, err := i.SubAccounts(ctx, master)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.SubAccountUser)
	}
	return out, nil
}

// ===== Coin/Asset Management =====

// LoadAssets fetches perp and spot metadata and builds the coin to asset id
// mapping used by order actions.
func (i *Info) LoadAssets(ctx context.Context) error {
	meta, err := i.Meta(ctx)
	if err != nil {
		return fmt.Errorf("failed to load meta: %w", err)
	}
	spotMeta, err := i.SpotMeta(ctx)
	if err != nil {
		return fmt.Errorf("failed to load spot meta: %w", err)
	}

	coinToAsset := make(map[string]int)
	szDecimals := make(map[int]int)

	if meta != nil {
		for asset, info := range meta.Universe {
			coinToAsset[info.Name] = asset
			szDecimals[asset] = info.SzDecimals
		}
	}

	if spotMeta != nil {
		tokens := make(map[int]SpotTokenInfo, len(spotMeta.Tokens))
		for _, t := range spotMeta.Tokens {
			tokens[t.Index] = t
		}
		for _, pair := range spotMeta.Universe {
			asset := spotAssetOffset + pair.Index
			coinToAsset[pair.Name] = asset

			base, ok := tokens[pair.Tokens[0]]
			if !ok {
				continue
			}
			szDecimals[asset] = base.SzDecimals

			// canonical pairs are also addressable as BASE/QUOTE
			if quote, ok := tokens[pair.Tokens[1]]; ok {
				name := base.Name + "/" + quote.Name
				if _, taken := coinToAsset[name]; !taken {
					coinToAsset[name] = asset
				}
			}
		}
	}

	i.mu.Lock()
	i.coinToAsset = coinToAsset
	i.assetToSzDecimals = szDecimals
	i.mu.Unlock()

	i.log.Debug("assets loaded", "count", len(coinToAsset))
	return nil
}

// Asset retrieves the asset id for a coin name
func (i *Info) Asset(name string) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	asset, ok := i.coinToAsset[name]
	return asset, ok
}

// SzDecimals retrieves the size precision of an asset
func (i *Info) SzDecimals(asset int) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	d, ok := i.assetToSzDecimals[asset]
	return d, ok
}

// SetAssets overrides the coin mapping, for callers that know it already.
func (i *Info) SetAssets(coinToAsset map[string]int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for coin, asset := range coinToAsset {
		i.coinToAsset[coin] = asset
	}
}
