package info

import (
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
)

// ===== Metadata =====

// AssetInfo contains metadata about a perpetual asset
type AssetInfo struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
	OnlyIsolated bool   `json:"onlyIsolated,omitempty"`
	IsDelisted   bool   `json:"isDelisted,omitempty"`
}

// Meta contains exchange metadata for perpetuals
type Meta struct {
	Universe []AssetInfo `json:"universe"`
}

// SpotAssetInfo contains spot pair metadata
type SpotAssetInfo struct {
	Name        string `json:"name"`
	Tokens      [2]int `json:"tokens"`
	Index       int    `json:"index"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotTokenInfo contains spot token metadata
type SpotTokenInfo struct {
	Name        string  `json:"name"`
	SzDecimals  int     `json:"szDecimals"`
	WeiDecimals int     `json:"weiDecimals"`
	Index       int     `json:"index"`
	TokenId     string  `json:"tokenId"`
	IsCanonical bool    `json:"isCanonical"`
	EvmContract any     `json:"evmContract"`
	FullName    *string `json:"fullName"`
}

// SpotMeta contains exchange metadata for spot trading
type SpotMeta struct {
	Universe []SpotAssetInfo `json:"universe"`
	Tokens   []SpotTokenInfo `json:"tokens"`
}

// ===== Perp account =====

// Leverage represents leverage configuration
type Leverage struct {
	Type   string            `json:"type"` // "cross" or "isolated"
	Value  int               `json:"value"`
	RawUsd types.FloatString `json:"rawUsd,omitempty"` // Only for isolated
}

type Position struct {
	Coin           string            `json:"coin"`
	EntryPx        types.FloatString `json:"entryPx"`
	Leverage       Leverage          `json:"leverage"`
	LiquidationPx  types.FloatString `json:"liquidationPx"`
	MarginUsed     types.FloatString `json:"marginUsed"`
	PositionValue  types.FloatString `json:"positionValue"`
	ReturnOnEquity types.FloatString `json:"returnOnEquity"`
	Szi            types.FloatString `json:"szi"`
	UnrealizedPnl  types.FloatString `json:"unrealizedPnl"`
	MaxLeverage    int               `json:"maxLeverage"`
}

type AssetPosition struct {
	Position Position `json:"position"`
	Type     string   `json:"type"`
}

type MarginSummary struct {
	AccountValue    types.FloatString `json:"accountValue"`
	TotalMarginUsed types.FloatString `json:"totalMarginUsed"`
	TotalNtlPos     types.FloatString `json:"totalNtlPos"`
	TotalRawUsd     types.FloatString `json:"totalRawUsd"`
}

// UserState is the perp clearinghouse state of one address
type UserState struct {
	AssetPositions     []AssetPosition   `json:"assetPositions"`
	CrossMarginSummary MarginSummary     `json:"crossMarginSummary"`
	MarginSummary      MarginSummary     `json:"marginSummary"`
	Withdrawable       types.FloatString `json:"withdrawable"`
	Time               int64             `json:"time"`
}

// ===== Orders and fills =====

type OpenOrder struct {
	Coin      string            `json:"coin"`
	LimitPx   types.FloatString `json:"limitPx"`
	Oid       int64             `json:"oid"`
	Side      string            `json:"side"`
	Sz        types.FloatString `json:"sz"`
	Timestamp int64             `json:"timestamp"`
}

// FrontendOpenOrder carries the trigger and tif details the UI needs
type FrontendOpenOrder struct {
	OpenOrder
	OrigSz           types.FloatString `json:"origSz"`
	OrderType        string            `json:"orderType"`
	Tif              *string           `json:"tif"`
	Cloid            *types.Cloid      `json:"cloid"`
	ReduceOnly       bool              `json:"reduceOnly"`
	IsTrigger        bool              `json:"isTrigger"`
	TriggerPx        types.FloatString `json:"triggerPx"`
	TriggerCondition string            `json:"triggerCondition"`
	IsPositionTpsl   bool              `json:"isPositionTpsl"`
}

type HistoricalOrder struct {
	Order           FrontendOpenOrder `json:"order"`
	Status          string            `json:"status"`
	StatusTimestamp int64             `json:"statusTimestamp"`
}

type Fill struct {
	Coin          string            `json:"coin"`
	Px            types.FloatString `json:"px"`
	Sz            types.FloatString `json:"sz"`
	Side          string            `json:"side"`
	Time          int64             `json:"time"`
	StartPosition types.FloatString `json:"startPosition"`
	Dir           string            `json:"dir"`
	ClosedPnl     types.FloatString `json:"closedPnl"`
	Hash          string            `json:"hash"`
	Oid           int64             `json:"oid"`
	Crossed       bool              `json:"crossed"`
	Fee           types.FloatString `json:"fee"`
	Tid           int64             `json:"tid"`
	FeeToken      string            `json:"feeToken"`
}

// ===== Spot account =====

type SpotBalance struct {
	Coin     string            `json:"coin"`
	Token    int               `json:"token"`
	Hold     types.FloatString `json:"hold"`
	Total    types.FloatString `json:"total"`
	EntryNtl types.FloatString `json:"entryNtl"`
}

type SpotUserState struct {
	Balances []SpotBalance `json:"balances"`
}

// ===== Staking =====

type DelegatorSummary struct {
	Delegated              types.FloatString `json:"delegated"`
	Undelegated            types.FloatString `json:"undelegated"`
	TotalPendingWithdrawal types.FloatString `json:"totalPendingWithdrawal"`
	NPendingWithdrawals    int               `json:"nPendingWithdrawals"`
}

type Delegation struct {
	Validator            common.Address    `json:"validator"`
	Amount               types.FloatString `json:"amount"`
	LockedUntilTimestamp int64             `json:"lockedUntilTimestamp"`
}

type DelegatorReward struct {
	Time        int64             `json:"time"`
	Source      string            `json:"source"` // "delegation" or "commission"
	TotalAmount types.FloatString `json:"totalAmount"`
}

type ValidatorSummary struct {
	Validator       common.Address    `json:"validator"`
	Signer          common.Address    `json:"signer"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	NRecentBlocks   int               `json:"nRecentBlocks"`
	Stake           int64             `json:"stake"`
	IsJailed        bool              `json:"isJailed"`
	UnjailableAfter *int64            `json:"unjailableAfter"`
	IsActive        bool              `json:"isActive"`
	Commission      types.FloatString `json:"commission"`
}

// ===== Vaults =====

type VaultFollower struct {
	User           string            `json:"user"`
	VaultEquity    types.FloatString `json:"vaultEquity"`
	Pnl            types.FloatString `json:"pnl"`
	AllTimePnl     types.FloatString `json:"allTimePnl"`
	DaysFollowing  int               `json:"daysFollowing"`
	VaultEntryTime int64             `json:"vaultEntryTime"`
	LockupUntil    int64             `json:"lockupUntil"`
}

type VaultDetails struct {
	Name             string            `json:"name"`
	VaultAddress     common.Address    `json:"vaultAddress"`
	Leader           common.Address    `json:"leader"`
	Description      string            `json:"description"`
	Apr              types.FloatString `json:"apr"`
	FollowerState    *VaultFollower    `json:"followerState"`
	LeaderFraction   types.FloatString `json:"leaderFraction"`
	LeaderCommission types.FloatString `json:"leaderCommission"`
	Followers        []VaultFollower   `json:"followers"`
	MaxDistributable types.FloatString `json:"maxDistributable"`
	MaxWithdrawable  types.FloatString `json:"maxWithdrawable"`
	IsClosed         bool              `json:"isClosed"`
	AllowDeposits    bool              `json:"allowDeposits"`
}

type UserVaultEquity struct {
	VaultAddress         common.Address    `json:"vaultAddress"`
	Equity               types.FloatString `json:"equity"`
	LockedUntilTimestamp int64             `json:"lockedUntilTimestamp"`
}

// ===== Referral, fees, agents, sub-accounts =====

type ReferredBy struct {
	Referrer common.Address `json:"referrer"`
	Code     string         `json:"code"`
}

type ReferrerState struct {
	Stage string `json:"stage"` // "ready", "needToCreateCode" or "needToTrade"
	Data  any    `json:"data"`
}

type ReferralState struct {
	ReferredBy       *ReferredBy       `json:"referredBy"`
	CumVlm           types.FloatString `json:"cumVlm"`
	UnclaimedRewards types.FloatString `json:"unclaimedRewards"`
	ClaimedRewards   types.FloatString `json:"claimedRewards"`
	BuilderRewards   types.FloatString `json:"builderRewards"`
	ReferrerState    ReferrerState     `json:"referrerState"`
}

type DailyVolume struct {
	Date      string            `json:"date"`
	UserCross types.FloatString `json:"userCross"`
	UserAdd   types.FloatString `json:"userAdd"`
	Exchange  types.FloatString `json:"exchange"`
}

type UserFees struct {
	DailyUserVlm           []DailyVolume     `json:"dailyUserVlm"`
	UserCrossRate          types.FloatString `json:"userCrossRate"`
	UserAddRate            types.FloatString `json:"userAddRate"`
	UserSpotCrossRate      types.FloatString `json:"userSpotCrossRate"`
	UserSpotAddRate        types.FloatString `json:"userSpotAddRate"`
	ActiveReferralDiscount types.FloatString `json:"activeReferralDiscount"`
	FeeSchedule            any               `json:"feeSchedule"`
}

// ExtraAgent is an approved API wallet
type ExtraAgent struct {
	Name       string         `json:"name"`
	Address    common.Address `json:"address"`
	ValidUntil int64          `json:"validUntil"`
}

type SubAccount struct {
	Name               string         `json:"name"`
	SubAccountUser     common.Address `json:"subAccountUser"`
	Master             common.Address `json:"master"`
	ClearinghouseState UserState      `json:"clearinghouseState"`
	SpotState          SpotUserState  `json:"spotState"`
}
