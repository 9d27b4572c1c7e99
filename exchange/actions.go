package exchange

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/banky/go-hyperliquid-agent/constants"
	"github.com/banky/go-hyperliquid-agent/internal/utils"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/samber/mo"
)

// ============================================================================
// Action Interfaces
// ============================================================================

// Action is the caller-supplied input of one action kind. Building it
// validates every field; no nonce or signature is requested for an Action
// that fails to build.
type Action interface {
	Kind() Kind
	build(env buildEnv) (any, error)
}

// AssetResolver maps a coin name to its exchange asset index.
type AssetResolver interface {
	Asset(name string) (int, bool)
}

type buildEnv struct {
	assets AssetResolver
	// vault is the trading context's qualifier at call time.
	vault mo.Option[common.Address]
}

func (env buildEnv) asset(coin string) (int64, error) {
	if strings.TrimSpace(coin) == "" {
		return 0, invalid("coin", "must not be empty")
	}
	if env.assets == nil {
		return 0, invalid("coin", "asset metadata not loaded")
	}
	a, ok := env.assets.Asset(coin)
	if !ok {
		return 0, invalid("coin", "unknown coin %q", coin)
	}
	return int64(a), nil
}

// userSigned is implemented by the wire form of user-signed actions. The
// nonce is stamped after validation so rejected input never consumes one.
type userSigned interface {
	stamp(nonce uint64, signatureChainId string, network types.Network)
	message() apitypes.TypedDataMessage
}

func positive(field string, x float64) error {
	if err := utils.RequirePositive(x); err != nil {
		return invalid(field, "%v", err)
	}
	return nil
}

func wireFloat(field string, x float64) (string, error) {
	if err := positive(field, x); err != nil {
		return "", err
	}
	s, err := utils.FloatToWire(x)
	if err != nil {
		return "", invalid(field, "%v", err)
	}
	if s == "0" {
		return "", invalid(field, "%v rounds to zero", x)
	}
	return s, nil
}

func usdInt(field string, x float64) (int64, error) {
	if err := positive(field, x); err != nil {
		return 0, err
	}
	v, err := utils.FloatToUsdInt(x)
	if err != nil {
		return 0, invalid(field, "%v", err)
	}
	if v == 0 {
		return 0, invalid(field, "%v rounds to zero", x)
	}
	return v, nil
}

func wei(field string, x float64) (uint64, error) {
	if err := positive(field, x); err != nil {
		return 0, err
	}
	v, err := utils.FloatToWei(x)
	if err != nil {
		return 0, invalid(field, "%v", err)
	}
	if v == 0 {
		return 0, invalid(field, "%v rounds to zero", x)
	}
	return v, nil
}

func parseAddress(field string, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, invalid(field, "%q is not a 20-byte hex address", s)
	}
	a := common.HexToAddress(s)
	if a == constants.ZERO_ADDRESS {
		return common.Address{}, invalid(field, "zero address")
	}
	return a, nil
}

func lower(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func uint64Value(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// ============================================================================
// Order Types
// ============================================================================

type Tif string

const (
	TifAlo Tif = "Alo"
	TifIoc Tif = "Ioc"
	TifGtc Tif = "Gtc"
)

type OrderType struct {
	Limit   *LimitOrder   `json:"limit,omitempty"`
	Trigger *TriggerOrder `json:"trigger,omitempty"`
}

type LimitOrder struct {
	Tif Tif `json:"tif"`
}

type TriggerOrder struct {
	IsMarket  bool    `json:"isMarket"`
	TriggerPx float64 `json:"triggerPx"`
	// TpSl is "tp" or "sl".
	TpSl string `json:"tpsl"`
}

type orderTypeWire struct {
	Limit   *LimitOrder       `json:"limit,omitempty"`
	Trigger *triggerOrderWire `json:"trigger,omitempty"`
}

type triggerOrderWire struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	TpSl      string `json:"tpsl"`
}

// toOrderTypeWire converts OrderType to wire format
func (t OrderType) toOrderTypeWire() (orderTypeWire, error) {
	switch {
	case t.Limit != nil && t.Trigger != nil:
		return orderTypeWire{}, invalid("orderType", "limit and trigger are exclusive")
	case t.Limit != nil:
		switch t.Limit.Tif {
		case TifAlo, TifIoc, TifGtc:
		default:
			return orderTypeWire{}, invalid("tif", "unknown time in force %q", t.Limit.Tif)
		}
		return orderTypeWire{Limit: &LimitOrder{Tif: t.Limit.Tif}}, nil
	case t.Trigger != nil:
		if t.Trigger.TpSl != "tp" && t.Trigger.TpSl != "sl" {
			return orderTypeWire{}, invalid("tpsl", "must be tp or sl, got %q", t.Trigger.TpSl)
		}
		px, err := wireFloat("triggerPx", t.Trigger.TriggerPx)
		if err != nil {
			return orderTypeWire{}, err
		}
		return orderTypeWire{
			Trigger: &triggerOrderWire{
				IsMarket:  t.Trigger.IsMarket,
				TriggerPx: px,
				TpSl:      t.Trigger.TpSl,
			},
		}, nil
	}
	return orderTypeWire{}, invalid("orderType", "limit or trigger is required")
}

type OrderGrouping string

const (
	OrderGroupingNA           OrderGrouping = "na"
	OrderGroupingNormalTpSl   OrderGrouping = "normalTpsl"
	OrderGroupingPositionTpSl OrderGrouping = "positionTpsl"
)

type BuilderInfo struct {
	// Public address of the builder
	Address string `json:"b"`
	// Amount of the fee in tenths of basis points.
	// eg. 10 means 1 basis point
	Fee int64 `json:"f"`
}

type builderWire struct {
	B string `json:"b"`
	F int64  `json:"f"`
}

// ============================================================================
// Place Order
// ============================================================================

// PlaceOrder places a single order on Coin.
type PlaceOrder struct {
	Coin       string        `json:"coin"`
	IsBuy      bool          `json:"isBuy"`
	Size       float64       `json:"sz"`
	LimitPx    float64       `json:"limitPx"`
	OrderType  OrderType     `json:"orderType"`
	ReduceOnly bool          `json:"reduceOnly"`
	Cloid      *types.Cloid  `json:"cloid,omitempty"`
	Grouping   OrderGrouping `json:"grouping,omitempty"`
	Builder    *BuilderInfo  `json:"builder,omitempty"`
}

type OrderOption func(*PlaceOrder)

// NewOrder returns a Gtc limit order unless an option says otherwise.
func NewOrder(
	coin string,
	isBuy bool,
	sz float64,
	limitPx float64,
	opts ...OrderOption,
) PlaceOrder {
	o := PlaceOrder{
		Coin:      coin,
		IsBuy:     isBuy,
		Size:      sz,
		LimitPx:   limitPx,
		OrderType: OrderType{Limit: &LimitOrder{Tif: TifGtc}},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithReduceOnly sets the reduce-only flag
func WithReduceOnly(reduceOnly bool) OrderOption {
	return func(o *PlaceOrder) {
		o.ReduceOnly = reduceOnly
	}
}

// WithCloid sets the client order ID
func WithCloid(c types.Cloid) OrderOption {
	return func(o *PlaceOrder) {
		o.Cloid = &c
	}
}

func WithLimitOrder(limit LimitOrder) OrderOption {
	return func(o *PlaceOrder) {
		o.OrderType = OrderType{Limit: &limit}
	}
}

func WithTriggerOrder(trigger TriggerOrder) OrderOption {
	return func(o *PlaceOrder) {
		o.OrderType = OrderType{Trigger: &trigger}
	}
}

func WithBuilder(b BuilderInfo) OrderOption {
	return func(o *PlaceOrder) {
		o.Builder = &b
	}
}

func (PlaceOrder) Kind() Kind { return KindPlaceOrder }

type orderWire struct {
	A int64         `json:"a"`
	B bool          `json:"b"`
	P string        `json:"p"`
	S string        `json:"s"`
	R bool          `json:"r"`
	T orderTypeWire `json:"t"`
	C *types.Cloid  `json:"c,omitempty"`
}

// toOrderWire converts the order to wire format
func (o PlaceOrder) toOrderWire(env buildEnv) (orderWire, error) {
	asset, err := env.asset(o.Coin)
	if err != nil {
		return orderWire{}, err
	}

	sz, err := wireFloat("sz", o.Size)
	if err != nil {
		return orderWire{}, err
	}

	px, err := wireFloat("limitPx", o.LimitPx)
	if err != nil {
		return orderWire{}, err
	}

	t, err := o.OrderType.toOrderTypeWire()
	if err != nil {
		return orderWire{}, err
	}

	return orderWire{
		A: asset,
		B: o.IsBuy,
		P: px,
		S: sz,
		R: o.ReduceOnly,
		T: t,
		C: o.Cloid,
	}, nil
}

type orderAction struct {
	Type     string        `json:"type"`
	Orders   []orderWire   `json:"orders"`
	Grouping OrderGrouping `json:"grouping"`
	Builder  *builderWire  `json:"builder,omitempty"`
}

func (o PlaceOrder) build(env buildEnv) (any, error) {
	wire, err := o.toOrderWire(env)
	if err != nil {
		return nil, err
	}

	grouping := o.Grouping
	switch grouping {
	case "":
		grouping = OrderGroupingNA
	case OrderGroupingNA, OrderGroupingNormalTpSl, OrderGroupingPositionTpSl:
	default:
		return nil, invalid("grouping", "unknown grouping %q", grouping)
	}

	action := orderAction{
		Type:     KindPlaceOrder.WireType(),
		Orders:   []orderWire{wire},
		Grouping: grouping,
	}

	if b := o.Builder; b != nil {
		addr, err := parseAddress("builder", b.Address)
		if err != nil {
			return nil, err
		}
		if b.Fee < 0 {
			return nil, invalid("builder", "negative fee")
		}
		action.Builder = &builderWire{B: lower(addr), F: b.Fee}
	}

	return action, nil
}

// ============================================================================
// Modify Order
// ============================================================================

// ModifyOrder replaces a resting order, identified by exactly one of Oid
// or Cloid.
type ModifyOrder struct {
	Oid   *int64       `json:"oid,omitempty"`
	Cloid *types.Cloid `json:"cloid,omitempty"`
	Order PlaceOrder   `json:"order"`
}

func (ModifyOrder) Kind() Kind { return KindModifyOrder }

type modifyWire struct {
	Oid   any       `json:"oid"`
	Order orderWire `json:"order"`
}

type batchModifyAction struct {
	Type     string       `json:"type"`
	Modifies []modifyWire `json:"modifies"`
}

func (m ModifyOrder) build(env buildEnv) (any, error) {
	var oid any
	switch {
	case m.Oid != nil && m.Cloid != nil:
		return nil, invalid("oid", "oid and cloid are exclusive")
	case m.Oid != nil:
		if *m.Oid <= 0 {
			return nil, invalid("oid", "must be positive")
		}
		oid = *m.Oid
	case m.Cloid != nil:
		oid = *m.Cloid
	default:
		return nil, invalid("oid", "order id or cloid is required")
	}

	wire, err := m.Order.toOrderWire(env)
	if err != nil {
		return nil, err
	}

	return batchModifyAction{
		Type:     KindModifyOrder.WireType(),
		Modifies: []modifyWire{{Oid: oid, Order: wire}},
	}, nil
}

// ============================================================================
// Cancel
// ============================================================================

type CancelOrder struct {
	Coin string `json:"coin"`
	Oid  int64  `json:"oid"`
}

func (CancelOrder) Kind() Kind { return KindCancelOrder }

type cancelWire struct {
	AssetId int64 `json:"a"`
	Oid     int64 `json:"o"`
}

type cancelAction struct {
	Type    string       `json:"type"`
	Cancels []cancelWire `json:"cancels"`
}

func (c CancelOrder) build(env buildEnv) (any, error) {
	asset, err := env.asset(c.Coin)
	if err != nil {
		return nil, err
	}
	if c.Oid <= 0 {
		return nil, invalid("oid", "must be positive")
	}
	return cancelAction{
		Type:    KindCancelOrder.WireType(),
		Cancels: []cancelWire{{AssetId: asset, Oid: c.Oid}},
	}, nil
}

type CancelByCloid struct {
	Coin  string      `json:"coin"`
	Cloid types.Cloid `json:"cloid"`
}

func (CancelByCloid) Kind() Kind { return KindCancelByCloid }

type cancelByCloidWire struct {
	Asset int64       `json:"asset"`
	Cloid types.Cloid `json:"cloid"`
}

type cancelByCloidAction struct {
	Type    string              `json:"type"`
	Cancels []cancelByCloidWire `json:"cancels"`
}

func (c CancelByCloid) build(env buildEnv) (any, error) {
	asset, err := env.asset(c.Coin)
	if err != nil {
		return nil, err
	}
	return cancelByCloidAction{
		Type:    KindCancelByCloid.WireType(),
		Cancels: []cancelByCloidWire{{Asset: asset, Cloid: c.Cloid}},
	}, nil
}

// ============================================================================
// Update Leverage
// ============================================================================

type UpdateLeverage struct {
	Coin     string `json:"coin"`
	Leverage int    `json:"leverage"`
	IsCross  bool   `json:"isCross"`
}

func (UpdateLeverage) Kind() Kind { return KindUpdateLeverage }

type updateLeverageAction struct {
	Type     string `json:"type"`
	Asset    int64  `json:"asset"`
	IsCross  bool   `json:"isCross"`
	Leverage int64  `json:"leverage"`
}

func (u UpdateLeverage) build(env buildEnv) (any, error) {
	if u.Leverage < constants.MIN_LEVERAGE || u.Leverage > constants.MAX_LEVERAGE {
		return nil, invalid(
			"leverage",
			"%d is outside %d..%d",
			u.Leverage,
			constants.MIN_LEVERAGE,
			constants.MAX_LEVERAGE,
		)
	}
	asset, err := env.asset(u.Coin)
	if err != nil {
		return nil, err
	}
	return updateLeverageAction{
		Type:     KindUpdateLeverage.WireType(),
		Asset:    asset,
		IsCross:  u.IsCross,
		Leverage: int64(u.Leverage),
	}, nil
}

// ============================================================================
// USD Transfer
// ============================================================================

// UsdTransfer sends perp USDC to another address.
type UsdTransfer struct {
	Destination string  `json:"destination"`
	Amount      float64 `json:"amount"`
}

func (UsdTransfer) Kind() Kind { return KindUsdTransfer }

type usdTransferAction struct {
	Type             string `json:"type"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
	Destination      string `json:"destination"`
	Amount           string `json:"amount"`
	Time             uint64 `json:"time"`
}

func (u UsdTransfer) build(env buildEnv) (any, error) {
	dest, err := parseAddress("destination", u.Destination)
	if err != nil {
		return nil, err
	}
	amount, err := wireFloat("amount", u.Amount)
	if err != nil {
		return nil, err
	}
	return &usdTransferAction{
		Type:        KindUsdTransfer.WireType(),
		Destination: lower(dest),
		Amount:      amount,
	}, nil
}

func (a *usdTransferAction) stamp(nonce uint64, chainId string, network types.Network) {
	a.Time = nonce
	a.SignatureChainId = chainId
	a.HyperliquidChain = network.ChainName()
}

func (a *usdTransferAction) message() apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"hyperliquidChain": a.HyperliquidChain,
		"destination":      a.Destination,
		"amount":           a.Amount,
		"time":             uint64Value(a.Time),
	}
}

// ============================================================================
// USD Class Transfer
// ============================================================================

// UsdClassTransfer moves USDC between the spot and perp balances.
type UsdClassTransfer struct {
	Amount float64 `json:"amount"`
	ToPerp bool    `json:"toPerp"`
}

func (UsdClassTransfer) Kind() Kind { return KindUsdClassTransfer }

type usdClassTransferAction struct {
	Type             string `json:"type"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
	Amount           string `json:"amount"`
	ToPerp           bool   `json:"toPerp"`
	Nonce            uint64 `json:"nonce"`
}

func (u UsdClassTransfer) build(env buildEnv) (any, error) {
	amount, err := wireFloat("amount", u.Amount)
	if err != nil {
		return nil, err
	}

	// A sub-account's class transfer names the sub-account in the amount.
	if v, ok := env.vault.Get(); ok {
		amount += fmt.Sprintf(" subaccount:%s", lower(v))
	}

	return &usdClassTransferAction{
		Type:   KindUsdClassTransfer.WireType(),
		Amount: amount,
		ToPerp: u.ToPerp,
	}, nil
}

func (a *usdClassTransferAction) stamp(nonce uint64, chainId string, network types.Network) {
	a.Nonce = nonce
	a.SignatureChainId = chainId
	a.HyperliquidChain = network.ChainName()
}

func (a *usdClassTransferAction) message() apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"hyperliquidChain": a.HyperliquidChain,
		"amount":           a.Amount,
		"toPerp":           a.ToPerp,
		"nonce":            uint64Value(a.Nonce),
	}
}

// ============================================================================
// Sub Account
// ============================================================================

// SubAccountTransfer moves USDC between the master and one of its
// sub-accounts.
type SubAccountTransfer struct {
	SubAccount string  `json:"subAccountUser"`
	IsDeposit  bool    `json:"isDeposit"`
	Usd        float64 `json:"usd"`
}

func (SubAccountTransfer) Kind() Kind { return KindSubAccountTransfer }

type subAccountTransferAction struct {
	Type           string `json:"type"`
	SubAccountUser string `json:"subAccountUser"`
	IsDeposit      bool   `json:"isDeposit"`
	Usd            int64  `json:"usd"`
}

func (s SubAccountTransfer) build(env buildEnv) (any, error) {
	sub, err := parseAddress("subAccountUser", s.SubAccount)
	if err != nil {
		return nil, err
	}
	usd, err := usdInt("usd", s.Usd)
	if err != nil {
		return nil, err
	}
	return subAccountTransferAction{
		Type:           KindSubAccountTransfer.WireType(),
		SubAccountUser: lower(sub),
		IsDeposit:      s.IsDeposit,
		Usd:            usd,
	}, nil
}

type CreateSubAccount struct {
	Name string `json:"name"`
}

func (CreateSubAccount) Kind() Kind { return KindCreateSubAccount }

type createSubAccountAction struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (c CreateSubAccount) build(env buildEnv) (any, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	return createSubAccountAction{
		Type: KindCreateSubAccount.WireType(),
		Name: name,
	}, nil
}

// ============================================================================
// Vault Transfer
// ============================================================================

// VaultTransfer deposits into or withdraws from a vault. The vault is named
// in the action itself.
type VaultTransfer struct {
	Vault     string  `json:"vaultAddress"`
	IsDeposit bool    `json:"isDeposit"`
	Usd       float64 `json:"usd"`
}

func (VaultTransfer) Kind() Kind { return KindVaultTransfer }

type vaultTransferAction struct {
	Type         string `json:"type"`
	VaultAddress string `json:"vaultAddress"`
	IsDeposit    bool   `json:"isDeposit"`
	Usd          int64  `json:"usd"`
}

func (v VaultTransfer) build(env buildEnv) (any, error) {
	vault, err := parseAddress("vaultAddress", v.Vault)
	if err != nil {
		return nil, err
	}
	usd, err := usdInt("usd", v.Usd)
	if err != nil {
		return nil, err
	}
	return vaultTransferAction{
		Type:         KindVaultTransfer.WireType(),
		VaultAddress: lower(vault),
		IsDeposit:    v.IsDeposit,
		Usd:          usd,
	}, nil
}

// ============================================================================
// Staking
// ============================================================================

// TokenDelegate delegates Amount of staked HYPE to a validator, or takes it
// back when IsUndelegate is set.
type TokenDelegate struct {
	Validator    string  `json:"validator"`
	Amount       float64 `json:"amount"`
	IsUndelegate bool    `json:"isUndelegate"`
}

func (TokenDelegate) Kind() Kind { return KindTokenDelegate }

type tokenDelegateAction struct {
	Type             string `json:"type"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
	Validator        string `json:"validator"`
	Wei              uint64 `json:"wei"`
	IsUndelegate     bool   `json:"isUndelegate"`
	Nonce            uint64 `json:"nonce"`
}

func (t TokenDelegate) build(env buildEnv) (any, error) {
	validator, err := parseAddress("validator", t.Validator)
	if err != nil {
		return nil, err
	}
	w, err := wei("amount", t.Amount)
	if err != nil {
		return nil, err
	}
	return &tokenDelegateAction{
		Type:         KindTokenDelegate.WireType(),
		Validator:    lower(validator),
		Wei:          w,
		IsUndelegate: t.IsUndelegate,
	}, nil
}

func (a *tokenDelegateAction) stamp(nonce uint64, chainId string, network types.Network) {
	a.Nonce = nonce
	a.SignatureChainId = chainId
	a.HyperliquidChain = network.ChainName()
}

func (a *tokenDelegateAction) message() apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"hyperliquidChain": a.HyperliquidChain,
		"validator":        a.Validator,
		"wei":              uint64Value(a.Wei),
		"isUndelegate":     a.IsUndelegate,
		"nonce":            uint64Value(a.Nonce),
	}
}

// StakingDeposit moves HYPE from spot into staking.
type StakingDeposit struct {
	Amount float64 `json:"amount"`
}

func (StakingDeposit) Kind() Kind { return KindStakingDeposit }

// StakingWithdraw moves HYPE from staking back to spot.
type StakingWithdraw struct {
	Amount float64 `json:"amount"`
}

func (StakingWithdraw) Kind() Kind { return KindStakingWithdraw }

type stakingAction struct {
	Type             string `json:"type"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
	Wei              uint64 `json:"wei"`
	Nonce            uint64 `json:"nonce"`
}

func (s StakingDeposit) build(env buildEnv) (any, error) {
	return buildStaking(KindStakingDeposit, s.Amount)
}

func (s StakingWithdraw) build(env buildEnv) (any, error) {
	return buildStaking(KindStakingWithdraw, s.Amount)
}

func buildStaking(kind Kind, amount float64) (any, error) {
	w, err := wei("amount", amount)
	if err != nil {
		return nil, err
	}
	return &stakingAction{Type: kind.WireType(), Wei: w}, nil
}

func (a *stakingAction) stamp(nonce uint64, chainId string, network types.Network) {
	a.Nonce = nonce
	a.SignatureChainId = chainId
	a.HyperliquidChain = network.ChainName()
}

func (a *stakingAction) message() apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"hyperliquidChain": a.HyperliquidChain,
		"wei":              uint64Value(a.Wei),
		"nonce":            uint64Value(a.Nonce),
	}
}

// ============================================================================
// Referral
// ============================================================================

// CreateReferral registers Code as the user's referral code.
type CreateReferral struct {
	Code string `json:"code"`
}

func (CreateReferral) Kind() Kind { return KindCreateReferral }

// SetReferrer records the referrer whose code the user signed up with.
type SetReferrer struct {
	Code string `json:"code"`
}

func (SetReferrer) Kind() Kind { return KindSetReferrer }

type referralCodeAction struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

func (c CreateReferral) build(env buildEnv) (any, error) {
	return buildReferralCode(KindCreateReferral, c.Code)
}

func (s SetReferrer) build(env buildEnv) (any, error) {
	return buildReferralCode(KindSetReferrer, s.Code)
}

func buildReferralCode(kind Kind, code string) (any, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("code", "must not be empty")
	}
	return referralCodeAction{Type: kind.WireType(), Code: code}, nil
}

// ClaimRewards claims accrued referral rewards.
type ClaimRewards struct{}

func (ClaimRewards) Kind() Kind { return KindClaimRewards }

type claimRewardsAction struct {
	Type string `json:"type"`
}

func (ClaimRewards) build(env buildEnv) (any, error) {
	return claimRewardsAction{Type: KindClaimRewards.WireType()}, nil
}

// ============================================================================
// Approve Agent
// ============================================================================

// approveAgent is only built by EnableTrading.
type approveAgent struct {
	agent common.Address
	name  string
}

func (approveAgent) Kind() Kind { return KindApproveAgent }

// approveAgentAction omits agentName on the wire when the agent is unnamed;
// the signed message still carries "".
type approveAgentAction struct {
	Type             string `json:"type"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
	AgentAddress     string `json:"agentAddress"`
	AgentName        string `json:"agentName,omitempty"`
	Nonce            uint64 `json:"nonce"`
}

func (a approveAgent) build(env buildEnv) (any, error) {
	if a.agent == constants.ZERO_ADDRESS {
		return nil, invalid("agentAddress", "zero address")
	}
	return &approveAgentAction{
		Type:         KindApproveAgent.WireType(),
		AgentAddress: lower(a.agent),
		AgentName:    a.name,
	}, nil
}

func (a *approveAgentAction) stamp(nonce uint64, chainId string, network types.Network) {
	a.Nonce = nonce
	a.SignatureChainId = chainId
	a.HyperliquidChain = network.ChainName()
}

func (a *approveAgentAction) message() apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"hyperliquidChain": a.HyperliquidChain,
		"agentAddress":     a.AgentAddress,
		"agentName":        a.AgentName,
		"nonce":            uint64Value(a.Nonce),
	}
}
