package exchange

import (
	"fmt"
	"slices"

	"github.com/banky/go-hyperliquid-agent/cache"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Kind identifies an action the agent can sign and submit.
type Kind string

const (
	KindApproveAgent       Kind = "approveAgent"
	KindPlaceOrder         Kind = "placeOrder"
	KindModifyOrder        Kind = "modifyOrder"
	KindCancelOrder        Kind = "cancelOrder"
	KindCancelByCloid      Kind = "cancelByCloid"
	KindUpdateLeverage     Kind = "updateLeverage"
	KindUsdTransfer        Kind = "usdTransfer"
	KindUsdClassTransfer   Kind = "usdClassTransfer"
	KindSubAccountTransfer Kind = "subAccountTransfer"
	KindCreateSubAccount   Kind = "createSubAccount"
	KindVaultTransfer      Kind = "vaultTransfer"
	KindTokenDelegate      Kind = "tokenDelegate"
	KindStakingDeposit     Kind = "stakingDeposit"
	KindStakingWithdraw    Kind = "stakingWithdraw"
	KindCreateReferral     Kind = "createReferral"
	KindSetReferrer        Kind = "setReferrer"
	KindClaimRewards       Kind = "claimRewards"
)

// Scheme is how an action kind is signed.
type Scheme int

const (
	// SchemeL1 actions are msgpack-hashed into a phantom agent message and
	// may be signed by an approved agent.
	SchemeL1 Scheme = iota
	// SchemeUserSigned actions are signed field by field and only accepted
	// from the primary wallet.
	SchemeUserSigned
)

func (s Scheme) String() string {
	switch s {
	case SchemeL1:
		return "l1"
	case SchemeUserSigned:
		return "userSigned"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

type descriptor struct {
	wireType    string
	scheme      Scheme
	primaryType string
	fields      []apitypes.Type
	// vaulted kinds carry the trading context's vault qualifier.
	vaulted bool
	// masterOnly kinds always move the master's funds and are refused in a
	// sub-account context.
	masterOnly bool
	tags       []cache.Tag
}

var (
	approveAgentFields = []apitypes.Type{
		{Name: "hyperliquidChain", Type: "string"},
		{Name: "agentAddress", Type: "address"},
		{Name: "agentName", Type: "string"},
		{Name: "nonce", Type: "uint64"},
	}
	usdSendFields = []apitypes.Type{
		{Name: "hyperliquidChain", Type: "string"},
		{Name: "destination", Type: "string"},
		{Name: "amount", Type: "string"},
		{Name: "time", Type: "uint64"},
	}
	usdClassTransferFields = []apitypes.Type{
		{Name: "hyperliquidChain", Type: "string"},
		{Name: "amount", Type: "string"},
		{Name: "toPerp", Type: "bool"},
		{Name: "nonce", Type: "uint64"},
	}
	tokenDelegateFields = []apitypes.Type{
		{Name: "hyperliquidChain", Type: "string"},
		{Name: "validator", Type: "address"},
		{Name: "wei", Type: "uint64"},
		{Name: "isUndelegate", Type: "bool"},
		{Name: "nonce", Type: "uint64"},
	}
	stakingFields = []apitypes.Type{
		{Name: "hyperliquidChain", Type: "string"},
		{Name: "wei", Type: "uint64"},
		{Name: "nonce", Type: "uint64"},
	}
)

var descriptors = map[Kind]descriptor{
	KindApproveAgent: {
		wireType:    "approveAgent",
		scheme:      SchemeUserSigned,
		primaryType: "HyperliquidTransaction:ApproveAgent",
		fields:      approveAgentFields,
		tags:        []cache.Tag{cache.Agents},
	},
	KindPlaceOrder: {
		wireType: "order",
		scheme:   SchemeL1,
		vaulted:  true,
		tags:     []cache.Tag{cache.OpenOrders, cache.UserState, cache.Fills},
	},
	KindModifyOrder: {
		wireType: "batchModify",
		scheme:   SchemeL1,
		vaulted:  true,
		tags:     []cache.Tag{cache.OpenOrders, cache.UserState},
	},
	KindCancelOrder: {
		wireType: "cancel",
		scheme:   SchemeL1,
		vaulted:  true,
		tags:     []cache.Tag{cache.OpenOrders, cache.UserState},
	},
	KindCancelByCloid: {
		wireType: "cancelByCloid",
		scheme:   SchemeL1,
		vaulted:  true,
		tags:     []cache.Tag{cache.OpenOrders, cache.UserState},
	},
	KindUpdateLeverage: {
		wireType: "updateLeverage",
		scheme:   SchemeL1,
		vaulted:  true,
		tags:     []cache.Tag{cache.UserState},
	},
	KindUsdTransfer: {
		wireType:    "usdSend",
		scheme:      SchemeUserSigned,
		primaryType: "HyperliquidTransaction:UsdSend",
		fields:      usdSendFields,
		masterOnly:  true,
		tags:        []cache.Tag{cache.UserState, cache.SpotState},
	},
	KindUsdClassTransfer: {
		wireType:    "usdClassTransfer",
		scheme:      SchemeUserSigned,
		primaryType: "HyperliquidTransaction:UsdClassTransfer",
		fields:      usdClassTransferFields,
		tags:        []cache.Tag{cache.UserState, cache.SpotState},
	},
	KindSubAccountTransfer: {
		wireType: "subAccountTransfer",
		scheme:   SchemeL1,
		tags:     []cache.Tag{cache.UserState, cache.SubAccounts},
	},
	KindCreateSubAccount: {
		wireType: "createSubAccount",
		scheme:   SchemeL1,
		tags:     []cache.Tag{cache.SubAccounts},
	},
	KindVaultTransfer: {
		wireType: "vaultTransfer",
		scheme:   SchemeL1,
		tags:     []cache.Tag{cache.Vaults, cache.UserState},
	},
	KindTokenDelegate: {
		wireType:    "tokenDelegate",
		scheme:      SchemeUserSigned,
		primaryType: "HyperliquidTransaction:TokenDelegate",
		fields:      tokenDelegateFields,
		masterOnly:  true,
		tags:        []cache.Tag{cache.Staking, cache.Delegations},
	},
	KindStakingDeposit: {
		wireType:    "cDeposit",
		scheme:      SchemeUserSigned,
		primaryType: "HyperliquidTransaction:CDeposit",
		fields:      stakingFields,
		masterOnly:  true,
		tags:        []cache.Tag{cache.Staking, cache.SpotState},
	},
	KindStakingWithdraw: {
		wireType:    "cWithdraw",
		scheme:      SchemeUserSigned,
		primaryType: "HyperliquidTransaction:CWithdraw",
		fields:      stakingFields,
		masterOnly:  true,
		tags:        []cache.Tag{cache.Staking, cache.SpotState},
	},
	KindCreateReferral: {
		wireType: "registerReferrer",
		scheme:   SchemeL1,
		tags:     []cache.Tag{cache.Referral},
	},
	KindSetReferrer: {
		wireType: "setReferrer",
		scheme:   SchemeL1,
		tags:     []cache.Tag{cache.Referral},
	},
	KindClaimRewards: {
		wireType: "claimRewards",
		scheme:   SchemeL1,
		tags:     []cache.Tag{cache.Referral, cache.Rewards, cache.SpotState},
	},
}

// Kinds returns every action kind in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(descriptors))
	for k := range descriptors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := descriptors[k]; !ok {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// Scheme returns how k is signed.
func (k Kind) Scheme() Scheme {
	return descriptors[k].scheme
}

// WireType is the action's "type" field on the wire.
func (k Kind) WireType() string {
	return descriptors[k].wireType
}

// Tags are the cached views a successful k invalidates.
func (k Kind) Tags() []cache.Tag {
	return slices.Clone(descriptors[k].tags)
}
