package exchange

import (
	"github.com/ethereum/go-ethereum/common"
)

// ContextQuery says whose data to read and which vault qualifies writes.
type ContextQuery struct {
	FetchAddress common.Address  `json:"fetchAddress"`
	VaultAddress *common.Address `json:"vaultAddress"`
	IsSubAccount bool            `json:"isSubAccount"`
	ContextLabel string          `json:"contextLabel"`
}

// ContextQuery resolves the current trading context for the wallet.
func (e *Exchange) ContextQuery() ContextQuery {
	res := e.resolve()
	return ContextQuery{
		FetchAddress: res.FetchAddress,
		VaultAddress: res.VaultAddress.ToPointer(),
		IsSubAccount: res.IsSubAccount,
		ContextLabel: res.ContextLabel,
	}
}
