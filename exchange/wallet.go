package exchange

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Wallet is the primary wallet's typed-data signing capability. A browser
// or hardware wallet may block in SignTypedData until the user answers;
// it returns ErrUserRejected when the prompt is declined.
type Wallet interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) (Signature, error)
}

// ChainIDer is implemented by wallets that know the chain they are
// connected to. User-signed actions are signed under that chain id so the
// wallet accepts the prompt.
type ChainIDer interface {
	ChainID() *big.Int
}

// KeyWallet is a Wallet over a local private key.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainId *big.Int
}

// NewKeyWallet returns a wallet that signs with key without prompting.
func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// WithChainID makes the wallet report id as its native chain.
func (w *KeyWallet) WithChainID(id *big.Int) *KeyWallet {
	w.chainId = id
	return w
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

// ChainID returns nil unless one was set.
func (w *KeyWallet) ChainID() *big.Int {
	return w.chainId
}

func (w *KeyWallet) SignTypedData(ctx context.Context, data apitypes.TypedData) (Signature, error) {
	if err := ctx.Err(); err != nil {
		return Signature{}, err
	}
	return signTypedData(w.key, data)
}
