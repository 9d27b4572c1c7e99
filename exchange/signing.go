package exchange

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/banky/go-hyperliquid-agent/constants"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/samber/mo"
	"github.com/vmihailenco/msgpack/v5"
)

var eip712DomainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// packAction msgpack-encodes an action the way the exchange does: json
// field names in declaration order, integers in their smallest form.
func packAction(action any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(action); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hashAction creates a Keccak256 hash of the action following the Hyperliquid protocol
func hashAction(
	action any,
	vaultAddress mo.Option[common.Address],
	nonce uint64,
	expiresAfter mo.Option[uint64],
) (common.Hash, error) {
	data, err := packAction(action)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to marshal action: %w", err)
	}

	data = binary.BigEndian.AppendUint64(data, nonce)

	if v, ok := vaultAddress.Get(); ok {
		data = append(data, 0x01)
		data = append(data, v.Bytes()...)
	} else {
		data = append(data, 0x00)
	}

	if e, ok := expiresAfter.Get(); ok {
		data = append(data, 0x00)
		data = binary.BigEndian.AppendUint64(data, e)
	}

	return crypto.Keccak256Hash(data), nil
}

func constructPhantomAgent(
	hash common.Hash,
	network types.Network,
) apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"source":       network.Source(),
		"connectionId": hash.Bytes(),
	}
}

func l1Payload(
	phantomAgent apitypes.TypedDataMessage,
) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainFields,
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "Exchange",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(constants.L1_CHAIN_ID),
			VerifyingContract: constants.ZERO_ADDRESS.Hex(),
		},
		Message: phantomAgent,
	}
}

// l1TypedData is the phantom agent payload for an L1 action.
func l1TypedData(
	action any,
	vaultAddress mo.Option[common.Address],
	nonce uint64,
	expiresAfter mo.Option[uint64],
	network types.Network,
) (apitypes.TypedData, error) {
	hash, err := hashAction(action, vaultAddress, nonce, expiresAfter)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	return l1Payload(constructPhantomAgent(hash, network)), nil
}

// userSignedPayload is the typed data of a user-signed action under the
// HyperliquidSignTransaction domain.
func userSignedPayload(
	primaryType string,
	fields []apitypes.Type,
	message apitypes.TypedDataMessage,
	signatureChainId string,
) (apitypes.TypedData, error) {
	chainId, ok := new(big.Int).SetString(strings.TrimPrefix(signatureChainId, "0x"), 16)
	if !ok {
		return apitypes.TypedData{}, fmt.Errorf("invalid signature chain id %q", signatureChainId)
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainFields,
			primaryType:    fields,
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              "HyperliquidSignTransaction",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(chainId),
			VerifyingContract: constants.ZERO_ADDRESS.Hex(),
		},
		Message: message,
	}, nil
}

// chainIdHex formats a chain id the way signatureChainId is sent.
func chainIdHex(id *big.Int) string {
	return "0x" + id.Text(16)
}

// signTypedData hashes typedData and signs it with key.
func signTypedData(key *ecdsa.PrivateKey, typedData apitypes.TypedData) (Signature, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return Signature{}, fmt.Errorf(
			"failed generating hash for typed data: %w",
			err,
		)
	}
	return signHash(key, common.BytesToHash(hash))
}

// signHash signs a hash using the private key and returns
// a signature
func signHash(key *ecdsa.PrivateKey, hash common.Hash) (Signature, error) {
	var out Signature

	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return out, fmt.Errorf("failed to sign: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return out, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	// sig = [R || S || V]
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	v := sig[64]

	// Ethereum canonical V = 27 or 28
	if v < 27 {
		v += 27
	}

	out.V = v

	return out, nil
}

// RecoverSigner returns the address that produced sig over typedData.
func RecoverSigner(typedData apitypes.TypedData, sig Signature) (common.Address, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(hash, sig.Bytes())
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
