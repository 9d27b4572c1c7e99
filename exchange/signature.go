package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signature is a recoverable secp256k1 signature over a typed-data digest.
type Signature struct {
	R common.Hash
	S common.Hash
	V byte
}

type signatureJSON struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// MarshalJSON encodes the signature as:
// { "r": "0x...", "s": "0x...", "v": <number> }
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{
		R: hexutil.Encode(s.R[:]),
		S: hexutil.Encode(s.S[:]),
		V: s.V,
	})
}

// UnmarshalJSON accepts r and s with or without leading zeros.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var a signatureJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	r, err := hexutil.DecodeBig(trimHexZeros(a.R))
	if err != nil {
		return fmt.Errorf("invalid r: %w", err)
	}
	sv, err := hexutil.DecodeBig(trimHexZeros(a.S))
	if err != nil {
		return fmt.Errorf("invalid s: %w", err)
	}
	if r.BitLen() > 256 || sv.BitLen() > 256 {
		return fmt.Errorf("signature component longer than 32 bytes")
	}

	s.R = common.BigToHash(r)
	s.S = common.BigToHash(sv)
	s.V = a.V
	return nil
}

// Bytes returns the 65 byte [R || S || V] form with V in {0, 1}, as
// accepted by crypto.SigToPub.
func (s Signature) Bytes() []byte {
	out := make([]byte, 65)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	v := s.V
	if v >= 27 {
		v -= 27
	}
	out[64] = v
	return out
}

func (s Signature) String() string {
	return fmt.Sprintf(
		"R: %s, S: %s, V: %d",
		hexutil.Encode(s.R[:]),
		hexutil.Encode(s.S[:]),
		s.V,
	)
}

// DecodeBig rejects leading zero digits.
func trimHexZeros(s string) string {
	digits := s
	if len(digits) >= 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	for len(digits) > 1 && digits[0] == '0' {
		digits = digits[1:]
	}
	return "0x" + digits
}
