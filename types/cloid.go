package types

import (
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const cloidLength = 16

// Cloid is a client-assigned 128-bit order id.
type Cloid [cloidLength]byte

var cloidT = reflect.TypeFor[Cloid]()

// NewCloid returns a random client order id. A v4 UUID has exactly the
// width the exchange expects.
func NewCloid() Cloid {
	return Cloid(uuid.New())
}

// BytesToCloid returns Cloid with value b.
// If b is larger than len(c), b will be cropped from the left.
func BytesToCloid(b []byte) Cloid {
	var c Cloid
	if len(b) > cloidLength {
		b = b[len(b)-cloidLength:]
	}
	copy(c[cloidLength-len(b):], b)
	return c
}

// HexToCloid returns Cloid with byte values of s.
func HexToCloid(s string) Cloid {
	return BytesToCloid(common.FromHex(s))
}

// Hex converts a Cloid to a 0x-prefixed hex string.
func (c Cloid) Hex() string { return hexutil.Encode(c[:]) }

func (c Cloid) String() string {
	return c.Hex()
}

// UnmarshalJSON parses a Cloid in hex syntax.
func (c *Cloid) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(cloidT, input, c[:])
}

// MarshalText returns the hex representation of c.
func (c Cloid) MarshalText() ([]byte, error) {
	return hexutil.Bytes(c[:]).MarshalText()
}

// EncodeMsgpack encodes the cloid as its hex string, which is what the
// exchange hashes.
func (c Cloid) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(c.Hex())
}

func (c *Cloid) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	*c = HexToCloid(s)
	return nil
}
