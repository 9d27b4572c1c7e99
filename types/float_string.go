package types

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/banky/go-hyperliquid-agent/internal/utils"
)

// FloatString is a decimal the API sends either quoted or bare. It is
// written back quoted, in wire form, so relayed outcomes keep the API's
// shape.
type FloatString float64

func (f *FloatString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = 0
		return nil
	case len(b) >= 2 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}

	v, err := utils.StringToFloat(string(b))
	if err != nil {
		return err
	}
	*f = FloatString(v)
	return nil
}

func (f FloatString) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// String is the wire form; values the wire cannot carry exactly print
// with full precision instead.
func (f FloatString) String() string {
	if s, err := utils.FloatToWire(f.Raw()); err == nil {
		return s
	}
	return strconv.FormatFloat(f.Raw(), 'f', -1, 64)
}

func (f FloatString) Raw() float64 {
	return float64(f)
}
