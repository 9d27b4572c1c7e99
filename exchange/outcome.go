package exchange

import (
	"encoding/json"
	"errors"
)

// Outcome is the single terminal result of an action.
type Outcome struct {
	Kind    Kind            `json:"kind"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	// Cancelled is set when the user declined the wallet prompt.
	Cancelled bool `json:"cancelled,omitempty"`
	// Err is the typed failure behind Error.
	Err error `json:"-"`
}

func failed(kind Kind, err error) Outcome {
	out := Outcome{
		Kind:  kind,
		Error: err.Error(),
		Err:   err,
	}
	if errors.Is(err, ErrUserRejected) {
		out.Cancelled = true
		out.Error = "cancelled: " + ErrUserRejected.Error()
	}
	return out
}

// IsValidationError reports whether the outcome failed before signing.
func (o Outcome) IsValidationError() bool {
	var ve *ValidationError
	return errors.As(o.Err, &ve)
}

// IsTransportError reports whether no answer was obtained from the
// exchange.
func (o Outcome) IsTransportError() bool {
	var te *TransportError
	return errors.As(o.Err, &te)
}
