package exchange

import (
	"errors"
	"fmt"
)

var (
	// ErrUserRejected is returned by a Wallet when the user declines the
	// signature prompt.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrWalletUnavailable is returned by a Wallet that cannot sign at all,
	// e.g. it is locked or disconnected.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrAgentUnauthorized marks a submission the exchange refused because
	// the agent that signed it is unknown, expired or revoked.
	ErrAgentUnauthorized = errors.New("agent is not authorized")

	// ErrApprovalInProgress is returned by EnableTrading while another
	// approval is waiting on the wallet.
	ErrApprovalInProgress = errors.New("agent approval already in progress")
)

// ValidationError is an input rejected before any nonce or signature.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field string, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// WalletError is a failure of the wallet signing capability.
type WalletError struct {
	Err error
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("wallet: %v", e.Err)
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

// Cancelled reports whether the user declined the prompt.
func (e *WalletError) Cancelled() bool {
	return errors.Is(e.Err, ErrUserRejected)
}

// SigningError is a typed-data construction or hashing failure.
type SigningError struct {
	Kind Kind
	Err  error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing %s: %v", e.Kind, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// SubmissionError is an action the exchange answered and refused. Reason is
// the exchange's text, unmodified.
type SubmissionError struct {
	Reason            string
	AgentUnauthorized bool
}

func (e *SubmissionError) Error() string {
	return e.Reason
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrAgentUnauthorized && e.AgentUnauthorized
}

// TransportError is a failure to obtain any answer from the exchange. The
// action may or may not have landed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
