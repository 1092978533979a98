package model

import "errors"

// Sentinel errors for the decode/compute pipeline. Callers classify with
// errors.Is; everything else is a programming-contract violation and
// propagates unwrapped.
var (
	// ErrInvalidSize means the account data is shorter than the layout requires.
	ErrInvalidSize = errors.New("account data too short")

	// ErrDiscriminatorMismatch means the leading 8 bytes do not identify the
	// expected account kind.
	ErrDiscriminatorMismatch = errors.New("discriminator mismatch")

	// ErrInvalidAddress means a supplied address is not a valid base58 public key.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrRPC wraps ledger adapter failures after retries are exhausted.
	ErrRPC = errors.New("rpc failure")

	// ErrCalculation means a math precondition was violated (e.g. a
	// non-positive price passed to a logarithm).
	ErrCalculation = errors.New("calculation precondition violated")
)

// Error categories used for confidence scaling. One penalty per category
// present in a protocol result, regardless of how many individual accounts
// failed within it.
const (
	ErrorCategoryDecode  = "decode"
	ErrorCategoryRPC     = "rpc"
	ErrorCategoryMetrics = "metrics"
	ErrorCategoryPrice   = "price"
)

// ScanError records a per-account or per-protocol failure inside a scan
// result. Failures are recorded and skipped, never raised past the scanner.
type ScanError struct {
	Protocol Protocol `json:"protocol"`
	Address  string   `json:"address,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Category string   `json:"category"`
	Error    string   `json:"error"`
}
