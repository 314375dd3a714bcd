// Package apperr defines the closed error taxonomy the HTTP layer maps to
// status codes. Components return these; routes never let anything else
// escape unclassified.
package apperr

import (
	"errors"
	"fmt"
)

// Kind discriminates the taxonomy.
type Kind int

const (
	// KindConfiguration means service credentials are missing or invalid.
	// Fatal, not retryable.
	KindConfiguration Kind = iota
	// KindUpstream means the aggregator or RPC node failed. Retryable by
	// user action.
	KindUpstream
	// KindValidation means the request body was malformed. Never retried.
	KindValidation
	// KindMintFailed means the transaction confirmed with an on-chain error
	// or the wallet declined to sign. No funds moved.
	KindMintFailed
	// KindPersistence means the database was unavailable. Degraded
	// gracefully except where the write is the point of the call.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	case KindValidation:
		return "validation"
	case KindMintFailed:
		return "mint_failed"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration wraps err as a ConfigurationError.
func Configuration(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

// Upstream wraps err as an UpstreamError.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// Validation wraps err as a ValidationError.
func Validation(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// MintFailed wraps err as a MintFailed error.
func MintFailed(msg string, err error) *Error {
	return &Error{Kind: KindMintFailed, Message: msg, Err: err}
}

// Persistence wraps err as a PersistenceError.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// KindOf extracts the taxonomy kind from err, defaulting to KindUpstream
// for unclassified failures so nothing surfaces unhandled.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
