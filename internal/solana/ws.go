package solana

import "context"

// ConfirmationWaiter waits for a submitted transaction signature to reach
// confirmed commitment.
type ConfirmationWaiter interface {
	// WaitForSignature blocks until the signature confirms, the context is
	// done, or the connection fails. A confirmed-with-error transaction
	// returns a ConfirmationResult with a non-nil Err, not an error.
	WaitForSignature(ctx context.Context, signature string) (*ConfirmationResult, error)

	// Close closes the underlying connection.
	Close() error
}

// ConfirmationResult reports the outcome of a confirmed signature. Err is
// the on-chain transaction error, nil for a clean confirmation.
type ConfirmationResult struct {
	Slot int64
	Err  interface{}
}
