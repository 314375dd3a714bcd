package storage

import (
	"context"

	"stablemint/internal/domain"
)

// BankLinkStore provides access to bank_links storage. One row per wallet
// address; Upsert replaces an existing link for the same wallet.
type BankLinkStore interface {
	// Upsert inserts or replaces the link for link.WalletAddress and
	// populates ID and CreatedAt on the passed struct.
	Upsert(ctx context.Context, link *domain.BankLink) error

	// GetByWallet retrieves the link for a wallet. Returns ErrNotFound if
	// no link exists.
	GetByWallet(ctx context.Context, walletAddress string) (*domain.BankLink, error)

	// UpdateBalances writes a refreshed balance snapshot for a wallet.
	// Returns ErrNotFound if no link exists.
	UpdateBalances(ctx context.Context, walletAddress string, current, available float64, refreshedAt int64) error
}

// MintRecordStore provides access to mint_records storage.
type MintRecordStore interface {
	// Insert adds a new record. Returns ErrForeignKey if the referenced
	// bank link does not exist, ErrDuplicateKey on ID collision.
	Insert(ctx context.Context, r *domain.MintRecord) error

	// MarkCompleted transitions a record to completed with its signature.
	// Returns ErrNotFound if the record does not exist.
	MarkCompleted(ctx context.Context, id, txSignature string, completedAt int64) error

	// MarkFailed transitions a record to failed. Returns ErrNotFound if the
	// record does not exist.
	MarkFailed(ctx context.Context, id string, completedAt int64) error

	// GetByID retrieves a record. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.MintRecord, error)

	// ListByWallet retrieves all records for a wallet, newest first.
	ListByWallet(ctx context.Context, walletAddress string) ([]*domain.MintRecord, error)

	// ListPending retrieves records stuck in pending with a non-empty
	// signature, oldest first. Used by the reconciler.
	ListPending(ctx context.Context) ([]*domain.MintRecord, error)
}

// UserStore provides access to users storage.
type UserStore interface {
	// Ensure creates a user row for the wallet if absent and returns it.
	Ensure(ctx context.Context, walletAddress string) (*domain.User, error)

	// GetByWallet retrieves a user. Returns ErrNotFound if not exists.
	GetByWallet(ctx context.Context, walletAddress string) (*domain.User, error)
}

// TokenStore provides access to the tokens catalog.
type TokenStore interface {
	// Insert adds a catalog entry. Returns ErrDuplicateKey if the mint
	// address exists.
	Insert(ctx context.Context, t *domain.Token) error

	// ListByCreator retrieves tokens created by a wallet, newest first.
	ListByCreator(ctx context.Context, walletAddress string) ([]*domain.Token, error)
}

// AuditEventStore provides access to the append-only audit trail.
type AuditEventStore interface {
	// Insert appends an event.
	Insert(ctx context.Context, e *domain.AuditEvent) error

	// ListByWallet retrieves events for a wallet, oldest first.
	ListByWallet(ctx context.Context, walletAddress string) ([]*domain.AuditEvent, error)
}
