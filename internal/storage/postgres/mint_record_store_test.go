package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

func TestMintRecordStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := createTestLink(t, ctx, pool, "wallet-1")
	store := NewMintRecordStore(pool)

	record := &domain.MintRecord{
		ID:            "rec-1",
		WalletAddress: "wallet-1",
		BankLinkID:    link.ID,
		TokenMint:     "Mint111",
		Amount:        500,
		Status:        domain.MintStatusCompleted,
		TxSignature:   "Sig111",
		CreatedAt:     1700000001000,
		CompletedAt:   ptr(int64(1700000002000)),
	}
	require.NoError(t, store.Insert(ctx, record))

	got, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)

	assert.Equal(t, "wallet-1", got.WalletAddress)
	assert.Equal(t, "Mint111", got.TokenMint)
	assert.Equal(t, 500.0, got.Amount)
	assert.Equal(t, domain.MintStatusCompleted, got.Status)
	assert.Equal(t, "Sig111", got.TxSignature)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, int64(1700000002000), *got.CompletedAt)
}

func TestMintRecordStore_InsertForeignKeyViolation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMintRecordStore(pool)
	record := &domain.MintRecord{
		ID:            "rec-1",
		WalletAddress: "wallet-1",
		BankLinkID:    9999,
		TokenMint:     "Mint111",
		Amount:        1,
		Status:        domain.MintStatusPending,
		CreatedAt:     1700000001000,
	}

	err := store.Insert(context.Background(), record)
	assert.True(t, errors.Is(err, storage.ErrForeignKey), "expected ErrForeignKey, got %v", err)
}

func TestMintRecordStore_InsertDuplicateID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := createTestLink(t, ctx, pool, "wallet-1")
	store := NewMintRecordStore(pool)

	record := &domain.MintRecord{
		ID:            "rec-1",
		WalletAddress: "wallet-1",
		BankLinkID:    link.ID,
		TokenMint:     "Mint111",
		Amount:        1,
		Status:        domain.MintStatusPending,
		CreatedAt:     1700000001000,
	}
	require.NoError(t, store.Insert(ctx, record))

	err := store.Insert(ctx, record)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)
}

func TestMintRecordStore_MarkCompleted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := createTestLink(t, ctx, pool, "wallet-1")
	store := NewMintRecordStore(pool)

	record := &domain.MintRecord{
		ID:            "rec-1",
		WalletAddress: "wallet-1",
		BankLinkID:    link.ID,
		TokenMint:     "Mint111",
		Amount:        500,
		Status:        domain.MintStatusPending,
		TxSignature:   "Sig111",
		CreatedAt:     1700000001000,
	}
	require.NoError(t, store.Insert(ctx, record))
	require.NoError(t, store.MarkCompleted(ctx, "rec-1", "Sig111", 1700000005000))

	got, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.MintStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, int64(1700000005000), *got.CompletedAt)
}

func TestMintRecordStore_MarkFailed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := createTestLink(t, ctx, pool, "wallet-1")
	store := NewMintRecordStore(pool)

	record := &domain.MintRecord{
		ID:            "rec-1",
		WalletAddress: "wallet-1",
		BankLinkID:    link.ID,
		TokenMint:     "Mint111",
		Amount:        500,
		Status:        domain.MintStatusPending,
		TxSignature:   "Sig111",
		CreatedAt:     1700000001000,
	}
	require.NoError(t, store.Insert(ctx, record))
	require.NoError(t, store.MarkFailed(ctx, "rec-1", 1700000005000))

	got, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.MintStatusFailed, got.Status)
}

func TestMintRecordStore_MarkCompletedNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMintRecordStore(pool)
	err := store.MarkCompleted(context.Background(), "missing", "sig", 1)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestMintRecordStore_ListByWalletNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := createTestLink(t, ctx, pool, "wallet-1")
	store := NewMintRecordStore(pool)

	for i, created := range []int64{1700000001000, 1700000003000, 1700000002000} {
		record := &domain.MintRecord{
			ID:            string(rune('a' + i)),
			WalletAddress: "wallet-1",
			BankLinkID:    link.ID,
			TokenMint:     "Mint111",
			Amount:        1,
			Status:        domain.MintStatusCompleted,
			CreatedAt:     created,
		}
		require.NoError(t, store.Insert(ctx, record))
	}

	records, err := store.ListByWallet(ctx, "wallet-1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, int64(1700000003000), records[0].CreatedAt)
	assert.Equal(t, int64(1700000002000), records[1].CreatedAt)
	assert.Equal(t, int64(1700000001000), records[2].CreatedAt)
}

func TestMintRecordStore_ListPending(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := createTestLink(t, ctx, pool, "wallet-1")
	store := NewMintRecordStore(pool)

	records := []*domain.MintRecord{
		// Submitted, awaiting reconciliation.
		{ID: "pending-late", WalletAddress: "wallet-1", BankLinkID: link.ID, TokenMint: "M1", Amount: 1, Status: domain.MintStatusPending, TxSignature: "SigB", CreatedAt: 1700000002000},
		{ID: "pending-early", WalletAddress: "wallet-1", BankLinkID: link.ID, TokenMint: "M2", Amount: 1, Status: domain.MintStatusPending, TxSignature: "SigA", CreatedAt: 1700000001000},
		// Never submitted: no signature to reconcile against.
		{ID: "unsubmitted", WalletAddress: "wallet-1", BankLinkID: link.ID, TokenMint: "M3", Amount: 1, Status: domain.MintStatusPending, CreatedAt: 1700000000000},
		{ID: "done", WalletAddress: "wallet-1", BankLinkID: link.ID, TokenMint: "M4", Amount: 1, Status: domain.MintStatusCompleted, TxSignature: "SigC", CreatedAt: 1700000000000},
	}
	for _, r := range records {
		require.NoError(t, store.Insert(ctx, r))
	}

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	assert.Equal(t, "pending-early", pending[0].ID)
	assert.Equal(t, "pending-late", pending[1].ID)
}

func TestMintRecordStore_InsertInvalidStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMintRecordStore(pool)
	record := &domain.MintRecord{
		ID:            "rec-1",
		WalletAddress: "wallet-1",
		BankLinkID:    1,
		Status:        domain.MintStatus("bogus"),
		CreatedAt:     1,
	}

	err := store.Insert(context.Background(), record)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
}
