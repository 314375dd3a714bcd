package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

func TestAuditEventStore_InsertAndListByWallet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAuditEventStore(conn)

	events := []*domain.AuditEvent{
		{WalletAddress: "wallet-1", Kind: domain.AuditMintCompleted, Reference: "rec-1", Amount: 500, Timestamp: 1700000002000},
		{WalletAddress: "wallet-1", Kind: domain.AuditLinkCreated, Reference: "item-1", Timestamp: 1700000001000},
		{WalletAddress: "wallet-2", Kind: domain.AuditLinkCreated, Reference: "item-2", Timestamp: 1700000003000},
	}
	for _, e := range events {
		require.NoError(t, store.Insert(ctx, e))
	}

	got, err := store.ListByWallet(ctx, "wallet-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first.
	assert.Equal(t, domain.AuditLinkCreated, got[0].Kind)
	assert.Equal(t, "item-1", got[0].Reference)
	assert.Equal(t, domain.AuditMintCompleted, got[1].Kind)
	assert.Equal(t, 500.0, got[1].Amount)
	assert.Equal(t, int64(1700000002000), got[1].Timestamp)
}

func TestAuditEventStore_ListByWalletEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAuditEventStore(conn)
	got, err := store.ListByWallet(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAuditEventStore_InsertInvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAuditEventStore(conn)
	err := store.Insert(context.Background(), &domain.AuditEvent{})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
}
