package memory

import (
	"context"
	"errors"
	"testing"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

func TestAuditEventStore_InsertAndListByWallet(t *testing.T) {
	store := NewAuditEventStore()
	ctx := context.Background()

	events := []*domain.AuditEvent{
		{WalletAddress: "wallet-1", Kind: domain.AuditMintCompleted, Reference: "rec-1", Amount: 100, Timestamp: 3000},
		{WalletAddress: "wallet-1", Kind: domain.AuditLinkCreated, Reference: "item-1", Timestamp: 1000},
		{WalletAddress: "wallet-2", Kind: domain.AuditLinkCreated, Reference: "item-2", Timestamp: 2000},
		{WalletAddress: "wallet-1", Kind: domain.AuditMintSubmitted, Reference: "rec-1", Amount: 100, Timestamp: 2000},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByWallet(ctx, "wallet-1")
	if err != nil {
		t.Fatalf("ListByWallet failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	// Oldest first.
	wantKinds := []domain.AuditEventKind{domain.AuditLinkCreated, domain.AuditMintSubmitted, domain.AuditMintCompleted}
	for i, kind := range wantKinds {
		if got[i].Kind != kind {
			t.Errorf("event %d: expected kind %s, got %s", i, kind, got[i].Kind)
		}
	}
}

func TestAuditEventStore_ListByWalletEmpty(t *testing.T) {
	store := NewAuditEventStore()

	got, err := store.ListByWallet(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("ListByWallet failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestAuditEventStore_InvalidInput(t *testing.T) {
	store := NewAuditEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil event: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(ctx, &domain.AuditEvent{Kind: domain.AuditLinkCreated}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("missing wallet: expected ErrInvalidInput, got %v", err)
	}
}
