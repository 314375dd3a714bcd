package memory

import (
	"context"
	"sort"
	"sync"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// AuditEventStore is an in-memory implementation of storage.AuditEventStore.
type AuditEventStore struct {
	mu   sync.RWMutex
	data []*domain.AuditEvent
}

// NewAuditEventStore creates a new in-memory audit event store.
func NewAuditEventStore() *AuditEventStore {
	return &AuditEventStore{}
}

// Compile-time interface check.
var _ storage.AuditEventStore = (*AuditEventStore)(nil)

// Insert appends an event.
func (s *AuditEventStore) Insert(_ context.Context, e *domain.AuditEvent) error {
	if e == nil || e.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.data = append(s.data, &eventCopy)
	return nil
}

// ListByWallet retrieves events for a wallet, oldest first.
func (s *AuditEventStore) ListByWallet(_ context.Context, walletAddress string) ([]*domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*domain.AuditEvent
	for _, e := range s.data {
		if e.WalletAddress == walletAddress {
			eventCopy := *e
			events = append(events, &eventCopy)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return events, nil
}
