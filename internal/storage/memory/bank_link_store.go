package memory

import (
	"context"
	"sync"
	"time"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// BankLinkStore is an in-memory implementation of storage.BankLinkStore.
type BankLinkStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.BankLink // keyed by wallet address
	nextID int64
}

// NewBankLinkStore creates a new in-memory bank link store.
func NewBankLinkStore() *BankLinkStore {
	return &BankLinkStore{
		data:   make(map[string]*domain.BankLink),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.BankLinkStore = (*BankLinkStore)(nil)

// Upsert inserts or replaces the link for link.WalletAddress.
func (s *BankLinkStore) Upsert(_ context.Context, link *domain.BankLink) error {
	if link == nil || link.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[link.WalletAddress]; ok {
		// Replacing an existing link keeps its identity.
		link.ID = existing.ID
		link.CreatedAt = existing.CreatedAt
	} else {
		link.ID = s.nextID
		s.nextID++
		if link.CreatedAt == 0 {
			link.CreatedAt = time.Now().UnixMilli()
		}
	}

	linkCopy := *link
	s.data[link.WalletAddress] = &linkCopy
	return nil
}

// GetByWallet retrieves the link for a wallet. Returns ErrNotFound if no
// link exists.
func (s *BankLinkStore) GetByWallet(_ context.Context, walletAddress string) (*domain.BankLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.data[walletAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}

	linkCopy := *l
	return &linkCopy, nil
}

// UpdateBalances writes a refreshed balance snapshot for a wallet.
func (s *BankLinkStore) UpdateBalances(_ context.Context, walletAddress string, current, available float64, refreshedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.data[walletAddress]
	if !ok {
		return storage.ErrNotFound
	}

	l.CurrentBalance = current
	l.AvailableBalance = available
	l.LastRefreshedAt = refreshedAt
	return nil
}
