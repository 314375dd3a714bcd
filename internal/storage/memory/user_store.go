package memory

import (
	"context"
	"sync"
	"time"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.User // keyed by wallet address
	nextID int64
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		data:   make(map[string]*domain.User),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Ensure creates a user row for the wallet if absent and returns it.
func (s *UserStore) Ensure(_ context.Context, walletAddress string) (*domain.User, error) {
	if walletAddress == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.data[walletAddress]; ok {
		userCopy := *u
		return &userCopy, nil
	}

	u := &domain.User{
		ID:            s.nextID,
		WalletAddress: walletAddress,
		CreatedAt:     time.Now().UnixMilli(),
	}
	s.nextID++
	s.data[walletAddress] = u

	userCopy := *u
	return &userCopy, nil
}

// GetByWallet retrieves a user. Returns ErrNotFound if not exists.
func (s *UserStore) GetByWallet(_ context.Context, walletAddress string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.data[walletAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}

	userCopy := *u
	return &userCopy, nil
}
