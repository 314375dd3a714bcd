package memory

import (
	"context"
	"sort"
	"sync"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.Token // keyed by mint address
	nextID int64
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data:   make(map[string]*domain.Token),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a catalog entry. Returns ErrDuplicateKey if the mint address
// exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.MintAddress]; exists {
		return storage.ErrDuplicateKey
	}

	t.ID = s.nextID
	s.nextID++

	tokenCopy := *t
	s.data[t.MintAddress] = &tokenCopy
	return nil
}

// ListByCreator retrieves tokens created by a wallet, newest first.
func (s *TokenStore) ListByCreator(_ context.Context, walletAddress string) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tokens []*domain.Token
	for _, t := range s.data {
		if t.CreatorWallet == walletAddress {
			tokenCopy := *t
			tokens = append(tokens, &tokenCopy)
		}
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt != tokens[j].CreatedAt {
			return tokens[i].CreatedAt > tokens[j].CreatedAt
		}
		return tokens[i].ID > tokens[j].ID
	})

	return tokens, nil
}
