package postgres

import (
	"context"
	"fmt"
	"time"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Ensure creates a user row for the wallet if absent and returns it.
func (s *UserStore) Ensure(ctx context.Context, walletAddress string) (*domain.User, error) {
	if walletAddress == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO users (wallet_address, created_at)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET wallet_address = EXCLUDED.wallet_address
		RETURNING id, wallet_address, created_at
	`

	var u domain.User
	err := s.pool.QueryRow(ctx, query, walletAddress, time.Now().UnixMilli()).Scan(
		&u.ID, &u.WalletAddress, &u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &u, nil
}

// GetByWallet retrieves a user. Returns ErrNotFound if not exists.
func (s *UserStore) GetByWallet(ctx context.Context, walletAddress string) (*domain.User, error) {
	query := `
		SELECT id, wallet_address, created_at
		FROM users
		WHERE wallet_address = $1
	`

	var u domain.User
	err := s.pool.QueryRow(ctx, query, walletAddress).Scan(&u.ID, &u.WalletAddress, &u.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user by wallet: %w", err)
	}
	return &u, nil
}
