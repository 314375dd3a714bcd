package postgres

import (
	"context"
	"fmt"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a catalog entry. Returns ErrDuplicateKey if the mint address
// exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	if t == nil || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (mint_address, name, symbol, decimals, creator_wallet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		t.MintAddress,
		t.Name,
		t.Symbol,
		int16(t.Decimals),
		t.CreatorWallet,
		t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// ListByCreator retrieves tokens created by a wallet, newest first.
func (s *TokenStore) ListByCreator(ctx context.Context, walletAddress string) ([]*domain.Token, error) {
	query := `
		SELECT id, mint_address, name, symbol, decimals, creator_wallet, created_at
		FROM tokens
		WHERE creator_wallet = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("list tokens by creator: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		var t domain.Token
		var decimals int16
		if err := rows.Scan(&t.ID, &t.MintAddress, &t.Name, &t.Symbol, &decimals, &t.CreatorWallet, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		t.Decimals = uint8(decimals)
		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}
