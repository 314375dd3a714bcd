package postgres

import (
	"context"
	"fmt"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// BankLinkStore implements storage.BankLinkStore using PostgreSQL.
type BankLinkStore struct {
	pool *Pool
}

// NewBankLinkStore creates a new BankLinkStore.
func NewBankLinkStore(pool *Pool) *BankLinkStore {
	return &BankLinkStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BankLinkStore = (*BankLinkStore)(nil)

// Upsert inserts or replaces the link for link.WalletAddress. A second
// linking attempt for the same wallet supersedes the first; last write wins.
func (s *BankLinkStore) Upsert(ctx context.Context, link *domain.BankLink) error {
	if link == nil || link.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO bank_links (
			wallet_address, access_token, item_id,
			institution_id, institution_name,
			account_id, account_name, account_mask,
			current_balance, available_balance,
			last_refreshed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (wallet_address) DO UPDATE SET
			access_token      = EXCLUDED.access_token,
			item_id           = EXCLUDED.item_id,
			institution_id    = EXCLUDED.institution_id,
			institution_name  = EXCLUDED.institution_name,
			account_id        = EXCLUDED.account_id,
			account_name      = EXCLUDED.account_name,
			account_mask      = EXCLUDED.account_mask,
			current_balance   = EXCLUDED.current_balance,
			available_balance = EXCLUDED.available_balance,
			last_refreshed_at = EXCLUDED.last_refreshed_at
		RETURNING id, created_at
	`

	err := s.pool.QueryRow(ctx, query,
		link.WalletAddress,
		link.AccessToken,
		link.ItemID,
		link.InstitutionID,
		link.InstitutionName,
		link.AccountID,
		link.AccountName,
		link.AccountMask,
		link.CurrentBalance,
		link.AvailableBalance,
		link.LastRefreshedAt,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert bank link: %w", err)
	}
	return nil
}

// GetByWallet retrieves the link for a wallet. Returns ErrNotFound if no
// link exists.
func (s *BankLinkStore) GetByWallet(ctx context.Context, walletAddress string) (*domain.BankLink, error) {
	query := `
		SELECT id, wallet_address, access_token, item_id,
		       institution_id, institution_name,
		       account_id, account_name, account_mask,
		       current_balance, available_balance,
		       last_refreshed_at, created_at
		FROM bank_links
		WHERE wallet_address = $1
	`

	var l domain.BankLink
	err := s.pool.QueryRow(ctx, query, walletAddress).Scan(
		&l.ID,
		&l.WalletAddress,
		&l.AccessToken,
		&l.ItemID,
		&l.InstitutionID,
		&l.InstitutionName,
		&l.AccountID,
		&l.AccountName,
		&l.AccountMask,
		&l.CurrentBalance,
		&l.AvailableBalance,
		&l.LastRefreshedAt,
		&l.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bank link by wallet: %w", err)
	}
	return &l, nil
}

// UpdateBalances writes a refreshed balance snapshot for a wallet.
func (s *BankLinkStore) UpdateBalances(ctx context.Context, walletAddress string, current, available float64, refreshedAt int64) error {
	query := `
		UPDATE bank_links
		SET current_balance = $2, available_balance = $3, last_refreshed_at = $4
		WHERE wallet_address = $1
	`

	tag, err := s.pool.Exec(ctx, query, walletAddress, current, available, refreshedAt)
	if err != nil {
		return fmt.Errorf("update bank link balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
