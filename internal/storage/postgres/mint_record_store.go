package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// MintRecordStore implements storage.MintRecordStore using PostgreSQL.
type MintRecordStore struct {
	pool *Pool
}

// NewMintRecordStore creates a new MintRecordStore.
func NewMintRecordStore(pool *Pool) *MintRecordStore {
	return &MintRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MintRecordStore = (*MintRecordStore)(nil)

// Insert adds a new record. Returns ErrForeignKey if the referenced bank
// link does not exist, ErrDuplicateKey on ID collision.
func (s *MintRecordStore) Insert(ctx context.Context, r *domain.MintRecord) error {
	if r == nil || r.ID == "" || r.WalletAddress == "" {
		return storage.ErrInvalidInput
	}
	if !r.Status.Valid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mint_records (
			id, wallet_address, bank_link_id, token_mint,
			amount, status, tx_signature, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.WalletAddress,
		r.BankLinkID,
		r.TokenMint,
		r.Amount,
		string(r.Status),
		r.TxSignature,
		r.CreatedAt,
		r.CompletedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrForeignKey
		}
		return fmt.Errorf("insert mint record: %w", err)
	}
	return nil
}

// MarkCompleted transitions a record to completed with its signature.
func (s *MintRecordStore) MarkCompleted(ctx context.Context, id, txSignature string, completedAt int64) error {
	query := `
		UPDATE mint_records
		SET status = $2, tx_signature = $3, completed_at = $4
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, string(domain.MintStatusCompleted), txSignature, completedAt)
	if err != nil {
		return fmt.Errorf("mark mint record completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkFailed transitions a record to failed.
func (s *MintRecordStore) MarkFailed(ctx context.Context, id string, completedAt int64) error {
	query := `
		UPDATE mint_records
		SET status = $2, completed_at = $3
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, string(domain.MintStatusFailed), completedAt)
	if err != nil {
		return fmt.Errorf("mark mint record failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a record. Returns ErrNotFound if not exists.
func (s *MintRecordStore) GetByID(ctx context.Context, id string) (*domain.MintRecord, error) {
	query := selectMintRecords + ` WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	r, err := scanMintRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get mint record by id: %w", err)
	}
	return r, nil
}

// ListByWallet retrieves all records for a wallet, newest first.
func (s *MintRecordStore) ListByWallet(ctx context.Context, walletAddress string) ([]*domain.MintRecord, error) {
	query := selectMintRecords + `
		WHERE wallet_address = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("list mint records by wallet: %w", err)
	}
	defer rows.Close()

	return scanMintRecords(rows)
}

// ListPending retrieves submitted records stuck in pending, oldest first.
func (s *MintRecordStore) ListPending(ctx context.Context) ([]*domain.MintRecord, error) {
	query := selectMintRecords + `
		WHERE status = 'pending' AND tx_signature <> ''
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending mint records: %w", err)
	}
	defer rows.Close()

	return scanMintRecords(rows)
}

const selectMintRecords = `
	SELECT id, wallet_address, bank_link_id, token_mint,
	       amount, status, tx_signature, created_at, completed_at
	FROM mint_records
`

// scanMintRecord scans a single row into a MintRecord.
func scanMintRecord(row pgx.Row) (*domain.MintRecord, error) {
	var r domain.MintRecord
	var statusStr string

	err := row.Scan(
		&r.ID,
		&r.WalletAddress,
		&r.BankLinkID,
		&r.TokenMint,
		&r.Amount,
		&statusStr,
		&r.TxSignature,
		&r.CreatedAt,
		&r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.MintStatus(statusStr)
	return &r, nil
}

// scanMintRecords scans multiple rows into a slice of MintRecord.
func scanMintRecords(rows pgx.Rows) ([]*domain.MintRecord, error) {
	var records []*domain.MintRecord

	for rows.Next() {
		r, err := scanMintRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mint record row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint record rows: %w", err)
	}

	return records, nil
}
