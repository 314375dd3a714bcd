package clickhouse

import (
	"context"
	"fmt"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// AuditEventStore implements storage.AuditEventStore using ClickHouse.
// MergeTree enforces no uniqueness; the trail is append-only by contract.
type AuditEventStore struct {
	conn *Conn
}

// NewAuditEventStore creates a new AuditEventStore.
func NewAuditEventStore(conn *Conn) *AuditEventStore {
	return &AuditEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AuditEventStore = (*AuditEventStore)(nil)

// Insert appends an event.
func (s *AuditEventStore) Insert(ctx context.Context, e *domain.AuditEvent) error {
	if e == nil || e.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO audit_events (wallet_address, kind, reference, amount, timestamp_ms)
		VALUES (?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		e.WalletAddress,
		string(e.Kind),
		e.Reference,
		e.Amount,
		uint64(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByWallet retrieves events for a wallet, oldest first.
func (s *AuditEventStore) ListByWallet(ctx context.Context, walletAddress string) ([]*domain.AuditEvent, error) {
	query := `
		SELECT wallet_address, kind, reference, amount, timestamp_ms
		FROM audit_events
		WHERE wallet_address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var kind string
		var ts uint64

		if err := rows.Scan(&e.WalletAddress, &kind, &e.Reference, &e.Amount, &ts); err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}

		e.Kind = domain.AuditEventKind(kind)
		e.Timestamp = int64(ts)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit event rows: %w", err)
	}

	return events, nil
}
