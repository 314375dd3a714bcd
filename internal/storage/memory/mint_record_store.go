package memory

import (
	"context"
	"sort"
	"sync"

	"stablemint/internal/domain"
	"stablemint/internal/storage"
)

// MintRecordStore is an in-memory implementation of storage.MintRecordStore.
// The linkExists hook mirrors the foreign key constraint in postgres; leave
// it nil to skip referential checks.
type MintRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MintRecord // keyed by record ID

	linkExists func(bankLinkID int64) bool
}

// NewMintRecordStore creates a new in-memory mint record store.
func NewMintRecordStore() *MintRecordStore {
	return &MintRecordStore{
		data: make(map[string]*domain.MintRecord),
	}
}

// NewMintRecordStoreWithLinks creates a store whose inserts enforce the
// bank link reference against the given store, like the postgres FK does.
func NewMintRecordStoreWithLinks(links *BankLinkStore) *MintRecordStore {
	s := NewMintRecordStore()
	s.linkExists = func(bankLinkID int64) bool {
		links.mu.RLock()
		defer links.mu.RUnlock()
		for _, l := range links.data {
			if l.ID == bankLinkID {
				return true
			}
		}
		return false
	}
	return s
}

// Compile-time interface check.
var _ storage.MintRecordStore = (*MintRecordStore)(nil)

// Insert adds a new record.
func (s *MintRecordStore) Insert(_ context.Context, r *domain.MintRecord) error {
	if r == nil || r.ID == "" || r.WalletAddress == "" || !r.Status.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if s.linkExists != nil && !s.linkExists(r.BankLinkID) {
		return storage.ErrForeignKey
	}

	recordCopy := *r
	s.data[r.ID] = &recordCopy
	return nil
}

// MarkCompleted transitions a record to completed with its signature.
func (s *MintRecordStore) MarkCompleted(_ context.Context, id, txSignature string, completedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[id]
	if !ok {
		return storage.ErrNotFound
	}

	r.Status = domain.MintStatusCompleted
	r.TxSignature = txSignature
	r.CompletedAt = &completedAt
	return nil
}

// MarkFailed transitions a record to failed.
func (s *MintRecordStore) MarkFailed(_ context.Context, id string, completedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[id]
	if !ok {
		return storage.ErrNotFound
	}

	r.Status = domain.MintStatusFailed
	r.CompletedAt = &completedAt
	return nil
}

// GetByID retrieves a record. Returns ErrNotFound if not exists.
func (s *MintRecordStore) GetByID(_ context.Context, id string) (*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// ListByWallet retrieves all records for a wallet, newest first.
func (s *MintRecordStore) ListByWallet(_ context.Context, walletAddress string) ([]*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.MintRecord
	for _, r := range s.data {
		if r.WalletAddress == walletAddress {
			recordCopy := *r
			records = append(records, &recordCopy)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].ID > records[j].ID
	})

	return records, nil
}

// ListPending retrieves submitted records stuck in pending, oldest first.
func (s *MintRecordStore) ListPending(_ context.Context) ([]*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.MintRecord
	for _, r := range s.data {
		if r.Status == domain.MintStatusPending && r.TxSignature != "" {
			recordCopy := *r
			records = append(records, &recordCopy)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt < records[j].CreatedAt
	})

	return records, nil
}
