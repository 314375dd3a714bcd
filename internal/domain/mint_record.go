package domain

// MintStatus is the lifecycle state of a minting attempt.
type MintStatus string

const (
	MintStatusPending   MintStatus = "pending"
	MintStatusCompleted MintStatus = "completed"
	MintStatusFailed    MintStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s MintStatus) Valid() bool {
	switch s {
	case MintStatusPending, MintStatusCompleted, MintStatusFailed:
		return true
	}
	return false
}

// MintRecord is the audit row for one minting attempt. The amount must not
// exceed the available balance captured on the referenced BankLink at
// authorization time; this is enforced in the pipeline, not by the schema.
type MintRecord struct {
	ID            string // uuid
	WalletAddress string
	BankLinkID    int64  // references bank_links, must exist before insert
	TokenMint     string // base58 mint account address
	Amount        float64
	Status        MintStatus
	TxSignature   string // empty until submission
	CreatedAt     int64  // Unix ms
	CompletedAt   *int64 // Unix ms, nil while pending
}
