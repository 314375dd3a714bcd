package domain

// BankLink is the durable record of a bank account linked to a wallet.
// At most one active link exists per wallet address; a second linking
// attempt replaces the first (upsert semantics).
type BankLink struct {
	ID            int64  // surrogate key
	WalletAddress string // base58 wallet public key, unique
	AccessToken   string // opaque durable aggregator credential
	ItemID        string // aggregator item identifier

	InstitutionID   string
	InstitutionName string

	AccountID   string
	AccountName string
	AccountMask string // last digits only

	CurrentBalance   float64
	AvailableBalance float64

	LastRefreshedAt int64 // Unix ms of last balance refresh
	CreatedAt       int64 // Unix ms, set by storage
}

// Snapshot returns the sanitized view of the link handed to callers.
// The access token never leaves the persistence boundary.
func (l *BankLink) Snapshot() BankSnapshot {
	return BankSnapshot{
		InstitutionName:  l.InstitutionName,
		AccountName:      l.AccountName,
		AccountMask:      l.AccountMask,
		CurrentBalance:   l.CurrentBalance,
		AvailableBalance: l.AvailableBalance,
	}
}

// BankSnapshot is the sanitized balance snapshot returned to API callers
// and held by the verification gate.
type BankSnapshot struct {
	InstitutionName  string  `json:"institutionName"`
	AccountName      string  `json:"accountName"`
	AccountMask      string  `json:"accountMask"`
	CurrentBalance   float64 `json:"currentBalance"`
	AvailableBalance float64 `json:"availableBalance"`
}
