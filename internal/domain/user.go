package domain

// User is a wallet identity seen by the service. Trust derives from the
// browser extension's signed challenge; no password is stored. A row is
// created lazily on first contact.
type User struct {
	ID            int64
	WalletAddress string // unique
	CreatedAt     int64  // Unix ms
}

// Token is a catalog entry for a token created through the service.
type Token struct {
	ID            int64
	MintAddress   string // unique
	Name          string
	Symbol        string
	Decimals      uint8
	CreatorWallet string
	CreatedAt     int64 // Unix ms
}
