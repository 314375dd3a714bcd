package solana

// LatestBlockhash is the result of getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SignatureStatus is one entry of getSignatureStatuses. ConfirmationStatus
// is one of "processed", "confirmed", "finalized".
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64
	Err                interface{}
	ConfirmationStatus string
}

// Confirmed reports whether the signature reached at least confirmed
// commitment.
func (s *SignatureStatus) Confirmed() bool {
	return s != nil && (s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized")
}
