package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the minting pipeline uses.
type RPCClient interface {
	// GetLatestBlockhash retrieves the latest blockhash at confirmed commitment.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// GetMinimumBalanceForRentExemption returns the lamports required to
	// make an account of the given size rent exempt.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// SendTransaction submits a fully signed transaction (base64 wire
	// encoding) and returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetSignatureStatuses retrieves confirmation status for signatures.
	// Result positions match the input; nil means not yet observed.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil if the transaction is unknown to the node.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// Transaction represents a confirmed Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata. A non-nil Err means the
// transaction landed on chain but failed.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
