// Package stub provides in-memory test doubles for the Solana clients.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stablemint/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Zero value fields
// yield sensible defaults; error fields force failures.
type RPCClient struct {
	mu sync.Mutex

	Blockhash     string
	BlockhashErr  error
	RentLamports  uint64
	RentErr       error
	SendSignature string
	SendErr       error
	BalanceErr    error

	// Statuses maps signature to the status returned by
	// GetSignatureStatuses. Missing signatures return nil entries.
	Statuses map[string]*solana.SignatureStatus
	// Transactions maps signature to the result of GetTransaction.
	Transactions map[string]*solana.Transaction
	// Balances maps pubkey to lamports.
	Balances map[string]uint64

	// SentTransactions records every base64 payload submitted.
	SentTransactions []string
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a stub with a valid-looking default blockhash.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash:    "GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W",
		RentLamports: 1461600,
		Statuses:     make(map[string]*solana.SignatureStatus),
		Transactions: make(map[string]*solana.Transaction),
		Balances:     make(map[string]uint64),
	}
}

func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	return &solana.LatestBlockhash{Blockhash: c.Blockhash, LastValidBlockHeight: 1000}, nil
}

func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	if c.RentErr != nil {
		return 0, c.RentErr
	}
	return c.RentLamports, nil
}

// SendTransaction records the payload and returns the configured
// signature, or a generated one when unset.
func (c *RPCClient) SendTransaction(_ context.Context, txBase64 string) (string, error) {
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SentTransactions = append(c.SentTransactions, txBase64)
	if c.SendSignature != "" {
		return c.SendSignature, nil
	}
	return fmt.Sprintf("stubsig%d", len(c.SentTransactions)), nil
}

func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Balances[pubkey], nil
}

// Confirmer implements solana.ConfirmationWaiter for testing.
type Confirmer struct {
	Result *solana.ConfirmationResult
	Err    error
	// Block makes WaitForSignature wait out the context, simulating a
	// subscription whose notification never arrives.
	Block bool
	// Waited records signatures passed to WaitForSignature.
	Waited []string
}

var _ solana.ConfirmationWaiter = (*Confirmer)(nil)

func (c *Confirmer) WaitForSignature(ctx context.Context, signature string) (*solana.ConfirmationResult, error) {
	c.Waited = append(c.Waited, signature)
	if c.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Result != nil {
		return c.Result, nil
	}
	return &solana.ConfirmationResult{Slot: 1}, nil
}

func (c *Confirmer) Close() error { return nil }

// ErrUnavailable is a generic transport failure for forcing fallbacks.
var ErrUnavailable = errors.New("stub: unavailable")
