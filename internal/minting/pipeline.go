// Package minting builds, signs, submits, and confirms the token creation
// transaction, and records the attempt durably.
package minting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"stablemint/internal/apperr"
	"stablemint/internal/domain"
	"stablemint/internal/gate"
	"stablemint/internal/observability"
	"stablemint/internal/solana"
	"stablemint/internal/spltoken"
	"stablemint/internal/storage"
	"stablemint/internal/wallet"
)

// BalanceSource refreshes the live linked-account snapshot for a wallet.
// *banklink.Service satisfies it.
type BalanceSource interface {
	GetLinkedAccount(ctx context.Context, walletAddress string) (*domain.BankSnapshot, error)
}

// Options tunes pipeline timing.
type Options struct {
	// ConfirmTimeout bounds the wait for on-chain confirmation.
	ConfirmTimeout time.Duration
	// PollInterval is the getSignatureStatuses polling cadence used when
	// no WebSocket confirmer is available or its subscription fails.
	PollInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = 60 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
}

// Result describes a completed mint.
type Result struct {
	RecordID     string
	Signature    string
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	BaseUnits    uint64
}

// Pipeline executes the mint flow end to end.
type Pipeline struct {
	rpc       solana.RPCClient
	confirmer solana.ConfirmationWaiter // nil disables the WS path
	balances  BalanceSource
	links     storage.BankLinkStore
	records   storage.MintRecordStore
	tokens    storage.TokenStore
	audit     storage.AuditEventStore // nil disables the audit trail
	metrics   *observability.Metrics  // nil disables instrumentation
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline wires the pipeline. confirmer, tokens, audit, and metrics
// may be nil.
func NewPipeline(rpc solana.RPCClient, confirmer solana.ConfirmationWaiter, balances BalanceSource, links storage.BankLinkStore, records storage.MintRecordStore, tokens storage.TokenStore, audit storage.AuditEventStore, metrics *observability.Metrics, opts Options, logger *slog.Logger) *Pipeline {
	opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		rpc:       rpc,
		confirmer: confirmer,
		balances:  balances,
		links:     links,
		records:   records,
		tokens:    tokens,
		audit:     audit,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Mint creates a new token for the signer's wallet: it re-verifies the
// linked bank balance, builds one atomic transaction (create mint account,
// initialize mint, create the recipient's associated token account, mint
// the initial supply, optionally hand over the mint authority), signs with
// the fresh mint key plus the wallet, submits, and waits for confirmation.
//
// Any failure before submission aborts with no on-chain effect. After
// submission a pending record with the signature is persisted; a
// confirmation timeout leaves it pending for the reconciler rather than
// guessing an outcome.
func (p *Pipeline) Mint(ctx context.Context, signer wallet.Signer, params domain.TokenParams) (*Result, error) {
	started := time.Now()
	payer := signer.PublicKey()

	baseUnits, err := spltoken.ScaleSupply(params.Supply, params.Decimals)
	if err != nil {
		return nil, apperr.Validation("invalid supply", err)
	}
	amount, err := strconv.ParseFloat(params.Supply, 64)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid supply %q", params.Supply), err)
	}

	link, err := p.reverify(ctx, payer.String(), params.Supply)
	if err != nil {
		return nil, err
	}

	mintKey, err := solana.NewKeypair()
	if err != nil {
		return nil, apperr.MintFailed("generate mint keypair", err)
	}
	mint := mintKey.PublicKey()

	rent, err := p.rpc.GetMinimumBalanceForRentExemption(ctx, spltoken.MintAccountSize)
	if err != nil {
		return nil, apperr.Upstream("rent exemption query", err)
	}

	if err := p.preflightBalance(ctx, payer, rent); err != nil {
		return nil, err
	}

	recipient := resolveRecipient(params.Recipient, payer)

	freezeAuthority := solana.PublicKey{}
	if params.FreezeAuthority {
		freezeAuthority = payer
	}

	ataIns, tokenAccount, err := spltoken.CreateAssociatedTokenAccount(payer, recipient, mint)
	if err != nil {
		return nil, apperr.MintFailed("derive token account", err)
	}

	builder := solana.NewTransactionBuilder(payer).
		Add(spltoken.CreateAccount(payer, mint, rent, spltoken.MintAccountSize, spltoken.TokenProgramID)).
		Add(spltoken.InitializeMint(mint, params.Decimals, payer, freezeAuthority)).
		Add(ataIns).
		Add(spltoken.MintTo(mint, tokenAccount, payer, baseUnits))

	if params.Authority == domain.AuthorityTransfer && recipient != payer {
		builder.Add(spltoken.TransferMintAuthority(mint, payer, recipient))
	}

	blockhash, err := p.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, apperr.Upstream("latest blockhash", err)
	}
	builder.SetBlockhash(blockhash.Blockhash)

	if err := p.sign(builder, mintKey, signer); err != nil {
		return nil, err
	}

	wire, err := builder.Serialize()
	if err != nil {
		return nil, apperr.MintFailed("serialize transaction", err)
	}

	signature, err := p.rpc.SendTransaction(ctx, wire)
	if err != nil {
		return nil, apperr.Upstream("submit transaction", err)
	}

	record := &domain.MintRecord{
		ID:            uuid.NewString(),
		WalletAddress: payer.String(),
		BankLinkID:    link.ID,
		TokenMint:     mint.String(),
		Amount:        amount,
		Status:        domain.MintStatusPending,
		TxSignature:   signature,
		CreatedAt:     p.now().UnixMilli(),
	}
	if err := p.records.Insert(ctx, record); err != nil {
		// The transaction is in flight; losing the record must not fail
		// the mint, but nothing will reconcile it either.
		p.logger.Error("persist pending mint record failed", "wallet", record.WalletAddress, "signature", signature, "error", err)
		p.metrics.AddDBError("mint_records")
	}
	p.recordAudit(ctx, record.WalletAddress, domain.AuditMintSubmitted, record.ID, amount)

	res := &Result{
		RecordID:     record.ID,
		Signature:    signature,
		Mint:         mint,
		TokenAccount: tokenAccount,
		BaseUnits:    baseUnits,
	}

	if err := p.confirm(ctx, signature); err != nil {
		if apperr.IsKind(err, apperr.KindMintFailed) {
			p.markFailed(ctx, record, amount)
			p.metrics.ObserveMint("failed", time.Since(started))
		} else {
			// Ambiguous outcomes leave the record pending.
			p.metrics.ObserveMint("pending", time.Since(started))
		}
		return nil, err
	}

	p.markCompleted(ctx, record, amount)
	p.catalogToken(ctx, params, mint, payer)
	p.metrics.ObserveMint("completed", time.Since(started))
	return res, nil
}

// txFeeLamports covers the two transaction signatures at the default
// 5000 lamport signature fee.
const txFeeLamports = 10000

// preflightBalance rejects a mint whose payer cannot fund the mint
// account rent and fees, before anything is signed or submitted. The
// balance query itself is best effort.
func (p *Pipeline) preflightBalance(ctx context.Context, payer solana.PublicKey, rent uint64) error {
	balance, err := p.rpc.GetBalance(ctx, payer.String())
	if err != nil {
		p.logger.Warn("payer balance preflight failed", "wallet", payer.String(), "error", err)
		return nil
	}
	if balance < rent+txFeeLamports {
		return apperr.MintFailed(fmt.Sprintf("payer balance %d lamports below rent and fees %d", balance, rent+txFeeLamports), nil)
	}
	return nil
}

// reverify reloads the wallet's BankLink and refreshes its balance so a
// stale verification cannot authorize more supply than is currently
// available. The ceiling decision itself lives in the gate.
func (p *Pipeline) reverify(ctx context.Context, walletAddress, supply string) (*domain.BankLink, error) {
	link, err := p.links.GetByWallet(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Validation("no linked bank account for wallet", err)
		}
		return nil, apperr.Persistence("load bank link", err)
	}

	g := gate.New()
	g.Begin()

	snapshot := domain.BankSnapshot{
		InstitutionName:  link.InstitutionName,
		AccountName:      link.AccountName,
		AccountMask:      link.AccountMask,
		CurrentBalance:   link.CurrentBalance,
		AvailableBalance: link.AvailableBalance,
	}
	if live, err := p.balances.GetLinkedAccount(ctx, walletAddress); err == nil {
		snapshot = *live
	} else {
		// The stored snapshot is the fallback ceiling when the live
		// refresh is unavailable.
		p.logger.Warn("balance refresh before mint failed", "wallet", walletAddress, "error", err)
	}
	g.Complete(snapshot)

	if !g.CanProceed(supply) {
		return nil, apperr.Validation(fmt.Sprintf("requested supply %s exceeds available balance %.2f", supply, snapshot.AvailableBalance), nil)
	}
	return link, nil
}

// sign pre-signs with the mint key, then asks the wallet for the rest. A
// declined wallet signature is a MintFailed, distinct from network errors:
// nothing was submitted.
func (p *Pipeline) sign(builder *solana.TransactionBuilder, mintKey *solana.Keypair, signer wallet.Signer) error {
	message, err := builder.Message()
	if err != nil {
		return apperr.MintFailed("compile transaction message", err)
	}

	required, err := builder.RequiredSigners()
	if err != nil {
		return apperr.MintFailed("resolve required signers", err)
	}

	for _, pk := range required {
		switch pk {
		case mintKey.PublicKey():
			if err := builder.AddSignature(pk, mintKey.Sign(message)); err != nil {
				return apperr.MintFailed("attach mint signature", err)
			}
		case signer.PublicKey():
			sig, err := signer.SignMessage(message)
			if err != nil {
				return apperr.MintFailed("wallet declined to sign", err)
			}
			if err := builder.AddSignature(pk, sig); err != nil {
				return apperr.MintFailed("attach wallet signature", err)
			}
		default:
			return apperr.MintFailed(fmt.Sprintf("no signer for %s", pk), nil)
		}
	}
	return nil
}

// confirm waits for the signature to reach confirmed commitment, over
// WebSocket when available with a polling fallback. A confirmed
// transaction carrying an on-chain error is a MintFailed; a timeout is an
// UpstreamError and the outcome stays unknown.
func (p *Pipeline) confirm(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.ConfirmTimeout)
	defer cancel()

	if p.confirmer != nil {
		res, err := p.confirmer.WaitForSignature(ctx, signature)
		if err == nil {
			if res.Err != nil {
				return apperr.MintFailed(fmt.Sprintf("transaction failed on chain: %v", res.Err), nil)
			}
			return nil
		}
		if ctx.Err() != nil {
			// The subscription may have been registered after the node
			// already confirmed the signature, in which case it never
			// fires. Ask the chain once before declaring the outcome
			// unknown.
			return p.lastChanceStatus(signature)
		}
		p.logger.Warn("websocket confirmation unavailable, polling", "signature", signature, "error", err)
	}

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return apperr.Upstream("confirmation timed out", ctx.Err())
		case <-ticker.C:
		}

		statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			p.logger.Warn("signature status poll failed", "signature", signature, "error", err)
			continue
		}
		if len(statuses) == 0 || !statuses[0].Confirmed() {
			continue
		}
		if statuses[0].Err != nil {
			return apperr.MintFailed(fmt.Sprintf("transaction failed on chain: %v", statuses[0].Err), nil)
		}
		return nil
	}
}

// lastChanceStatus resolves a timed-out confirmation with one status
// query on a fresh context. An inconclusive answer stays a timeout and
// the record is left to the reconciler.
func (p *Pipeline) lastChanceStatus(signature string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err == nil && len(statuses) > 0 && statuses[0].Confirmed() {
		if statuses[0].Err != nil {
			return apperr.MintFailed(fmt.Sprintf("transaction failed on chain: %v", statuses[0].Err), nil)
		}
		return nil
	}
	return apperr.Upstream("confirmation timed out", context.DeadlineExceeded)
}

func (p *Pipeline) markCompleted(ctx context.Context, record *domain.MintRecord, amount float64) {
	completedAt := p.now().UnixMilli()
	// Best effort: the token exists on chain regardless of this write.
	if err := p.records.MarkCompleted(ctx, record.ID, record.TxSignature, completedAt); err != nil {
		p.logger.Error("mark mint record completed failed", "record", record.ID, "error", err)
		p.metrics.AddDBError("mint_records")
	}
	p.recordAudit(ctx, record.WalletAddress, domain.AuditMintCompleted, record.ID, amount)
}

func (p *Pipeline) markFailed(ctx context.Context, record *domain.MintRecord, amount float64) {
	if err := p.records.MarkFailed(ctx, record.ID, p.now().UnixMilli()); err != nil {
		p.logger.Error("mark mint record failed failed", "record", record.ID, "error", err)
		p.metrics.AddDBError("mint_records")
	}
	p.recordAudit(ctx, record.WalletAddress, domain.AuditMintFailed, record.ID, amount)
}

// catalogToken records the new token in the catalog, best effort.
func (p *Pipeline) catalogToken(ctx context.Context, params domain.TokenParams, mint, creator solana.PublicKey) {
	if p.tokens == nil {
		return
	}
	token := &domain.Token{
		MintAddress:   mint.String(),
		Name:          params.Name,
		Symbol:        params.Symbol,
		Decimals:      params.Decimals,
		CreatorWallet: creator.String(),
		CreatedAt:     p.now().UnixMilli(),
	}
	if err := p.tokens.Insert(ctx, token); err != nil {
		p.logger.Warn("token catalog insert failed", "mint", token.MintAddress, "error", err)
	}
}

func (p *Pipeline) recordAudit(ctx context.Context, walletAddress string, kind domain.AuditEventKind, ref string, amount float64) {
	if p.audit == nil {
		return
	}
	e := &domain.AuditEvent{
		WalletAddress: walletAddress,
		Kind:          kind,
		Reference:     ref,
		Amount:        amount,
		Timestamp:     p.now().UnixMilli(),
	}
	if err := p.audit.Insert(ctx, e); err != nil {
		p.logger.Warn("audit write failed", "wallet", walletAddress, "kind", kind, "error", err)
	}
}

// resolveRecipient parses the requested recipient, substituting the payer
// when it is absent or malformed. Never an error.
func resolveRecipient(recipient string, payer solana.PublicKey) solana.PublicKey {
	if recipient == "" {
		return payer
	}
	pk, err := solana.ParsePublicKey(recipient)
	if err != nil {
		return payer
	}
	return pk
}
