package minting

import (
	"context"
	"log/slog"
	"time"

	"stablemint/internal/domain"
	"stablemint/internal/observability"
	"stablemint/internal/solana"
	"stablemint/internal/storage"
)

// Reconciler resolves mint records left pending by a failure between
// submission and confirmation. A dropped connection after broadcast
// leaves the outcome unknown; rather than assuming failure, the
// reconciler polls the chain by signature and flips the record only on a
// definitive answer.
type Reconciler struct {
	rpc      solana.RPCClient
	records  storage.MintRecordStore
	audit    storage.AuditEventStore // nil disables the audit trail
	metrics  *observability.Metrics  // nil disables instrumentation
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciler creates a reconciler polling at the given interval
// (default 30s). audit and metrics may be nil.
func NewReconciler(rpc solana.RPCClient, records storage.MintRecordStore, audit storage.AuditEventStore, metrics *observability.Metrics, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		rpc:      rpc,
		records:  records,
		audit:    audit,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run reconciles on a ticker until the context is done.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("mint reconciler started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := r.ReconcileOnce(ctx); err != nil {
			r.logger.Warn("reconcile pass failed", "error", err)
		}
	}
}

// ReconcileOnce resolves every pending record it can. Records whose
// signatures are still unknown to the chain stay pending.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	pending, err := r.records.ListPending(ctx)
	if err != nil {
		r.metrics.AddDBError("mint_records")
		return err
	}
	r.metrics.SetPendingMints(len(pending))
	for _, rec := range pending {
		if err := r.reconcileRecord(ctx, rec); err != nil {
			r.logger.Warn("reconcile record failed", "record", rec.ID, "signature", rec.TxSignature, "error", err)
		}
	}
	return nil
}

func (r *Reconciler) reconcileRecord(ctx context.Context, rec *domain.MintRecord) error {
	statuses, err := r.rpc.GetSignatureStatuses(ctx, []string{rec.TxSignature})
	if err != nil {
		return err
	}

	var status *solana.SignatureStatus
	if len(statuses) > 0 {
		status = statuses[0]
	}

	if status.Confirmed() {
		return r.resolve(ctx, rec, status.Err)
	}

	// Status cache misses for older transactions; getTransaction searches
	// the full history.
	tx, err := r.rpc.GetTransaction(ctx, rec.TxSignature)
	if err != nil {
		return err
	}
	if tx == nil {
		// Unknown to the chain. The transaction may still land, so the
		// record stays pending.
		r.logger.Debug("signature still unknown", "record", rec.ID, "signature", rec.TxSignature)
		return nil
	}

	var txErr interface{}
	if tx.Meta != nil {
		txErr = tx.Meta.Err
	}
	return r.resolve(ctx, rec, txErr)
}

// resolve flips a pending record to its definitive outcome.
func (r *Reconciler) resolve(ctx context.Context, rec *domain.MintRecord, onChainErr interface{}) error {
	nowMs := r.now().UnixMilli()
	if onChainErr != nil {
		if err := r.records.MarkFailed(ctx, rec.ID, nowMs); err != nil {
			r.metrics.AddDBError("mint_records")
			return err
		}
		r.logger.Info("pending mint resolved failed", "record", rec.ID, "signature", rec.TxSignature, "chain_error", onChainErr)
		r.metrics.AddReconciled("failed")
		r.recordAudit(ctx, rec, domain.AuditMintFailed)
		return nil
	}

	if err := r.records.MarkCompleted(ctx, rec.ID, rec.TxSignature, nowMs); err != nil {
		r.metrics.AddDBError("mint_records")
		return err
	}
	r.logger.Info("pending mint resolved completed", "record", rec.ID, "signature", rec.TxSignature)
	r.metrics.AddReconciled("completed")
	r.recordAudit(ctx, rec, domain.AuditMintCompleted)
	return nil
}

func (r *Reconciler) recordAudit(ctx context.Context, rec *domain.MintRecord, kind domain.AuditEventKind) {
	if r.audit == nil {
		return
	}
	e := &domain.AuditEvent{
		WalletAddress: rec.WalletAddress,
		Kind:          kind,
		Reference:     rec.ID,
		Amount:        rec.Amount,
		Timestamp:     r.now().UnixMilli(),
	}
	if err := r.audit.Insert(ctx, e); err != nil {
		r.logger.Warn("audit write failed", "record", rec.ID, "error", err)
	}
}
