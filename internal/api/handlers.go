// Package api exposes the HTTP+JSON surface: bank linking, account info,
// and mint records, keyed by wallet address.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stablemint/internal/apperr"
	"stablemint/internal/domain"
	"stablemint/internal/observability"
	"stablemint/internal/solana"
	"stablemint/internal/storage"
)

// BankLinker is the linking surface the handlers need. *banklink.Service
// satisfies it.
type BankLinker interface {
	RequestLinkHandle(ctx context.Context, walletAddress string) (string, error)
	CompleteLink(ctx context.Context, walletAddress, publicToken string) (*domain.BankSnapshot, error)
	GetLinkedAccount(ctx context.Context, walletAddress string) (*domain.BankSnapshot, error)
}

// API holds the handler dependencies.
type API struct {
	links   BankLinker
	banks   storage.BankLinkStore
	records storage.MintRecordStore
	tokens  storage.TokenStore
	metrics *observability.Metrics // nil disables instrumentation
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the API. metrics may be nil.
func New(links BankLinker, banks storage.BankLinkStore, records storage.MintRecordStore, tokens storage.TokenStore, metrics *observability.Metrics, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		links:   links,
		banks:   banks,
		records: records,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes mounts the endpoints on the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/api/plaid/create-link-token", a.CreateLinkToken)
	r.Post("/api/plaid/exchange-token", a.ExchangeToken)
	r.Post("/api/plaid/account-info", a.AccountInfo)
	r.Post("/api/plaid/record-mint", a.RecordMint)
	r.Post("/api/plaid/mint-history", a.MintHistory)
	r.Post("/api/tokens/list", a.ListTokens)
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type exchangeRequest struct {
	WalletAddress string `json:"walletAddress"`
	PublicToken   string `json:"publicToken"`
}

type recordMintRequest struct {
	WalletAddress string  `json:"walletAddress"`
	TokenAddress  string  `json:"tokenAddress"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
}

type historyItem struct {
	ID            string  `json:"id"`
	WalletAddress string  `json:"walletAddress"`
	TokenAddress  string  `json:"tokenAddress"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId,omitempty"`
	CreatedAt     int64   `json:"createdAt"`
	CompletedAt   *int64  `json:"completedAt,omitempty"`
}

// CreateLinkToken issues a short-lived link token for one linking session.
func (a *API) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateWallet(req.WalletAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := a.links.RequestLinkHandle(r.Context(), req.WalletAddress)
	if err != nil {
		a.failAggregator(w, "create link token", req.WalletAddress, err)
		return
	}

	if a.metrics != nil {
		a.metrics.LinkTokensIssued.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"link_token": token})
}

// ExchangeToken finalizes a linking session and returns the sanitized
// bank snapshot.
func (a *API) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateWallet(req.WalletAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PublicToken == "" {
		writeError(w, http.StatusBadRequest, "publicToken is required")
		return
	}

	snapshot, err := a.links.CompleteLink(r.Context(), req.WalletAddress, req.PublicToken)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ExchangesTotal.WithLabelValues("error").Inc()
		}
		a.logger.Error("exchange token failed", "wallet", req.WalletAddress, "error", err)
		writeJSON(w, statusFor(err), map[string]interface{}{
			"success": false,
			"error":   messageFor(err),
		})
		return
	}

	if a.metrics != nil {
		a.metrics.ExchangesTotal.WithLabelValues("success").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"bankAccount": snapshot,
	})
}

// AccountInfo returns the linked account snapshot with a live balance
// refresh. A wallet with no link is a 404, not a server error.
func (a *API) AccountInfo(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateWallet(req.WalletAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := a.links.GetLinkedAccount(r.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"error":   "no bank account linked for this wallet",
			})
			return
		}
		a.logger.Error("account info failed", "wallet", req.WalletAddress, "error", err)
		writeError(w, statusFor(err), messageFor(err))
		return
	}

	if a.metrics != nil {
		a.metrics.BalanceRefreshes.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"bankAccount": snapshot,
	})
}

// RecordMint persists a mint event reported by the client. Unlike the
// secondary audit writes this write is the point of the call, so a
// storage failure is surfaced.
func (a *API) RecordMint(w http.ResponseWriter, r *http.Request) {
	var req recordMintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateWallet(req.WalletAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := solana.ParsePublicKey(req.TokenAddress); err != nil {
		writeError(w, http.StatusBadRequest, "tokenAddress is not a valid address")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}

	link, err := a.banks.GetByWallet(r.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "no bank account linked for this wallet")
			return
		}
		a.logger.Error("record mint: load bank link failed", "wallet", req.WalletAddress, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	nowMs := a.now().UnixMilli()
	record := &domain.MintRecord{
		ID:            uuid.NewString(),
		WalletAddress: req.WalletAddress,
		BankLinkID:    link.ID,
		TokenMint:     req.TokenAddress,
		Amount:        req.Amount,
		Status:        domain.MintStatusCompleted,
		TxSignature:   req.TransactionID,
		CreatedAt:     nowMs,
		CompletedAt:   &nowMs,
	}
	if err := a.records.Insert(r.Context(), record); err != nil {
		a.logger.Error("record mint: insert failed", "wallet", req.WalletAddress, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record mint")
		return
	}

	if a.metrics != nil {
		a.metrics.MintsTotal.WithLabelValues("completed").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// MintHistory lists the wallet's mint records, newest first.
func (a *API) MintHistory(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateWallet(req.WalletAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.records.ListByWallet(r.Context(), req.WalletAddress)
	if err != nil {
		a.logger.Error("mint history failed", "wallet", req.WalletAddress, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	history := make([]historyItem, 0, len(records))
	for _, rec := range records {
		history = append(history, historyItem{
			ID:            rec.ID,
			WalletAddress: rec.WalletAddress,
			TokenAddress:  rec.TokenMint,
			Amount:        rec.Amount,
			Status:        string(rec.Status),
			TransactionID: rec.TxSignature,
			CreatedAt:     rec.CreatedAt,
			CompletedAt:   rec.CompletedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": history,
	})
}

type tokenItem struct {
	MintAddress string `json:"mintAddress"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	CreatedAt   int64  `json:"createdAt"`
}

// ListTokens lists the tokens the wallet has created, newest first.
func (a *API) ListTokens(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateWallet(req.WalletAddress); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.tokens.ListByCreator(r.Context(), req.WalletAddress)
	if err != nil {
		a.logger.Error("list tokens failed", "wallet", req.WalletAddress, "error", err)
		if a.metrics != nil {
			a.metrics.DBQueryErrors.WithLabelValues("tokens").Inc()
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]tokenItem, 0, len(created))
	for _, tok := range created {
		items = append(items, tokenItem{
			MintAddress: tok.MintAddress,
			Name:        tok.Name,
			Symbol:      tok.Symbol,
			Decimals:    tok.Decimals,
			CreatedAt:   tok.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tokens":  items,
	})
}

// failAggregator writes the error shape for linking failures, keeping
// configuration problems distinguishable from generic upstream ones.
func (a *API) failAggregator(w http.ResponseWriter, op, wallet string, err error) {
	kind := apperr.KindOf(err)
	if a.metrics != nil {
		a.metrics.AggregatorErrors.WithLabelValues(kind.String()).Inc()
	}
	a.logger.Error(op+" failed", "wallet", wallet, "kind", kind.String(), "error", err)
	writeError(w, statusFor(err), messageFor(err))
}
