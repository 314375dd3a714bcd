// Package banklink drives the bank account linking flow: it requests link
// handles from the aggregator, exchanges public tokens for durable
// credentials, and keeps the per-wallet BankLink row fresh.
package banklink

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stablemint/internal/apperr"
	"stablemint/internal/domain"
	"stablemint/internal/plaid"
	"stablemint/internal/storage"
)

// Aggregator is the slice of the banking-data API the service needs.
// *plaid.Client satisfies it.
type Aggregator interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
	GetBalances(ctx context.Context, accessToken string) (*plaid.BalancesResult, error)
	GetInstitutionName(ctx context.Context, institutionID string) (string, error)
}

// Options tunes service behavior.
type Options struct {
	// DegradedSandbox substitutes FallbackBalance for balance figures the
	// upstream omits. Sandbox institutions return null balances often
	// enough that the flow is unusable without it; production deployments
	// leave this off so missing numbers fail loudly.
	DegradedSandbox bool
	FallbackBalance float64
}

// DefaultSandboxOptions enables degraded mode with the conventional
// sandbox balance.
func DefaultSandboxOptions() Options {
	return Options{DegradedSandbox: true, FallbackBalance: 1000}
}

// Service implements the bank link client over an aggregator and stores.
type Service struct {
	aggregator Aggregator
	links      storage.BankLinkStore
	users      storage.UserStore
	audit      storage.AuditEventStore // nil disables the audit trail
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates the service. audit may be nil.
func NewService(aggregator Aggregator, links storage.BankLinkStore, users storage.UserStore, audit storage.AuditEventStore, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		aggregator: aggregator,
		links:      links,
		users:      users,
		audit:      audit,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// RequestLinkHandle obtains a short-lived link token scoped to one linking
// session for the wallet.
func (s *Service) RequestLinkHandle(ctx context.Context, walletAddress string) (string, error) {
	if _, err := s.users.Ensure(ctx, walletAddress); err != nil {
		// The user row is bookkeeping; linking proceeds without it.
		s.logger.Warn("ensure user failed", "wallet", walletAddress, "error", err)
	}

	token, err := s.aggregator.CreateLinkToken(ctx, walletAddress)
	if err != nil {
		return "", classifyAggregatorError("create link token", err)
	}
	return token, nil
}

// CompleteLink exchanges the public token for durable credentials, selects
// the funding account, persists the BankLink (upsert by wallet), and
// returns the sanitized snapshot.
func (s *Service) CompleteLink(ctx context.Context, walletAddress, publicToken string) (*domain.BankSnapshot, error) {
	accessToken, itemID, err := s.aggregator.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, classifyAggregatorError("exchange public token", err)
	}

	balances, err := s.aggregator.GetBalances(ctx, accessToken)
	if err != nil {
		return nil, classifyAggregatorError("get balances", err)
	}

	account := plaid.SelectFundingAccount(balances.Accounts)
	if account == nil {
		return nil, apperr.Upstream("linked item has no accounts", nil)
	}

	institutionName := ""
	if balances.InstitutionID != "" {
		institutionName, err = s.aggregator.GetInstitutionName(ctx, balances.InstitutionID)
		if err != nil {
			// Display metadata only; the link is still usable.
			s.logger.Warn("institution lookup failed", "institution", balances.InstitutionID, "error", err)
		}
	}

	current, err := s.coerceBalance(account.Balances.Current)
	if err != nil {
		return nil, err
	}
	available, err := s.coerceBalance(account.Balances.Available)
	if err != nil {
		return nil, err
	}

	nowMs := s.now().UnixMilli()
	link := &domain.BankLink{
		WalletAddress:    walletAddress,
		AccessToken:      accessToken,
		ItemID:           itemID,
		InstitutionID:    balances.InstitutionID,
		InstitutionName:  institutionName,
		AccountID:        account.AccountID,
		AccountName:      account.Name,
		AccountMask:      account.Mask,
		CurrentBalance:   current,
		AvailableBalance: available,
		LastRefreshedAt:  nowMs,
		CreatedAt:        nowMs,
	}

	if err := s.links.Upsert(ctx, link); err != nil {
		return nil, apperr.Persistence("store bank link", err)
	}

	s.recordAudit(ctx, walletAddress, domain.AuditLinkCreated, itemID, 0)

	snapshot := link.Snapshot()
	return &snapshot, nil
}

// GetLinkedAccount returns the stored snapshot after refreshing the
// balance live from the aggregator. Returns storage.ErrNotFound when no
// link exists for the wallet; that is a signal, not a failure.
func (s *Service) GetLinkedAccount(ctx context.Context, walletAddress string) (*domain.BankSnapshot, error) {
	link, err := s.links.GetByWallet(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, apperr.Persistence("load bank link", err)
	}

	balances, err := s.aggregator.GetBalances(ctx, link.AccessToken)
	if err != nil {
		return nil, classifyAggregatorError("refresh balances", err)
	}

	account := findAccount(balances.Accounts, link.AccountID)
	if account == nil {
		// The linked account disappeared upstream; serve the stored
		// snapshot rather than failing the read.
		s.logger.Warn("linked account missing upstream", "wallet", walletAddress, "account", link.AccountID)
		snapshot := link.Snapshot()
		return &snapshot, nil
	}

	current, err := s.coerceBalance(account.Balances.Current)
	if err != nil {
		return nil, err
	}
	available, err := s.coerceBalance(account.Balances.Available)
	if err != nil {
		return nil, err
	}

	nowMs := s.now().UnixMilli()
	// Best effort: a failed refresh write must not block returning the
	// live balance.
	if err := s.links.UpdateBalances(ctx, walletAddress, current, available, nowMs); err != nil {
		s.logger.Warn("persist balance refresh failed", "wallet", walletAddress, "error", err)
	} else {
		s.recordAudit(ctx, walletAddress, domain.AuditLinkRefreshed, link.ItemID, 0)
	}

	link.CurrentBalance = current
	link.AvailableBalance = available
	snapshot := link.Snapshot()
	return &snapshot, nil
}

// coerceBalance applies the degraded sandbox fallback for missing upstream
// numbers, or fails loudly when the mode is off.
func (s *Service) coerceBalance(v *float64) (float64, error) {
	if v != nil {
		return *v, nil
	}
	if s.opts.DegradedSandbox {
		return s.opts.FallbackBalance, nil
	}
	return 0, apperr.Upstream("aggregator omitted a balance figure", nil)
}

func (s *Service) recordAudit(ctx context.Context, wallet string, kind domain.AuditEventKind, ref string, amount float64) {
	if s.audit == nil {
		return
	}
	e := &domain.AuditEvent{
		WalletAddress: wallet,
		Kind:          kind,
		Reference:     ref,
		Amount:        amount,
		Timestamp:     s.now().UnixMilli(),
	}
	if err := s.audit.Insert(ctx, e); err != nil {
		s.logger.Warn("audit write failed", "wallet", wallet, "kind", kind, "error", err)
	}
}

func findAccount(accounts []plaid.Account, accountID string) *plaid.Account {
	for i := range accounts {
		if accounts[i].AccountID == accountID {
			return &accounts[i]
		}
	}
	return nil
}

// classifyAggregatorError maps aggregator failures into the taxonomy:
// rejected API keys are a configuration problem, everything else is
// upstream.
func classifyAggregatorError(op string, err error) error {
	if errors.Is(err, plaid.ErrMissingCredentials) {
		return apperr.Configuration(op, err)
	}
	var apiErr *plaid.APIError
	if errors.As(err, &apiErr) && apiErr.IsCredentialError() {
		return apperr.Configuration(op, err)
	}
	return apperr.Upstream(op, err)
}
