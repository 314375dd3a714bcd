package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stablemint/internal/domain"
	"stablemint/internal/minting"
	"stablemint/internal/wallet"
)

// Minter executes the mint flow. *minting.Pipeline satisfies it.
type Minter interface {
	Mint(ctx context.Context, signer wallet.Signer, params domain.TokenParams) (*minting.Result, error)
}

// MintAPI serves the custodial mint endpoint, available when the server
// holds a signing key. Deployments without one leave it unmounted and
// clients sign in their own wallet, reporting results via record-mint.
type MintAPI struct {
	minter Minter
	signer wallet.Signer
	logger *slog.Logger
}

func NewMintAPI(minter Minter, signer wallet.Signer, logger *slog.Logger) *MintAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &MintAPI{minter: minter, signer: signer, logger: logger}
}

// RegisterRoutes mounts the mint endpoint on the router.
func (m *MintAPI) RegisterRoutes(r chi.Router) {
	r.Post("/api/mint", m.Mint)
}

type mintRequest struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Description     string `json:"description"`
	Supply          string `json:"supply"`
	Decimals        uint8  `json:"decimals"`
	Authority       string `json:"authority"` // retain | transfer
	Recipient       string `json:"recipient"`
	FreezeAuthority bool   `json:"freezeAuthority"`
}

// Mint builds, signs, and submits the token creation transaction with the
// server's key.
func (m *MintAPI) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Supply == "" {
		writeError(w, http.StatusBadRequest, "supply is required")
		return
	}

	authority := domain.AuthorityRetain
	if req.Authority == string(domain.AuthorityTransfer) {
		authority = domain.AuthorityTransfer
	}

	params := domain.TokenParams{
		Name:            req.Name,
		Symbol:          req.Symbol,
		Description:     req.Description,
		Supply:          req.Supply,
		Decimals:        req.Decimals,
		Authority:       authority,
		Recipient:       req.Recipient,
		FreezeAuthority: req.FreezeAuthority,
	}

	result, err := m.minter.Mint(r.Context(), m.signer, params)
	if err != nil {
		m.logger.Error("mint failed", "wallet", m.signer.PublicKey(), "error", err)
		writeError(w, statusFor(err), messageFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"signature":    result.Signature,
		"mintAddress":  result.Mint.String(),
		"tokenAccount": result.TokenAccount.String(),
		"recordId":     result.RecordID,
	})
}
