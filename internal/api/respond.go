package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"stablemint/internal/apperr"
	"stablemint/internal/solana"
)

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// validateWallet enforces the address contract: 32-44 characters that
// base58-decode to a 32 byte public key.
func validateWallet(address string) error {
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("walletAddress must be 32-44 characters")
	}
	if _, err := solana.ParsePublicKey(address); err != nil {
		return fmt.Errorf("walletAddress is not a valid address")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps the error taxonomy to the closed HTTP surface. Only
// validation failures are the caller's fault; everything else is a 500.
func statusFor(err error) int {
	if apperr.KindOf(err) == apperr.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// messageFor renders a user-facing message per kind. Configuration
// failures name themselves so operators can tell them apart from
// transient upstream trouble.
func messageFor(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindConfiguration:
		return "service misconfigured: banking credentials missing or rejected"
	case apperr.KindValidation:
		var e *apperr.Error
		if errors.As(err, &e) {
			return e.Message
		}
		return "invalid request"
	case apperr.KindMintFailed:
		return "mint transaction failed; no funds moved"
	case apperr.KindPersistence:
		return "storage temporarily unavailable"
	default:
		return "upstream service error; if testing against the sandbox, use sandbox credentials"
	}
}
