package plaid

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials indicates absent or malformed aggregator
// credentials; surfaced as a configuration failure, never retried.
var ErrMissingCredentials = errors.New("plaid credentials missing or invalid")

// Account is one account under a linked item. Balances may be nil in
// sandbox responses.
type Account struct {
	AccountID string   `json:"account_id"`
	Name      string   `json:"name"`
	Mask      string   `json:"mask"`
	Type      string   `json:"type"`    // depository, credit, loan, ...
	Subtype   string   `json:"subtype"` // checking, savings, ...
	Balances  Balances `json:"balances"`
}

// Balances holds the aggregator's balance estimates.
type Balances struct {
	Available *float64 `json:"available"`
	Current   *float64 `json:"current"`
}

// BalancesResult is the outcome of a balance retrieval.
type BalancesResult struct {
	Accounts      []Account
	InstitutionID string
}

// APIError is a structured aggregator error response.
type APIError struct {
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	StatusCode     int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid %s/%s: %s", e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// IsCredentialError reports whether the upstream rejected our API keys,
// which is a deployment configuration problem rather than a transient
// failure.
func (e *APIError) IsCredentialError() bool {
	return e.ErrorType == "INVALID_INPUT" && e.ErrorCode == "INVALID_API_KEYS"
}

// SelectFundingAccount picks the account whose balance bounds the token
// supply: the first depository account with subtype checking or savings,
// falling back to the first account of any type. Returns nil when the
// item has no accounts.
func SelectFundingAccount(accounts []Account) *Account {
	for i := range accounts {
		a := &accounts[i]
		if a.Type == "depository" && (a.Subtype == "checking" || a.Subtype == "savings") {
			return a
		}
	}
	if len(accounts) > 0 {
		return &accounts[0]
	}
	return nil
}
