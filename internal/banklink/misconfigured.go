package banklink

import (
	"context"

	"stablemint/internal/plaid"
)

// MisconfiguredAggregator stands in when aggregator credentials are
// absent or rejected at startup. Every call fails with the construction
// error so requests surface a configuration failure instead of the
// server refusing to boot.
type MisconfiguredAggregator struct {
	err error
}

// NewMisconfiguredAggregator wraps the construction error. A nil err is
// replaced with plaid.ErrMissingCredentials.
func NewMisconfiguredAggregator(err error) *MisconfiguredAggregator {
	if err == nil {
		err = plaid.ErrMissingCredentials
	}
	return &MisconfiguredAggregator{err: err}
}

var _ Aggregator = (*MisconfiguredAggregator)(nil)

func (m *MisconfiguredAggregator) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	return "", m.err
}

func (m *MisconfiguredAggregator) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	return "", "", m.err
}

func (m *MisconfiguredAggregator) GetBalances(ctx context.Context, accessToken string) (*plaid.BalancesResult, error) {
	return nil, m.err
}

func (m *MisconfiguredAggregator) GetInstitutionName(ctx context.Context, institutionID string) (string, error) {
	return "", m.err
}
