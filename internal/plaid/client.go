// Package plaid is a minimal client for the Plaid banking-data API
// covering the link flow: link token creation, public token exchange,
// balance retrieval, and institution lookup.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Environment base URLs.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

var envHosts = map[string]string{
	EnvSandbox:    "https://sandbox.plaid.com",
	EnvProduction: "https://production.plaid.com",
}

// Config holds aggregator credentials and environment selection.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox | production
	ClientName  string // shown in the Link UI

	// BaseURL overrides the environment host. Tests point this at a local
	// server.
	BaseURL string
}

// Validate checks that credentials are present and the environment is
// known. Called at construction so a misconfigured deployment fails
// before the first user hits it.
func (c Config) Validate() error {
	if c.ClientID == "" || c.Secret == "" {
		return ErrMissingCredentials
	}
	if c.BaseURL == "" {
		if _, ok := envHosts[c.Environment]; !ok {
			return fmt.Errorf("%w: unknown environment %q", ErrMissingCredentials, c.Environment)
		}
	}
	return nil
}

func (c Config) host() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return envHosts[c.Environment]
}

// Client speaks to the aggregator over HTTP+JSON. Credentials travel in
// every request body per Plaid convention.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a client, validating credentials up front.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ClientName == "" {
		config.ClientName = "stablemint"
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// CreateLinkToken requests a short-lived link token scoped to one linking
// session for the given user.
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	req := map[string]interface{}{
		"client_id":     c.config.ClientID,
		"secret":        c.config.Secret,
		"client_name":   c.config.ClientName,
		"user":          map[string]string{"client_user_id": clientUserID},
		"products":      []string{"auth"},
		"country_codes": []string{"US"},
		"language":      "en",
	}

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", req, &resp); err != nil {
		return "", err
	}
	if resp.LinkToken == "" {
		return "", fmt.Errorf("empty link_token in response")
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken exchanges the public token produced by the Link UI
// for a durable access token and its item ID.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error) {
	req := map[string]interface{}{
		"client_id":    c.config.ClientID,
		"secret":       c.config.Secret,
		"public_token": publicToken,
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return "", "", err
	}
	if resp.AccessToken == "" {
		return "", "", fmt.Errorf("empty access_token in response")
	}
	return resp.AccessToken, resp.ItemID, nil
}

// GetBalances retrieves live balances for all accounts under the access
// token, plus the owning institution ID.
func (c *Client) GetBalances(ctx context.Context, accessToken string) (*BalancesResult, error) {
	req := map[string]interface{}{
		"client_id":    c.config.ClientID,
		"secret":       c.config.Secret,
		"access_token": accessToken,
	}

	var resp struct {
		Accounts []Account `json:"accounts"`
		Item     struct {
			InstitutionID string `json:"institution_id"`
		} `json:"item"`
	}
	if err := c.post(ctx, "/accounts/balance/get", req, &resp); err != nil {
		return nil, err
	}

	return &BalancesResult{
		Accounts:      resp.Accounts,
		InstitutionID: resp.Item.InstitutionID,
	}, nil
}

// GetInstitutionName looks up an institution's display name.
func (c *Client) GetInstitutionName(ctx context.Context, institutionID string) (string, error) {
	req := map[string]interface{}{
		"client_id":      c.config.ClientID,
		"secret":         c.config.Secret,
		"institution_id": institutionID,
		"country_codes":  []string{"US"},
	}

	var resp struct {
		Institution struct {
			Name string `json:"name"`
		} `json:"institution"`
	}
	if err := c.post(ctx, "/institutions/get_by_id", req, &resp); err != nil {
		return "", err
	}
	return resp.Institution.Name, nil
}

// post sends one API request and decodes the response, mapping non-2xx
// bodies to APIError.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.host()+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.ErrorType != "" {
			apiErr.StatusCode = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
