// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"environment"` // sandbox or production
	AccessToken string `mapstructure:"access_token"`
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("plaid client ID is required")
	}
	if c.Secret == "" {
		return errors.New("plaid secret is required")
	}
	if c.AccessToken == "" {
		return errors.New("plaid access token is required")
	}
	if c.Environment == "" {
		return errors.New("plaid environment is required")
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return errors.New("invalid Plaid environment: must be sandbox or production")
	}

	return nil
}

// Client fetches the securities of an investment item from Plaid.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   common.RetryOptions
	accessToken string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts:   common.DefaultRetryOptions(),
	}, nil
}

// GetSecurities fetches the securities held in the item's investment accounts.
func (c *Client) GetSecurities(ctx context.Context) ([]model.Security, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	c.logger.Info("Fetching investment holdings from Plaid")

	var securities []plaid.Security
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewInvestmentsHoldingsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.InvestmentsHoldingsGet(ctx).InvestmentsHoldingsGetRequest(*request).Execute()
		if err != nil {
			return classifyError(c.logger, err, "failed to fetch holdings")
		}

		securities = resp.GetSecurities()
		return nil
	}, c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Info("Fetched securities", "count", len(securities))

	result := make([]model.Security, 0, len(securities))
	for _, ps := range securities {
		sec := mapPlaidSecurity(ps)
		if sec.Name == "" && sec.Ticker == "" && sec.ISIN == "" {
			continue
		}
		result = append(result, sec)
	}

	return result, nil
}

// mapPlaidSecurity converts a Plaid security to our internal model.
func mapPlaidSecurity(ps plaid.Security) model.Security {
	return model.Security{
		Name:     strings.TrimSpace(ps.GetName()),
		Ticker:   strings.ToUpper(strings.TrimSpace(ps.GetTickerSymbol())),
		ISIN:     strings.ToUpper(strings.TrimSpace(ps.GetIsin())),
		Currency: ps.GetIsoCurrencyCode(),
	}
}

// classifyError turns a Plaid API failure into an error WithRetry understands.
func classifyError(logger *slog.Logger, err error, msg string) error {
	plaidError := extractPlaidError(err)
	if plaidError == nil {
		return fmt.Errorf("%s: %w", msg, err)
	}

	switch plaidError.ErrorCode {
	case "RATE_LIMIT_EXCEEDED":
		logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrSourceRateLimit, plaidError.ErrorMessage), Retryable: true}
	case "INTERNAL_SERVER_ERROR", "PLANNED_MAINTENANCE", "INSTITUTION_DOWN":
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrSourceUnavailable, plaidError.ErrorMessage), Retryable: true}
	}
	return fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements SecurityFetcher interface.
var _ SecurityFetcher = (*Client)(nil)
