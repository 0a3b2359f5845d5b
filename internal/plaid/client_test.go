package plaid

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		config  Config
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
		},
		{
			name: "missing client ID",
			config: Config{
				Secret:      "test-secret",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "plaid client ID is required",
		},
		{
			name: "missing secret",
			config: Config{
				ClientID:    "test-client-id",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "plaid secret is required",
		},
		{
			name: "missing access token",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "sandbox",
			},
			wantErr: true,
			errMsg:  "plaid access token is required",
		},
		{
			name: "missing environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "plaid environment is required",
		},
		{
			name: "invalid environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "development",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "invalid Plaid environment",
		},
		{
			name: "valid production environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "production",
				AccessToken: "test-token",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		config  *Config
		name    string
		wantErr bool
	}{
		{
			name: "valid config creates client",
			config: &Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
		},
		{
			name: "invalid config returns error",
			config: &Config{
				ClientID: "test-client-id",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				require.NotNil(t, client)
				assert.NotNil(t, client.client)
				assert.Equal(t, tt.config.AccessToken, client.accessToken)
				assert.NotNil(t, client.logger)
				assert.Equal(t, common.DefaultRetryOptions(), client.retryOpts)
			}
		})
	}
}

func TestClient_GetSecurities_NilContext(t *testing.T) {
	client := &Client{
		accessToken: "test-token",
		logger:      slog.Default().With("component", "plaid-test"),
	}

	//nolint:staticcheck // nil context is what is being tested
	_, err := client.GetSecurities(nil)
	assert.ErrorContains(t, err, "context cannot be nil")
}

func TestMapPlaidSecurity(t *testing.T) {
	var ps plaid.Security
	ps.SetName(" Apple Inc. ")
	ps.SetTickerSymbol("aapl")
	ps.SetIsin("us0378331005")
	ps.SetIsoCurrencyCode("USD")

	sec := mapPlaidSecurity(ps)
	assert.Equal(t, model.Security{
		Name:     "Apple Inc.",
		Ticker:   "AAPL",
		ISIN:     "US0378331005",
		Currency: "USD",
	}, sec)
}

func TestClassifyErrorWithoutPlaidDetails(t *testing.T) {
	err := classifyError(slog.Default(), errors.New("connection reset"), "failed to fetch holdings")
	assert.ErrorContains(t, err, "failed to fetch holdings: connection reset")
	assert.False(t, common.IsRetryable(err))
}

func TestSourceFetchesOnce(t *testing.T) {
	mock := NewMockClient()
	mock.GetSecuritiesFn = func(context.Context) ([]model.Security, error) {
		return []model.Security{
			{Name: "Apple Inc.", Ticker: "AAPL", ISIN: "US0378331005"},
			{Name: "Vanguard Total Stock Market ETF", Ticker: "VTI"},
		}, nil
	}
	src := NewSource(mock)

	found, ok, err := src.Lookup(context.Background(), model.Security{ISIN: "US0378331005"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AAPL", found.Ticker)

	found, ok, err = src.Lookup(context.Background(), model.Security{Ticker: "vti"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Vanguard Total Stock Market ETF", found.Name)

	_, ok, err = src.Lookup(context.Background(), model.Security{Name: "Unknown"})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, mock.GetSecuritiesCalls)
}

func TestSourceFetchFailure(t *testing.T) {
	mock := NewMockClient()
	mock.GetSecuritiesFn = func(context.Context) ([]model.Security, error) {
		return nil, common.ErrSourceUnavailable
	}
	src := NewSource(mock)

	_, _, err := src.Lookup(context.Background(), model.Security{Ticker: "AAPL"})
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)

	_, _, err = src.Lookup(context.Background(), model.Security{Ticker: "AAPL"})
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)
	assert.Equal(t, 1, mock.GetSecuritiesCalls)
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()

	securities, err := mock.GetSecurities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, securities)
	assert.Equal(t, 1, mock.GetSecuritiesCalls)

	mock.Reset()
	assert.Equal(t, 0, mock.GetSecuritiesCalls)
}
