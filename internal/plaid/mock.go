package plaid

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// MockClient is a mock implementation of SecurityFetcher for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	GetSecuritiesFn func(ctx context.Context) ([]model.Security, error)

	// Call tracking
	GetSecuritiesCalls int
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// GetSecurities implements SecurityFetcher.GetSecurities.
func (m *MockClient) GetSecurities(ctx context.Context) ([]model.Security, error) {
	m.GetSecuritiesCalls++

	if m.GetSecuritiesFn != nil {
		return m.GetSecuritiesFn(ctx)
	}

	return []model.Security{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.GetSecuritiesCalls = 0
}

// Ensure MockClient implements SecurityFetcher interface.
var _ SecurityFetcher = (*MockClient)(nil)
