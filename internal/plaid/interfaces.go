package plaid

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// SecurityFetcher defines the contract for fetching security master data.
// This interface allows for easy mocking in tests and swapping data sources.
type SecurityFetcher interface {
	GetSecurities(ctx context.Context) ([]model.Security, error)
}
