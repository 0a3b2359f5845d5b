// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	AccountID  string
	SecurityID string
	Limit      int
	Offset     int
}

// Storage defines the contract for the ledger persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	HasTransactionHash(ctx context.Context, hash string) (bool, error)

	// Security operations
	EnsureSecurity(ctx context.Context, security *model.Security) (string, error)
	GetSecurity(ctx context.Context, id string) (*model.Security, error)
	GetSecurities(ctx context.Context) ([]model.Security, error)
	UpdateSecurity(ctx context.Context, security *model.Security) error

	// Aggregates used by the consistency checks
	GetHoldings(ctx context.Context) ([]model.Holding, error)
	GetAccountBalances(ctx context.Context) ([]model.AccountBalance, error)
	GetOrphanedTransactions(ctx context.Context) ([]model.Transaction, error)

	// Ledger state
	MarkDirty(ctx context.Context) error
	IsDirty(ctx context.Context) (bool, error)
	MarkChecked(ctx context.Context, at time.Time) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
