// Package storage provides the SQLite ledger used by the importer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidSecurity    = errors.New("invalid security")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction validates a single ledger transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Hash == "" {
		return fmt.Errorf("%w: missing hash", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if _, err := model.ParseItemType(string(txn.Type)); err != nil || txn.Type == model.ItemSecurity {
		return fmt.Errorf("%w: type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Type.IsPortfolio() && txn.SecurityID == "" {
		return fmt.Errorf("%w: %s without security", ErrInvalidTransaction, txn.Type)
	}
	if txn.Amount.IsNegative() || txn.Shares.IsNegative() || txn.Fees.IsNegative() {
		return fmt.Errorf("%w: negative values are expressed by type", ErrInvalidTransaction)
	}
	return nil
}

// validateSecurity validates a security before it is stored.
func validateSecurity(security *model.Security) error {
	if security == nil {
		return fmt.Errorf("%w: security", ErrNilParameter)
	}
	if strings.TrimSpace(security.Name) == "" &&
		strings.TrimSpace(security.Ticker) == "" &&
		strings.TrimSpace(security.ISIN) == "" {
		return fmt.Errorf("%w: needs a name, ticker or ISIN", ErrInvalidSecurity)
	}
	return nil
}
