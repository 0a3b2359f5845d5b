package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

const transactionColumns = `id, hash, date, type, account_id, security_id, shares, amount, fees,
	currency, note, source, document, created_at`

// SaveTransaction stores a single ledger booking.
// A booking whose hash already exists returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	var securityID sql.NullString
	if txn.SecurityID != "" {
		securityID = sql.NullString{String: txn.SecurityID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, hash, date, type, account_id, security_id, shares, amount, fees,
			currency, note, source, document
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.Hash,
		txn.Date,
		string(txn.Type),
		txn.AccountID,
		securityID,
		txn.Shares.String(),
		txn.Amount.String(),
		txn.Fees.String(),
		txn.Currency,
		txn.Note,
		txn.Source,
		txn.Document,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.Hash)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// HasTransactionHash reports whether a booking with the given hash exists.
func (s *SQLiteStorage) HasTransactionHash(ctx context.Context, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE hash = ?)`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up transaction hash: %w", err)
	}
	return exists, nil
}

// GetTransactions retrieves bookings matching the filter ordered by date.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}

	var (
		where []string
		args  []any
	)
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.SecurityID != "" {
		where = append(where, "security_id = ?")
		args = append(args, filter.SecurityID)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetOrphanedTransactions returns portfolio bookings whose security no longer exists.
func (s *SQLiteStorage) GetOrphanedTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions t
		WHERE t.type IN ('BUY', 'SELL', 'DELIVERY_INBOUND', 'DELIVERY_OUTBOUND')
		AND (t.security_id IS NULL OR NOT EXISTS (SELECT 1 FROM securities s WHERE s.id = t.security_id))
		ORDER BY t.date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn        model.Transaction
			txnType    string
			securityID sql.NullString
		)
		if err := rows.Scan(
			&txn.ID,
			&txn.Hash,
			&txn.Date,
			&txnType,
			&txn.AccountID,
			&securityID,
			&txn.Shares,
			&txn.Amount,
			&txn.Fees,
			&txn.Currency,
			&txn.Note,
			&txn.Source,
			&txn.Document,
			&txn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = model.ItemType(txnType)
		txn.SecurityID = securityID.String
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
