package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// MarkDirty flags the ledger as changed since the last consistency check.
func (s *SQLiteStorage) MarkDirty(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setMeta(ctx, "dirty", "true")
}

// IsDirty reports whether the ledger changed since the last consistency check.
func (s *SQLiteStorage) IsDirty(ctx context.Context) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ledger_meta WHERE key = 'dirty'`).Scan(&value)
	if err != nil {
		return false, fmt.Errorf("failed to read dirty flag: %w", err)
	}
	return value == "true", nil
}

// MarkChecked clears the dirty flag and records when the ledger was checked.
func (s *SQLiteStorage) MarkChecked(ctx context.Context, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.setMeta(ctx, "dirty", "false"); err != nil {
		return err
	}
	return s.setMeta(ctx, "checked_at", at.UTC().Format(time.RFC3339))
}

func (s *SQLiteStorage) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// GetHoldings aggregates the share position of every security that has bookings.
func (s *SQLiteStorage) GetHoldings(ctx context.Context) ([]model.Holding, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.security_id, COALESCE(s.name, ''), t.type, t.shares
		FROM transactions t
		LEFT JOIN securities s ON s.id = t.security_id
		WHERE t.security_id IS NOT NULL
		ORDER BY t.date, t.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	positions := make(map[string]*model.Holding)
	for rows.Next() {
		var (
			securityID, name, txnType string
			shares                    decimal.Decimal
		)
		if err := rows.Scan(&securityID, &name, &txnType, &shares); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		h, ok := positions[securityID]
		if !ok {
			h = &model.Holding{SecurityID: securityID, Name: name}
			positions[securityID] = h
		}
		switch model.ItemType(txnType) {
		case model.ItemBuy, model.ItemDeliveryInbound:
			h.Shares = h.Shares.Add(shares)
		case model.ItemSell, model.ItemDeliveryOutbound:
			h.Shares = h.Shares.Sub(shares)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	holdings := make([]model.Holding, 0, len(positions))
	for _, h := range positions {
		holdings = append(holdings, *h)
	}
	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].Name != holdings[j].Name {
			return holdings[i].Name < holdings[j].Name
		}
		return holdings[i].SecurityID < holdings[j].SecurityID
	})
	return holdings, nil
}

// GetAccountBalances aggregates the cash position of every account.
func (s *SQLiteStorage) GetAccountBalances(ctx context.Context) ([]model.AccountBalance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, currency, type, amount, fees
		FROM transactions
		WHERE account_id != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type accountKey struct{ account, currency string }
	balances := make(map[accountKey]decimal.Decimal)
	for rows.Next() {
		var (
			accountID, currency, txnType string
			amount, fees                 decimal.Decimal
		)
		if err := rows.Scan(&accountID, &currency, &txnType, &amount, &fees); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		key := accountKey{accountID, currency}
		balances[key] = balances[key].Add(CashEffect(model.ItemType(txnType), amount, fees))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}

	result := make([]model.AccountBalance, 0, len(balances))
	for key, balance := range balances {
		result = append(result, model.AccountBalance{AccountID: key.account, Currency: key.currency, Balance: balance})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AccountID != result[j].AccountID {
			return result[i].AccountID < result[j].AccountID
		}
		return result[i].Currency < result[j].Currency
	})
	return result, nil
}

// CashEffect returns the signed effect of a booking on its account balance.
func CashEffect(t model.ItemType, amount, fees decimal.Decimal) decimal.Decimal {
	switch t {
	case model.ItemDeposit, model.ItemInterest, model.ItemDividend:
		return amount.Sub(fees)
	case model.ItemSell:
		return amount.Sub(fees)
	case model.ItemRemoval, model.ItemFees:
		return amount.Add(fees).Neg()
	case model.ItemBuy:
		return amount.Add(fees).Neg()
	default:
		return decimal.Zero
	}
}
