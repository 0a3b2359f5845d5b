package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const securityColumns = `id, name, ticker, isin, currency, name_state, ticker_state, isin_state`

// EnsureSecurity returns the id of the stored security matching the given one,
// creating it when no match exists. Matching is by ISIN, then ticker, then name.
func (s *SQLiteStorage) EnsureSecurity(ctx context.Context, security *model.Security) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateSecurity(security); err != nil {
		return "", err
	}

	key := security.Key()
	if id, ok := s.cachedSecurityID(key); ok {
		security.ID = id
		return id, nil
	}

	existing, err := s.findSecurity(ctx, security)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return "", err
	}
	if existing != nil {
		s.cacheSecurityID(key, existing.ID)
		security.ID = existing.ID
		return existing.ID, nil
	}

	if security.ID == "" {
		security.ID = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO securities (`+securityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		security.ID,
		strings.TrimSpace(security.Name),
		strings.ToUpper(strings.TrimSpace(security.Ticker)),
		strings.ToUpper(strings.TrimSpace(security.ISIN)),
		security.Currency,
		string(security.State(model.PropertyName)),
		string(security.State(model.PropertyTicker)),
		string(security.State(model.PropertyISIN)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create security: %w", err)
	}

	s.cacheSecurityID(key, security.ID)
	return security.ID, nil
}

func (s *SQLiteStorage) findSecurity(ctx context.Context, security *model.Security) (*model.Security, error) {
	lookups := []struct {
		column string
		value  string
	}{
		{"isin", strings.ToUpper(strings.TrimSpace(security.ISIN))},
		{"ticker", strings.ToUpper(strings.TrimSpace(security.Ticker))},
		{"name", strings.TrimSpace(security.Name)},
	}

	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		row := s.db.QueryRowContext(ctx,
			"SELECT "+securityColumns+" FROM securities WHERE "+l.column+" = ? COLLATE NOCASE ORDER BY created_at LIMIT 1",
			l.value)
		found, err := scanSecurity(row)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return found, nil
	}

	return nil, common.ErrNotFound
}

// GetSecurity retrieves a security by id.
func (s *SQLiteStorage) GetSecurity(ctx context.Context, id string) (*model.Security, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+securityColumns+" FROM securities WHERE id = ?", id)
	return scanSecurity(row)
}

// GetSecurities retrieves all securities ordered by name.
func (s *SQLiteStorage) GetSecurities(ctx context.Context) ([]model.Security, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+securityColumns+" FROM securities ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var securities []model.Security
	for rows.Next() {
		sec, err := scanSecurity(rows)
		if err != nil {
			return nil, err
		}
		securities = append(securities, *sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating securities: %w", err)
	}
	return securities, nil
}

// UpdateSecurity stores the values and online states of a security.
func (s *SQLiteStorage) UpdateSecurity(ctx context.Context, security *model.Security) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSecurity(security); err != nil {
		return err
	}
	if err := validateString(security.ID, "security.ID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE securities
		SET name = ?, ticker = ?, isin = ?, currency = ?,
			name_state = ?, ticker_state = ?, isin_state = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		security.Name,
		security.Ticker,
		security.ISIN,
		security.Currency,
		string(security.State(model.PropertyName)),
		string(security.State(model.PropertyTicker)),
		string(security.State(model.PropertyISIN)),
		security.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update security: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: security %s", common.ErrNotFound, security.ID)
	}

	// keys may have changed
	s.resetSecurityCache()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecurity(row rowScanner) (*model.Security, error) {
	var (
		sec                                model.Security
		nameState, tickerState, isinState string
	)
	err := row.Scan(&sec.ID, &sec.Name, &sec.Ticker, &sec.ISIN, &sec.Currency, &nameState, &tickerState, &isinState)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan security: %w", err)
	}

	sec.SetState(model.PropertyName, model.ParseOnlineState(nameState))
	sec.SetState(model.PropertyTicker, model.ParseOnlineState(tickerState))
	sec.SetState(model.PropertyISIN, model.ParseOnlineState(isinState))
	return &sec, nil
}
