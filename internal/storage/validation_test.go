package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestValidateContext(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, validateContext(context.Background()))
	assert.NoError(t, validateContext(canceled), "canceled context is still a context")
	//nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "string with spaces", str: "  test  "},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), "param")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := func() *model.Transaction {
		return &model.Transaction{
			Hash:       "h1",
			Date:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Type:       model.ItemBuy,
			SecurityID: "sec-1",
			Shares:     decimal.NewFromInt(5),
			Amount:     decimal.NewFromInt(500),
		}
	}

	tests := []struct {
		modify  func(*model.Transaction)
		name    string
		wantErr bool
	}{
		{name: "valid buy", modify: func(*model.Transaction) {}},
		{name: "cash booking without security", modify: func(txn *model.Transaction) {
			txn.Type = model.ItemDeposit
			txn.SecurityID = ""
			txn.Shares = decimal.Zero
		}},
		{name: "missing hash", modify: func(txn *model.Transaction) { txn.Hash = "" }, wantErr: true},
		{name: "missing date", modify: func(txn *model.Transaction) { txn.Date = time.Time{} }, wantErr: true},
		{name: "unknown type", modify: func(txn *model.Transaction) { txn.Type = "TRANSFER" }, wantErr: true},
		{name: "security item", modify: func(txn *model.Transaction) { txn.Type = model.ItemSecurity }, wantErr: true},
		{name: "portfolio booking without security", modify: func(txn *model.Transaction) { txn.SecurityID = "" }, wantErr: true},
		{name: "negative amount", modify: func(txn *model.Transaction) { txn.Amount = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "negative fees", modify: func(txn *model.Transaction) { txn.Fees = decimal.NewFromInt(-1) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid()
			tt.modify(txn)
			err := validateTransaction(txn)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransaction)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.ErrorIs(t, validateTransaction(nil), ErrNilParameter)
}

func TestValidateSecurity(t *testing.T) {
	assert.NoError(t, validateSecurity(&model.Security{ISIN: "US0378331005"}))
	assert.NoError(t, validateSecurity(&model.Security{Ticker: "AAPL"}))
	assert.ErrorIs(t, validateSecurity(&model.Security{Currency: "USD"}), ErrInvalidSecurity)
	assert.ErrorIs(t, validateSecurity(&model.Security{Name: "  "}), ErrInvalidSecurity)
	assert.ErrorIs(t, validateSecurity(nil), ErrNilParameter)
}
