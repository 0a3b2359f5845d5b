package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/review"
)

func entryFor(t *testing.T, it model.Item) *review.Entry {
	t.Helper()
	doc := model.NewDocument("/statements/broker.ofx")
	s := review.NewSession(&stubExtractor{name: "OFX", items: map[string][]model.Item{doc.Path: {it}}}, []model.Document{doc})
	require.NoError(t, s.Load(context.Background()))
	return s.Entries()[0]
}

func buyItem() model.Item {
	it := model.Item{
		Type:      model.ItemBuy,
		Date:      time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		AccountID: "BRK-001",
		Currency:  "USD",
		Security:  &model.Security{Name: "Apple Inc.", ISIN: "US0378331005"},
		Shares:    decimal.NewFromInt(10),
		Amount:    decimal.NewFromInt(1500),
		Fees:      decimal.RequireFromString("4.95"),
	}
	it.Hash = it.GenerateHash()
	return it
}

func TestInsertActionBooksTransaction(t *testing.T) {
	it := buyItem()
	entry := entryFor(t, it)

	ledger := &mockLedger{}
	ledger.On("EnsureSecurity", mock.Anything, it.Security).Return("sec-1", nil)
	ledger.On("SaveTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.Type == model.ItemBuy &&
			txn.SecurityID == "sec-1" &&
			txn.Hash == it.Hash &&
			txn.Source == "OFX" &&
			txn.Document == "/statements/broker.ofx" &&
			txn.Amount.Equal(decimal.NewFromInt(1500)) &&
			txn.Fees.Equal(decimal.RequireFromString("4.95"))
	})).Return(nil)

	require.NoError(t, NewInsertAction(ledger, "OFX", false).Commit(context.Background(), entry))
	ledger.AssertExpectations(t)
}

func TestInsertActionConvertsToDelivery(t *testing.T) {
	tests := []struct {
		in   model.ItemType
		want model.ItemType
	}{
		{model.ItemBuy, model.ItemDeliveryInbound},
		{model.ItemSell, model.ItemDeliveryOutbound},
		{model.ItemDividend, model.ItemDividend},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			it := buyItem()
			it.Type = tt.in
			entry := entryFor(t, it)

			ledger := &mockLedger{}
			ledger.On("EnsureSecurity", mock.Anything, mock.Anything).Return("sec-1", nil)
			ledger.On("SaveTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
				return txn.Type == tt.want
			})).Return(nil)

			require.NoError(t, NewInsertAction(ledger, "OFX", true).Commit(context.Background(), entry))
			ledger.AssertExpectations(t)
		})
	}
}

func TestInsertActionSecurityItem(t *testing.T) {
	sec := &model.Security{Name: "Microsoft Corp.", Ticker: "MSFT"}
	entry := entryFor(t, model.Item{Type: model.ItemSecurity, Security: sec})

	ledger := &mockLedger{}
	ledger.On("EnsureSecurity", mock.Anything, sec).Return("sec-2", nil)

	require.NoError(t, NewInsertAction(ledger, "OFX", false).Commit(context.Background(), entry))
	ledger.AssertExpectations(t)
	ledger.AssertNotCalled(t, "SaveTransaction", mock.Anything, mock.Anything)
}

func TestInsertActionCashItem(t *testing.T) {
	it := model.Item{
		Type:      model.ItemDeposit,
		Date:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		AccountID: "CHK",
		Amount:    decimal.NewFromInt(100),
	}
	entry := entryFor(t, it)

	ledger := &mockLedger{}
	ledger.On("SaveTransaction", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.SecurityID == "" && txn.Hash != ""
	})).Return(nil)

	require.NoError(t, NewInsertAction(ledger, "OFX", false).Commit(context.Background(), entry))
	ledger.AssertNotCalled(t, "EnsureSecurity", mock.Anything, mock.Anything)
}

func TestInsertActionSecurityFailure(t *testing.T) {
	entry := entryFor(t, buyItem())

	ledger := &mockLedger{}
	ledger.On("EnsureSecurity", mock.Anything, mock.Anything).Return("", errors.New("constraint failed"))

	err := NewInsertAction(ledger, "OFX", false).Commit(context.Background(), entry)
	assert.ErrorContains(t, err, "Apple Inc.")
	ledger.AssertNotCalled(t, "SaveTransaction", mock.Anything, mock.Anything)
}
