package extractor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) model.Document {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "statement.xlsx")
	require.NoError(t, f.SaveAs(path))
	return model.NewDocument(path)
}

var bookingRows = [][]any{
	{"Date", "Type", "Account", "Security", "ISIN", "Ticker", "Shares", "Amount", "Fees", "Currency", "Note"},
	{"2024-02-01", "Deposit", "DEPOT-1", "", "", "", "", "5,000.00", "", "eur", "Transfer in"},
	{"2024-02-05", "Buy", "DEPOT-1", "Apple Inc.", "US0378331005", "AAPL", "10", "1500.00", "4.95", "EUR", ""},
	{},
	{"2024-03-15", "Dividend", "DEPOT-1", "Apple Inc.", "US0378331005", "AAPL", "", "2.40", "", "EUR", ""},
	{"", "Security", "", "Microsoft Corp.", "US5949181045", "MSFT", "", "", "", "USD", ""},
}

func TestSpreadsheetIdentify(t *testing.T) {
	ctx := context.Background()

	doc := writeWorkbook(t, "Sheet1", bookingRows)
	ok, err := NewSpreadsheet("").Identify(ctx, doc)
	require.NoError(t, err)
	assert.True(t, ok)

	other := writeWorkbook(t, "Sheet1", [][]any{{"Name", "Score"}, {"x", 1}})
	ok, err = NewSpreadsheet("").Identify(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewSpreadsheet("").Identify(ctx, model.NewDocument("/d/statement.ofx"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSpreadsheetIdentifyBrokenWorkbook(t *testing.T) {
	ctx := context.Background()

	broken := writeDocument(t, "broken.xlsx", "not a zip archive")
	ok, err := NewSpreadsheet("").Identify(ctx, broken)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewSpreadsheet("").Identify(ctx, model.NewDocument(filepath.Join(t.TempDir(), "gone.xlsx")))
	assert.Error(t, err)
}

func TestSpreadsheetIdentifyMissingSheet(t *testing.T) {
	doc := writeWorkbook(t, "Sheet1", bookingRows)

	ok, err := NewSpreadsheet("Bookings").Identify(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSpreadsheetExtract(t *testing.T) {
	doc := writeWorkbook(t, "Bookings", bookingRows)

	items, err := NewSpreadsheet("Bookings").Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, items, 4)

	deposit := items[0]
	assert.Equal(t, model.ItemDeposit, deposit.Type)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), deposit.Date)
	assert.Equal(t, "DEPOT-1", deposit.AccountID)
	assert.Equal(t, "EUR", deposit.Currency)
	assert.Equal(t, "Transfer in", deposit.Note)
	assert.True(t, decimal.RequireFromString("5000").Equal(deposit.Amount))
	assert.Nil(t, deposit.Security)

	buy := items[1]
	assert.Equal(t, model.ItemBuy, buy.Type)
	require.NotNil(t, buy.Security)
	assert.Equal(t, "US0378331005", buy.Security.ISIN)
	assert.Equal(t, "AAPL", buy.Security.Ticker)
	assert.True(t, decimal.RequireFromString("10").Equal(buy.Shares))
	assert.True(t, decimal.RequireFromString("4.95").Equal(buy.Fees))

	assert.Equal(t, model.ItemDividend, items[2].Type)

	security := items[3]
	assert.Equal(t, model.ItemSecurity, security.Type)
	assert.Equal(t, "Microsoft Corp.", security.Security.Name)
	assert.True(t, security.Date.IsZero())

	for _, item := range items {
		assert.NotEmpty(t, item.Hash)
	}
}

func TestSpreadsheetIdenticalRowsKeepDistinctHashes(t *testing.T) {
	header := []any{"Date", "Type", "Account", "Amount", "Note", "Reference"}
	coffee := []any{"2024-01-05", "Removal", "chk", "4.50", "coffee", ""}
	doc := writeWorkbook(t, "Sheet1", [][]any{
		header,
		coffee,
		coffee,
		{"2024-01-06", "Removal", "chk", "4.50", "coffee", "R-77"},
	})

	items, err := NewSpreadsheet("").Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "statement.xlsx:2", items[0].Reference)
	assert.Equal(t, "statement.xlsx:3", items[1].Reference)
	assert.Equal(t, "R-77", items[2].Reference)
	assert.NotEqual(t, items[0].Hash, items[1].Hash)

	again, err := NewSpreadsheet("").Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, items[1].Hash, again[1].Hash)
}

func TestSpreadsheetIdentifyChecksZipMagic(t *testing.T) {
	doc := writeDocument(t, "export.xlsx", "Date,Type,Amount\n2024-01-05,Deposit,10\n")

	ok, err := NewSpreadsheet("").Identify(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSpreadsheetExtractRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		want string
	}{
		{"unknown type", []any{"2024-02-01", "Transfer", "", "", "", "", "", "10"}, "unknown item type"},
		{"bad date", []any{"someday", "Deposit", "", "", "", "", "", "10"}, "unrecognized date"},
		{"bad amount", []any{"2024-02-01", "Deposit", "", "", "", "", "", "ten"}, "amount"},
		{"buy without security", []any{"2024-02-01", "Buy", "", "", "", "", "1", "10"}, "needs a security"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := writeWorkbook(t, "Sheet1", [][]any{bookingRows[0], tt.row})

			_, err := NewSpreadsheet("").Extract(context.Background(), doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "row 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "0"},
		{"1,234.50", "1234.5"},
		{"$12", "12"},
		{"(15.00)", "-15"},
		{"-3.25", "-3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), got.String())
		})
	}
}
