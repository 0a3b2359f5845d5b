package extractor

import (
	"context"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Spreadsheet column headers, matched case-insensitively.
const (
	colDate     = "date"
	colType     = "type"
	colAccount  = "account"
	colSecurity = "security"
	colISIN     = "isin"
	colTicker   = "ticker"
	colShares   = "shares"
	colAmount   = "amount"
	colFees     = "fees"
	colCurrency = "currency"
	colNote     = "note"
	colRef      = "reference"
)

// zipMagic starts every XLSX workbook.
var zipMagic = []byte("PK\x03\x04")

var requiredSpreadsheetColumns = []string{colDate, colType, colAmount}

var spreadsheetDateLayouts = []string{"2006-01-02", "01/02/2006", "02.01.2006", "1/2/06"}

// Spreadsheet extracts portfolio statements kept as XLSX workbooks with one
// booking per row below a header row.
type Spreadsheet struct {
	logger *slog.Logger
	sheet  string
}

// NewSpreadsheet creates a spreadsheet extractor reading the named sheet.
// An empty sheet name selects the first sheet of the workbook.
func NewSpreadsheet(sheet string) *Spreadsheet {
	return &Spreadsheet{
		sheet:  sheet,
		logger: slog.Default().With("component", "spreadsheet"),
	}
}

// Name implements Extractor.
func (s *Spreadsheet) Name() string {
	return "Spreadsheet"
}

// Identify implements Extractor.
func (s *Spreadsheet) Identify(_ context.Context, doc model.Document) (bool, error) {
	if !strings.EqualFold(doc.Ext(), ".xlsx") {
		return false, nil
	}

	head, err := readHead(doc, len(zipMagic))
	if err != nil {
		return false, err
	}
	if !bytes.Equal(head, zipMagic) {
		return false, nil
	}

	f, err := excelize.OpenFile(doc.Path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return false, fmt.Errorf("failed to open workbook: %w", err)
		}
		// not a workbook despite the extension
		return false, nil
	}
	defer func() { _ = f.Close() }()

	rows, err := f.Rows(s.sheetName(f))
	if err != nil {
		// a workbook without the sheet is simply not ours
		return false, nil
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return false, nil
	}
	header, err := rows.Columns()
	if err != nil {
		return false, fmt.Errorf("failed to read header row: %w", err)
	}

	columns := headerIndex(header)
	for _, required := range requiredSpreadsheetColumns {
		if _, ok := columns[required]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Extract implements Extractor.
func (s *Spreadsheet) Extract(_ context.Context, doc model.Document) ([]model.Item, error) {
	f, err := excelize.OpenFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := s.sheetName(f)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := headerIndex(rows[0])
	for _, required := range requiredSpreadsheetColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("sheet %q has no %q column", sheet, required)
		}
	}

	var items []model.Item
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		item, err := s.parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		// identical rows are separate bookings unless the sheet names them
		if item.Reference == "" {
			item.Reference = doc.Name() + ":" + strconv.Itoa(i+2)
		}
		item.Hash = item.GenerateHash()
		items = append(items, item)
	}

	s.logger.Info("Parsed spreadsheet",
		"document", doc.Name(),
		"sheet", sheet,
		"items", len(items))

	return items, nil
}

func (s *Spreadsheet) sheetName(f *excelize.File) string {
	if s.sheet != "" {
		return s.sheet
	}
	return f.GetSheetName(0)
}

func (s *Spreadsheet) parseRow(row []string, columns map[string]int) (model.Item, error) {
	get := func(col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	itemType, err := model.ParseItemType(strings.ToUpper(strings.ReplaceAll(get(colType), " ", "_")))
	if err != nil {
		return model.Item{}, err
	}

	item := model.Item{
		Type:      itemType,
		AccountID: get(colAccount),
		Currency:  strings.ToUpper(get(colCurrency)),
		Note:      get(colNote),
		Reference: get(colRef),
	}

	if itemType != model.ItemSecurity {
		date, err := parseDate(get(colDate), spreadsheetDateLayouts)
		if err != nil {
			return model.Item{}, err
		}
		item.Date = date
	}

	if item.Amount, err = parseAmount(get(colAmount)); err != nil {
		return model.Item{}, fmt.Errorf("amount: %w", err)
	}
	item.Amount = item.Amount.Abs()
	if item.Shares, err = parseAmount(get(colShares)); err != nil {
		return model.Item{}, fmt.Errorf("shares: %w", err)
	}
	item.Shares = item.Shares.Abs()
	if item.Fees, err = parseAmount(get(colFees)); err != nil {
		return model.Item{}, fmt.Errorf("fees: %w", err)
	}
	item.Fees = item.Fees.Abs()

	name, isin, ticker := get(colSecurity), get(colISIN), get(colTicker)
	if name != "" || isin != "" || ticker != "" {
		item.Security = &model.Security{Name: name, ISIN: isin, Ticker: ticker, Currency: item.Currency}
	}
	if (itemType.IsPortfolio() || itemType == model.ItemSecurity) && item.Security == nil {
		return model.Item{}, fmt.Errorf("%s needs a security", itemType)
	}

	return item, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := columns[key]; !dup && key != "" {
			columns[key] = i
		}
	}
	return columns
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(value string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// parseAmount parses a number that may carry thousands separators or a currency sign.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	negative := strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")")
	value = strings.Trim(value, "()")
	value = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", " ", "").Replace(value)

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", value)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
