package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger booking created when an accepted item is applied.
type Transaction struct {
	Date       time.Time
	CreatedAt  time.Time
	ID         string
	Hash       string
	Type       ItemType
	AccountID  string
	SecurityID string // empty for pure cash bookings
	Currency   string
	Note       string
	Source     string // name of the extractor that produced the item
	Document   string // path of the source document
	Shares     decimal.Decimal
	Amount     decimal.Decimal
	Fees       decimal.Decimal
}

// Holding is the aggregated share position of one security.
type Holding struct {
	SecurityID string
	Name       string
	Shares     decimal.Decimal
}

// AccountBalance is the aggregated cash position of one account.
type AccountBalance struct {
	AccountID string
	Currency  string
	Balance   decimal.Decimal
}
