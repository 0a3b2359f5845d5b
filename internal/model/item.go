package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ItemType identifies what an extracted item turns into once applied.
type ItemType string

// Item types produced by extractors.
const (
	ItemDeposit          ItemType = "DEPOSIT"
	ItemRemoval          ItemType = "REMOVAL"
	ItemInterest         ItemType = "INTEREST"
	ItemFees             ItemType = "FEES"
	ItemDividend         ItemType = "DIVIDEND"
	ItemBuy              ItemType = "BUY"
	ItemSell             ItemType = "SELL"
	ItemDeliveryInbound  ItemType = "DELIVERY_INBOUND"
	ItemDeliveryOutbound ItemType = "DELIVERY_OUTBOUND"
	ItemSecurity         ItemType = "SECURITY"
)

// IsPortfolio reports whether the item moves shares of a security.
func (t ItemType) IsPortfolio() bool {
	switch t {
	case ItemBuy, ItemSell, ItemDeliveryInbound, ItemDeliveryOutbound:
		return true
	default:
		return false
	}
}

// ParseItemType converts a free-form type label into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	switch t {
	case ItemDeposit, ItemRemoval, ItemInterest, ItemFees, ItemDividend,
		ItemBuy, ItemSell, ItemDeliveryInbound, ItemDeliveryOutbound, ItemSecurity:
		return t, nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// Item is one structured result produced by an extractor from a document.
type Item struct {
	Date      time.Time
	Security  *Security
	Type      ItemType
	AccountID string
	Currency  string
	Note      string
	Reference string // institution transaction id (e.g. OFX FITID)
	Hash      string
	Shares    decimal.Decimal
	Amount    decimal.Decimal // always positive, direction follows Type
	Fees      decimal.Decimal
}

// GenerateHash creates a hash used to detect an item that was already imported.
func (i *Item) GenerateHash() string {
	security := ""
	if i.Security != nil {
		security = i.Security.Key()
	}
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s",
		i.Type,
		i.Date.Format("2006-01-02"),
		i.AccountID,
		security,
		i.Shares.String(),
		i.Amount.StringFixed(2),
		i.Reference)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Label returns a short human-readable description of the item.
func (i *Item) Label() string {
	if i.Type == ItemSecurity && i.Security != nil {
		return fmt.Sprintf("%s %s", i.Type, i.Security.DisplayName())
	}
	if i.Security != nil {
		return fmt.Sprintf("%s %s %s x %s", i.Date.Format("2006-01-02"), i.Type, i.Shares.String(), i.Security.DisplayName())
	}
	return fmt.Sprintf("%s %s %s %s", i.Date.Format("2006-01-02"), i.Type, i.Amount.StringFixed(2), i.Currency)
}
