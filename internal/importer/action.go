package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/review"
)

// Ledger is the part of the storage layer an import writes to.
type Ledger interface {
	EnsureSecurity(ctx context.Context, security *model.Security) (string, error)
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	MarkDirty(ctx context.Context) error
}

// Action turns one accepted entry into a durable ledger change.
type Action interface {
	Commit(ctx context.Context, entry *review.Entry) error
}

// InsertAction books entries as new ledger transactions.
type InsertAction struct {
	ledger  Ledger
	source  string
	convert bool
}

// NewInsertAction creates the action for one session. With convert set, buys
// and sells are booked as inbound and outbound deliveries without a cash side.
func NewInsertAction(ledger Ledger, source string, convert bool) *InsertAction {
	return &InsertAction{ledger: ledger, source: source, convert: convert}
}

// Commit implements Action.
func (a *InsertAction) Commit(ctx context.Context, entry *review.Entry) error {
	item := entry.Item

	if item.Type == model.ItemSecurity {
		if item.Security == nil {
			return errors.New("security item without security")
		}
		_, err := a.ledger.EnsureSecurity(ctx, item.Security)
		return err
	}

	txn := &model.Transaction{
		Date:      item.Date,
		Hash:      item.Hash,
		Type:      a.bookingType(item.Type),
		AccountID: item.AccountID,
		Currency:  item.Currency,
		Note:      item.Note,
		Source:    a.source,
		Document:  entry.Document.Path,
		Shares:    item.Shares,
		Amount:    item.Amount,
		Fees:      item.Fees,
	}
	if txn.Hash == "" {
		txn.Hash = item.GenerateHash()
	}

	if item.Security != nil {
		id, err := a.ledger.EnsureSecurity(ctx, item.Security)
		if err != nil {
			return fmt.Errorf("failed to resolve security %s: %w", item.Security.DisplayName(), err)
		}
		txn.SecurityID = id
	}

	return a.ledger.SaveTransaction(ctx, txn)
}

func (a *InsertAction) bookingType(t model.ItemType) model.ItemType {
	if !a.convert {
		return t
	}
	switch t {
	case model.ItemBuy:
		return model.ItemDeliveryInbound
	case model.ItemSell:
		return model.ItemDeliveryOutbound
	default:
		return t
	}
}
