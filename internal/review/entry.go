package review

import (
	"errors"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// ErrEntryCommitted is returned when changing the decision on an entry that was already applied.
var ErrEntryCommitted = errors.New("entry already committed")

// Entry is one extracted item awaiting the reviewer's decision.
// Entries are accepted unless the reviewer or the session rejects them.
type Entry struct {
	Document  model.Document
	Item      model.Item
	reason    string
	accepted  bool
	committed bool
}

func newEntry(doc model.Document, item model.Item) *Entry {
	return &Entry{Document: doc, Item: item, accepted: true}
}

// Accepted reports whether the entry will be applied.
func (e *Entry) Accepted() bool {
	return e.accepted
}

// SetAccepted records the reviewer's decision.
func (e *Entry) SetAccepted(accepted bool) error {
	if e.committed {
		return ErrEntryCommitted
	}
	e.accepted = accepted
	if accepted {
		e.reason = ""
	}
	return nil
}

// Reason explains why the session rejected the entry, if it did.
func (e *Entry) Reason() string {
	return e.reason
}

// Committed reports whether the entry has been applied to the ledger.
func (e *Entry) Committed() bool {
	return e.committed
}

// MarkCommitted freezes the entry after it was applied.
func (e *Entry) MarkCommitted() {
	e.committed = true
}

func (e *Entry) reject(reason string) {
	e.accepted = false
	e.reason = reason
}
