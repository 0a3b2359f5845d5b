// Package review holds the extracted entries of an import run while the user
// decides which of them to apply.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/extractor"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Rejection reasons set by Finalize.
const (
	ReasonDuplicate       = "duplicate within import"
	ReasonAlreadyImported = "already in ledger"
)

// HashChecker reports whether the ledger already holds an item.
type HashChecker interface {
	HasTransactionHash(ctx context.Context, hash string) (bool, error)
}

// ProgressFunc is called after each document of a session has been extracted.
// It may be called from several goroutines when sessions load in parallel.
type ProgressFunc func(doc model.Document)

// Option configures a Session.
type Option func(*Session)

// WithLedger lets Finalize reject entries the ledger already holds.
func WithLedger(ledger HashChecker) Option {
	return func(s *Session) {
		s.ledger = ledger
	}
}

// WithConvertBuySellToDelivery sets the initial value of the session's conversion option.
func WithConvertBuySellToDelivery(convert bool) Option {
	return func(s *Session) {
		s.convert = convert
	}
}

// WithProgress registers a callback for extraction progress.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) {
		s.progress = fn
	}
}

// Session collects the entries one extractor produced for its documents.
type Session struct {
	extractor extractor.Extractor
	ledger    HashChecker
	progress  ProgressFunc
	logger    *slog.Logger
	documents []model.Document
	entries   []*Entry
	errors    []*extractor.ExtractionError
	convert   bool
	loaded    bool
}

// NewSession creates a session for the documents assigned to e.
func NewSession(e extractor.Extractor, docs []model.Document, opts ...Option) *Session {
	s := &Session{
		extractor: e,
		documents: append([]model.Document(nil), docs...),
		logger:    slog.Default().With("component", "review", "extractor", e.Name()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessions creates one session per assignment of the plan, in plan order.
func NewSessions(plan *extractor.Plan, opts ...Option) []*Session {
	assignments := plan.Assignments()
	sessions := make([]*Session, 0, len(assignments))
	for _, a := range assignments {
		sessions = append(sessions, NewSession(a.Extractor, a.Documents, opts...))
	}
	return sessions
}

// Extractor returns the extractor that produced the session's entries.
func (s *Session) Extractor() extractor.Extractor {
	return s.extractor
}

// Documents returns the documents assigned to the session.
func (s *Session) Documents() []model.Document {
	return s.documents
}

// Entries returns the session's entries in document order.
func (s *Session) Entries() []*Entry {
	return s.entries
}

// Accepted returns the entries currently marked for applying.
func (s *Session) Accepted() []*Entry {
	var accepted []*Entry
	for _, e := range s.entries {
		if e.Accepted() {
			accepted = append(accepted, e)
		}
	}
	return accepted
}

// Errors returns the documents that failed to extract.
func (s *Session) Errors() []*extractor.ExtractionError {
	return s.errors
}

// ConvertBuySellToDelivery reports whether buys and sells are applied as deliveries.
func (s *Session) ConvertBuySellToDelivery() bool {
	return s.convert
}

// SetConvertBuySellToDelivery changes how buys and sells are applied.
func (s *Session) SetConvertBuySellToDelivery(convert bool) {
	s.convert = convert
}

// Load extracts every document of the session. A document that fails to
// extract is recorded in Errors and does not stop the others. Load only
// returns an error when ctx is done.
func (s *Session) Load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	for _, doc := range s.documents {
		if err := ctx.Err(); err != nil {
			return err
		}

		items, err := s.extractor.Extract(ctx, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			s.logger.Warn("Failed to extract document",
				"document", doc.Name(),
				"error", err)
			s.errors = append(s.errors, &extractor.ExtractionError{
				Document:  doc,
				Extractor: s.extractor.Name(),
				Err:       err,
			})
		} else {
			for _, item := range items {
				s.entries = append(s.entries, newEntry(doc, item))
			}
		}

		if s.progress != nil {
			s.progress(doc)
		}
	}

	s.loaded = true
	s.logger.Info("Loaded session",
		"documents", len(s.documents),
		"entries", len(s.entries),
		"errors", len(s.errors))
	return nil
}

// Repeats reports, without changing any decision, the accepted entries that
// Finalize would reject, mapped to the rejection reason.
func (s *Session) Repeats(ctx context.Context) (map[*Entry]string, error) {
	repeats := make(map[*Entry]string)
	seen := make(map[string]bool, len(s.entries))

	for _, e := range s.entries {
		// security items are idempotent and need no dedupe
		if e.Committed() || e.Item.Hash == "" || e.Item.Type == model.ItemSecurity {
			continue
		}
		if !e.Accepted() {
			continue
		}

		if seen[e.Item.Hash] {
			repeats[e] = ReasonDuplicate
			continue
		}
		seen[e.Item.Hash] = true

		if s.ledger == nil {
			continue
		}
		exists, err := s.ledger.HasTransactionHash(ctx, e.Item.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to check ledger for %s: %w", e.Item.Label(), err)
		}
		if exists {
			repeats[e] = ReasonAlreadyImported
		}
	}
	return repeats, nil
}

// Finalize prepares the session for applying. Accepted entries that repeat an
// earlier entry of the session, or that the ledger already holds, are rejected.
func (s *Session) Finalize(ctx context.Context) error {
	repeats, err := s.Repeats(ctx)
	if err != nil {
		return err
	}

	var duplicates, imported int
	for e, reason := range repeats {
		e.reject(reason)
		if reason == ReasonDuplicate {
			duplicates++
		} else {
			imported++
		}
	}

	if duplicates > 0 || imported > 0 {
		s.logger.Info("Rejected repeated entries",
			"duplicates", duplicates,
			"already_imported", imported)
	}
	return nil
}
