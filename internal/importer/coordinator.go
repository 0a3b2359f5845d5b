// Package importer applies reviewed entries to the ledger.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/review"
)

// CheckScheduler runs a ledger consistency check at some later point.
type CheckScheduler interface {
	Schedule(fullCheck bool)
}

// ActionFactory creates the action that commits the entries of one session.
type ActionFactory func(s *review.Session) Action

// Coordinator applies the accepted entries of reviewed sessions.
type Coordinator struct {
	ledger    Ledger
	scheduler CheckScheduler
	newAction ActionFactory
	logger    *slog.Logger
	mu        sync.Mutex
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithActionFactory replaces the default InsertAction.
func WithActionFactory(factory ActionFactory) CoordinatorOption {
	return func(c *Coordinator) {
		c.newAction = factory
	}
}

// NewCoordinator creates a coordinator writing to ledger.
func NewCoordinator(ledger Ledger, scheduler CheckScheduler, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		ledger:    ledger,
		scheduler: scheduler,
		logger:    slog.Default().With("component", "importer"),
	}
	c.newAction = func(s *review.Session) Action {
		return NewInsertAction(c.ledger, s.Extractor().Name(), s.ConvertBuySellToDelivery())
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply finalizes every session and then commits their accepted entries,
// session by session in list order. It reports whether the ledger changed.
//
// Once committing starts it is not interrupted by ctx. A failing entry stops
// the run with a *CommitError; entries committed before it are kept, and the
// ledger is still marked dirty and a consistency check scheduled.
func (c *Coordinator) Apply(ctx context.Context, sessions []*review.Session) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(sessions) == 0 {
		return false, nil
	}

	for _, s := range sessions {
		if err := s.Finalize(ctx); err != nil {
			return false, fmt.Errorf("failed to finalize %s session: %w", s.Extractor().Name(), err)
		}
	}

	commitCtx := context.WithoutCancel(ctx)
	applied, commitErr := c.commit(commitCtx, sessions)
	changed := applied > 0

	if changed {
		if err := c.ledger.MarkDirty(commitCtx); err != nil {
			c.logger.Error("Failed to mark ledger dirty", "error", err)
			if commitErr == nil {
				commitErr = fmt.Errorf("failed to mark ledger dirty: %w", err)
			}
		}
		if c.scheduler != nil {
			c.scheduler.Schedule(false)
		}
	}

	c.logger.Info("Applied import",
		"sessions", len(sessions),
		"applied", applied,
		"failed", commitErr != nil)

	return changed, commitErr
}

func (c *Coordinator) commit(ctx context.Context, sessions []*review.Session) (int, error) {
	applied := 0
	for _, s := range sessions {
		action := c.newAction(s)
		for _, entry := range s.Entries() {
			if !entry.Accepted() || entry.Committed() {
				continue
			}
			if err := action.Commit(ctx, entry); err != nil {
				return applied, &CommitError{
					Err:     err,
					Entry:   entry,
					Source:  s.Extractor().Name(),
					Applied: applied,
				}
			}
			entry.MarkCommitted()
			applied++
		}
	}
	return applied, nil
}
