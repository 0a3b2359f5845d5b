// Package consistency checks the ledger for bookings that cannot be right,
// such as selling more shares than are held.
package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// IssueKind classifies a consistency problem.
type IssueKind string

// Issue kinds.
const (
	NegativeHolding IssueKind = "negative_holding"
	OrphanedBooking IssueKind = "orphaned_booking"
	NegativeBalance IssueKind = "negative_balance"
)

// Issue is a single problem found in the ledger.
type Issue struct {
	Kind    IssueKind
	Subject string
	Detail  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Kind, i.Subject, i.Detail)
}

// Report is the outcome of one check run.
type Report struct {
	CheckedAt time.Time
	Issues    []Issue
	Full      bool
}

// OK reports whether the check found no issues.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Ledger is the storage the checker reads from.
type Ledger interface {
	GetHoldings(ctx context.Context) ([]model.Holding, error)
	GetAccountBalances(ctx context.Context) ([]model.AccountBalance, error)
	GetOrphanedTransactions(ctx context.Context) ([]model.Transaction, error)
	MarkChecked(ctx context.Context, at time.Time) error
}

// Checker runs the consistency checks against a ledger.
type Checker struct {
	ledger Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewChecker creates a checker for ledger.
func NewChecker(ledger Ledger) *Checker {
	return &Checker{
		ledger: ledger,
		logger: slog.Default().With("component", "consistency"),
		now:    time.Now,
	}
}

// Run checks holdings and security references. A full check also looks for
// accounts with a negative cash balance, which is legitimate for some
// accounts and therefore left out of the check that follows an import.
func (c *Checker) Run(ctx context.Context, full bool) (*Report, error) {
	report := &Report{Full: full}

	holdings, err := c.ledger.GetHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	for _, h := range holdings {
		if h.Shares.IsNegative() {
			report.Issues = append(report.Issues, Issue{
				Kind:    NegativeHolding,
				Subject: holdingName(h),
				Detail:  fmt.Sprintf("%s shares", h.Shares.String()),
			})
		}
	}

	orphans, err := c.ledger.GetOrphanedTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orphaned bookings: %w", err)
	}
	for _, txn := range orphans {
		report.Issues = append(report.Issues, Issue{
			Kind:    OrphanedBooking,
			Subject: txn.ID,
			Detail:  fmt.Sprintf("%s on %s without security", txn.Type, txn.Date.Format("2006-01-02")),
		})
	}

	if full {
		balances, err := c.ledger.GetAccountBalances(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load balances: %w", err)
		}
		for _, b := range balances {
			if b.Balance.IsNegative() {
				report.Issues = append(report.Issues, Issue{
					Kind:    NegativeBalance,
					Subject: b.AccountID,
					Detail:  fmt.Sprintf("%s %s", b.Balance.StringFixed(2), b.Currency),
				})
			}
		}
	}

	report.CheckedAt = c.now()
	if err := c.ledger.MarkChecked(ctx, report.CheckedAt); err != nil {
		return nil, fmt.Errorf("failed to record check: %w", err)
	}

	c.logger.Info("Consistency check finished",
		"full", full,
		"issues", len(report.Issues))

	return report, nil
}

func holdingName(h model.Holding) string {
	if h.Name != "" {
		return h.Name
	}
	return h.SecurityID
}
