package consistency

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single scheduled check.
const DefaultTimeout = 2 * time.Minute

// Runner runs one consistency check.
type Runner interface {
	Run(ctx context.Context, full bool) (*Report, error)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTimeout bounds each scheduled check.
func WithTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// WithReportHandler is called with the report of every check that completes.
func WithReportHandler(fn func(*Report)) SchedulerOption {
	return func(s *Scheduler) {
		s.onReport = fn
	}
}

// Scheduler runs checks in the background. Callers hand over a request and
// never see its outcome; failures and issues are logged.
type Scheduler struct {
	runner   Runner
	onReport func(*Report)
	logger   *slog.Logger
	wg       sync.WaitGroup
	run      sync.Mutex
	timeout  time.Duration
}

// NewScheduler creates a scheduler for runner.
func NewScheduler(runner Runner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:  runner,
		timeout: DefaultTimeout,
		logger:  slog.Default().With("component", "consistency"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule starts a check and returns immediately. Checks run one at a time.
func (s *Scheduler) Schedule(fullCheck bool) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.run.Lock()
		defer s.run.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		report, err := s.runner.Run(ctx, fullCheck)
		if err != nil {
			s.logger.Error("Consistency check failed", "error", err)
			return
		}
		for _, issue := range report.Issues {
			s.logger.Warn("Ledger inconsistency",
				"kind", issue.Kind,
				"subject", issue.Subject,
				"detail", issue.Detail)
		}
		if s.onReport != nil {
			s.onReport(report)
		}
	}()
}

// Wait blocks until every scheduled check has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
