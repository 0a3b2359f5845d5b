package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/review"
)

type stubExtractor struct {
	items map[string][]model.Item
	name  string
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Identify(context.Context, model.Document) (bool, error) {
	return true, nil
}

func (s *stubExtractor) Extract(_ context.Context, doc model.Document) ([]model.Item, error) {
	return s.items[doc.Path], nil
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) EnsureSecurity(ctx context.Context, security *model.Security) (string, error) {
	args := m.Called(ctx, security)
	return args.String(0), args.Error(1)
}

func (m *mockLedger) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *mockLedger) MarkDirty(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Schedule(fullCheck bool) {
	m.Called(fullCheck)
}

// recordingAction records the notes of committed entries and can fail on one of them.
type recordingAction struct {
	log    *[]string
	failOn string
}

func (a recordingAction) Commit(_ context.Context, entry *review.Entry) error {
	if entry.Item.Note == a.failOn {
		return errors.New("disk full")
	}
	*a.log = append(*a.log, entry.Item.Note)
	return nil
}

func item(note string) model.Item {
	i := model.Item{
		Type:      model.ItemDeposit,
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AccountID: "CHK",
		Amount:    decimal.NewFromInt(10),
		Note:      note,
		Reference: note,
	}
	i.Hash = i.GenerateHash()
	return i
}

// loadedSession builds a loaded session whose entries carry the given notes.
func loadedSession(t *testing.T, name string, notes ...string) *review.Session {
	t.Helper()
	doc := model.NewDocument("/statements/" + name)
	var items []model.Item
	for _, n := range notes {
		items = append(items, item(n))
	}
	s := review.NewSession(&stubExtractor{name: name, items: map[string][]model.Item{doc.Path: items}}, []model.Document{doc})
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestApplyCommitsAcceptedEntriesInOrder(t *testing.T) {
	s1 := loadedSession(t, "S1", "e1", "e2")
	s2 := loadedSession(t, "S2", "e3")
	require.NoError(t, s1.Entries()[1].SetAccepted(false))

	ledger := &mockLedger{}
	ledger.On("MarkDirty", mock.Anything).Return(nil).Once()
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", false).Once()

	var committed []string
	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return recordingAction{log: &committed}
	}))

	changed, err := c.Apply(context.Background(), []*review.Session{s1, s2})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"e1", "e3"}, committed)

	assert.True(t, s1.Entries()[0].Committed())
	assert.False(t, s1.Entries()[1].Committed())
	assert.ErrorIs(t, s1.Entries()[0].SetAccepted(false), review.ErrEntryCommitted)

	ledger.AssertExpectations(t)
	scheduler.AssertExpectations(t)
}

func TestApplyWithoutSessions(t *testing.T) {
	ledger := &mockLedger{}
	scheduler := &mockScheduler{}

	changed, err := NewCoordinator(ledger, scheduler).Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, changed)

	ledger.AssertNotCalled(t, "MarkDirty", mock.Anything)
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything)
}

func TestApplyNothingAccepted(t *testing.T) {
	s := loadedSession(t, "S1", "e1")
	require.NoError(t, s.Entries()[0].SetAccepted(false))

	ledger := &mockLedger{}
	scheduler := &mockScheduler{}
	var committed []string
	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return recordingAction{log: &committed}
	}))

	changed, err := c.Apply(context.Background(), []*review.Session{s})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, committed)
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything)
}

func TestApplyStopsAtFailingEntry(t *testing.T) {
	s1 := loadedSession(t, "S1", "e1", "e2")
	s2 := loadedSession(t, "S2", "e3")

	ledger := &mockLedger{}
	ledger.On("MarkDirty", mock.Anything).Return(nil).Once()
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", false).Once()

	var committed []string
	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return recordingAction{log: &committed, failOn: "e2"}
	}))

	changed, err := c.Apply(context.Background(), []*review.Session{s1, s2})
	require.Error(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"e1"}, committed)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.ErrorIs(t, err, ErrCommit)
	assert.Equal(t, "S1", commitErr.Source)
	assert.Equal(t, 1, commitErr.Applied)
	assert.Same(t, s1.Entries()[1], commitErr.Entry)
	assert.False(t, s2.Entries()[0].Committed())

	ledger.AssertExpectations(t)
	scheduler.AssertExpectations(t)
}

func TestApplyFirstEntryFailsSchedulesNothing(t *testing.T) {
	s := loadedSession(t, "S1", "e1")

	ledger := &mockLedger{}
	scheduler := &mockScheduler{}
	var committed []string
	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return recordingAction{log: &committed, failOn: "e1"}
	}))

	changed, err := c.Apply(context.Background(), []*review.Session{s})
	assert.ErrorIs(t, err, ErrCommit)
	assert.False(t, changed)
	ledger.AssertNotCalled(t, "MarkDirty", mock.Anything)
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything)
}

// loggingChecker records ledger lookups made while a session finalizes.
type loggingChecker struct {
	log  *[]string
	name string
}

func (c loggingChecker) HasTransactionHash(context.Context, string) (bool, error) {
	*c.log = append(*c.log, "finalize "+c.name)
	return false, nil
}

func TestApplyFinalizesBeforeCommitting(t *testing.T) {
	var events []string
	session := func(name string, notes ...string) *review.Session {
		doc := model.NewDocument("/statements/" + name)
		var items []model.Item
		for _, n := range notes {
			items = append(items, item(n))
		}
		s := review.NewSession(&stubExtractor{name: name, items: map[string][]model.Item{doc.Path: items}},
			[]model.Document{doc}, review.WithLedger(loggingChecker{log: &events, name: name}))
		require.NoError(t, s.Load(context.Background()))
		return s
	}
	s1 := session("S1", "e1", "e1")
	s2 := session("S2", "e2")

	ledger := &mockLedger{}
	ledger.On("MarkDirty", mock.Anything).Return(nil)
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", false)

	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return actionFunc(func(_ context.Context, entry *review.Entry) error {
			events = append(events, "commit "+entry.Item.Note)
			return nil
		})
	}))

	_, err := c.Apply(context.Background(), []*review.Session{s1, s2})
	require.NoError(t, err)
	assert.Equal(t, []string{"finalize S1", "finalize S2", "commit e1", "commit e2"}, events)
	assert.Equal(t, review.ReasonDuplicate, s1.Entries()[1].Reason())
}

func TestApplyIgnoresCancellationOnceCommitting(t *testing.T) {
	s := loadedSession(t, "S1", "e1", "e2")

	ctx, cancel := context.WithCancel(context.Background())
	ledger := &mockLedger{}
	ledger.On("MarkDirty", mock.Anything).Return(nil)
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", false)

	var seen []error
	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return actionFunc(func(ctx context.Context, _ *review.Entry) error {
			cancel()
			seen = append(seen, ctx.Err())
			return nil
		})
	}))

	changed, err := c.Apply(ctx, []*review.Session{s})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []error{nil, nil}, seen)
}

func TestApplyMarkDirtyFailure(t *testing.T) {
	s := loadedSession(t, "S1", "e1")

	ledger := &mockLedger{}
	ledger.On("MarkDirty", mock.Anything).Return(errors.New("readonly database"))
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", false).Once()

	var committed []string
	c := NewCoordinator(ledger, scheduler, WithActionFactory(func(*review.Session) Action {
		return recordingAction{log: &committed}
	}))

	changed, err := c.Apply(context.Background(), []*review.Session{s})
	assert.True(t, changed)
	assert.ErrorContains(t, err, "readonly database")
	scheduler.AssertExpectations(t)
}

type actionFunc func(ctx context.Context, entry *review.Entry) error

func (f actionFunc) Commit(ctx context.Context, entry *review.Entry) error {
	return f(ctx, entry)
}
