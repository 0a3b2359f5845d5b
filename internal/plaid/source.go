package plaid

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/reconcile"
)

// Source suggests security master data from the securities Plaid reports for
// the linked investment accounts. Holdings are fetched once per Source.
type Source struct {
	fetcher    SecurityFetcher
	err        error
	securities []model.Security
	mu         sync.Mutex
	fetched    bool
}

// NewSource creates a reconcile source backed by fetcher.
func NewSource(fetcher SecurityFetcher) *Source {
	return &Source{fetcher: fetcher}
}

// Lookup implements reconcile.Source.
func (s *Source) Lookup(ctx context.Context, security model.Security) (model.Security, bool, error) {
	securities, err := s.load(ctx)
	if err != nil {
		return model.Security{}, false, err
	}
	found, ok := reconcile.Match(securities, security)
	return found, ok, nil
}

func (s *Source) load(ctx context.Context) ([]model.Security, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetched {
		s.securities, s.err = s.fetcher.GetSecurities(ctx)
		s.fetched = true
	}
	return s.securities, s.err
}

var _ reconcile.Source = (*Source)(nil)
