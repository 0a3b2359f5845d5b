package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// StatementSource suggests master data taken from the security lists of
// imported statements.
type StatementSource struct {
	securities []model.Security
}

// NewStatementSource collects the securities mentioned by items.
func NewStatementSource(items []model.Item) *StatementSource {
	src := &StatementSource{}
	seen := make(map[string]bool)
	for _, item := range items {
		if item.Security == nil {
			continue
		}
		key := item.Security.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		src.securities = append(src.securities, *item.Security)
	}
	return src
}

// Lookup implements Source. Securities match by ISIN, then ticker, then name.
func (s *StatementSource) Lookup(_ context.Context, security model.Security) (model.Security, bool, error) {
	if found, ok := Match(s.securities, security); ok {
		return found, true, nil
	}
	return model.Security{}, false, nil
}

// Match finds the candidate describing the same security as target.
func Match(candidates []model.Security, target model.Security) (model.Security, bool) {
	for _, property := range []model.SecurityProperty{model.PropertyISIN, model.PropertyTicker, model.PropertyName} {
		want := strings.TrimSpace(target.Value(property))
		if want == "" {
			continue
		}
		for _, c := range candidates {
			if strings.EqualFold(strings.TrimSpace(c.Value(property)), want) {
				return c, true
			}
		}
	}
	return model.Security{}, false
}

// MultiSource asks each source in turn and returns the first match.
type MultiSource []Source

// Lookup implements Source.
func (m MultiSource) Lookup(ctx context.Context, security model.Security) (model.Security, bool, error) {
	var errs []error
	for _, src := range m {
		found, ok, err := src.Lookup(ctx, security)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return found, true, nil
		}
	}
	if len(errs) > 0 {
		return model.Security{}, false, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}
	return model.Security{}, false, nil
}
