package review

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds how many sessions load at once.
const DefaultWorkers = 4

// LoadAll loads sessions in parallel, at most limit at a time. Each session is
// loaded by a single goroutine and owns its entries.
func LoadAll(ctx context.Context, sessions []*Session, limit int) error {
	if limit <= 0 {
		limit = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, s := range sessions {
		g.Go(func() error {
			return s.Load(gctx)
		})
	}

	return g.Wait()
}
