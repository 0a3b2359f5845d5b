package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// AssistantName is the name of the catch-all extractor.
const AssistantName = "Assistant"

// Assistant is the catch-all extractor for documents no specific extractor
// recognized. It runs every extractor of its snapshot against the document,
// skipping the identification probe, and keeps the first non-empty result.
type Assistant struct {
	logger   *slog.Logger
	snapshot []Extractor
}

// NewAssistant creates a catch-all over a snapshot of extractors. The slice is
// copied; later changes to the caller's list are not seen.
func NewAssistant(snapshot []Extractor) *Assistant {
	return &Assistant{
		snapshot: append([]Extractor(nil), snapshot...),
		logger:   slog.Default().With("component", "assistant"),
	}
}

// Name implements Extractor.
func (a *Assistant) Name() string {
	return AssistantName
}

// Identify implements Extractor. The assistant accepts any document.
func (a *Assistant) Identify(_ context.Context, _ model.Document) (bool, error) {
	return true, nil
}

// Extract implements Extractor.
func (a *Assistant) Extract(ctx context.Context, doc model.Document) ([]model.Item, error) {
	var errs []error

	for _, e := range a.snapshot {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := e.Extract(ctx, doc)
		if err != nil {
			a.logger.Debug("Extractor could not parse document",
				"extractor", e.Name(),
				"document", doc.Name(),
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		if len(items) == 0 {
			continue
		}

		a.logger.Info("Assisted extraction succeeded",
			"extractor", e.Name(),
			"document", doc.Name(),
			"items", len(items))
		return items, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotRecognized, doc.Name())
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrNotRecognized, doc.Name(), errors.Join(errs...))
}
