package extractor

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Detect returns the first extractor, in registration order, that identifies doc.
// It returns nil and no error when no extractor claims the document. A probe
// failure is returned as a *ClassificationError and is never treated as a miss.
func Detect(ctx context.Context, doc model.Document, extractors []Extractor) (Extractor, error) {
	for _, e := range extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := e.Identify(ctx, doc)
		if err != nil {
			return nil, &ClassificationError{Document: doc, Extractor: e.Name(), Err: err}
		}
		if ok {
			return e, nil
		}
	}
	return nil, nil
}
