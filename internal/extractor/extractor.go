// Package extractor turns statement documents into importable items.
//
// Each Extractor understands one family of documents. Detect asks the
// registered extractors, in order, which one recognizes a document, and a
// Planner uses it to split a batch of documents across extractors, handing
// anything nobody recognized to a catch-all Assistant.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Extractor recognizes and parses one class of statement documents.
// Implementations are compared by identity, so they should be pointer types.
type Extractor interface {
	// Name identifies the extractor in logs and review output.
	Name() string
	// Identify is a cheap probe deciding whether the extractor handles doc.
	// An error means the document could not be probed at all.
	Identify(ctx context.Context, doc model.Document) (bool, error)
	// Extract parses doc into items, in document order.
	Extract(ctx context.Context, doc model.Document) ([]model.Item, error)
}

// Sentinel errors for extraction.
var (
	ErrClassification = errors.New("classification failed")
	ErrExtraction     = errors.New("extraction failed")
	ErrNoExtractors   = errors.New("no extractors registered")
	ErrNotRecognized  = errors.New("document not recognized")
)

// ClassificationError reports a document that could not be probed.
type ClassificationError struct {
	Err       error
	Document  model.Document
	Extractor string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s with %s: %v", e.Document.Name(), e.Extractor, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrClassification) match.
func (e *ClassificationError) Is(target error) bool {
	return target == ErrClassification
}

// ExtractionError reports a document its extractor failed to parse.
type ExtractionError struct {
	Err       error
	Document  model.Document
	Extractor string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s with %s: %v", e.Document.Name(), e.Extractor, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrExtraction) match.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
