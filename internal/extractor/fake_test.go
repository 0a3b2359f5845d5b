package extractor

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// fakeExtractor claims documents whose path is in claims and records the probes it sees.
type fakeExtractor struct {
	claims     map[string]bool
	probeErr   map[string]error
	items      map[string][]model.Item
	extractErr error
	name       string
	mu         sync.Mutex
	identified []string
	extracted  []string
}

func newFake(name string, claimed ...string) *fakeExtractor {
	f := &fakeExtractor{
		name:     name,
		claims:   make(map[string]bool),
		probeErr: make(map[string]error),
		items:    make(map[string][]model.Item),
	}
	for _, path := range claimed {
		f.claims[path] = true
	}
	return f
}

func (f *fakeExtractor) Name() string {
	return f.name
}

func (f *fakeExtractor) Identify(_ context.Context, doc model.Document) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identified = append(f.identified, doc.Path)
	if err := f.probeErr[doc.Path]; err != nil {
		return false, err
	}
	return f.claims[doc.Path], nil
}

func (f *fakeExtractor) Extract(_ context.Context, doc model.Document) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, doc.Path)
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.items[doc.Path], nil
}

func (f *fakeExtractor) identifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.identified)
}

var errProbe = errors.New("disk on fire")

func docs(paths ...string) []model.Document {
	out := make([]model.Document, 0, len(paths))
	for _, p := range paths {
		out = append(out, model.NewDocument(p))
	}
	return out
}
