package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// CatchAllFactory builds the fallback extractor from a snapshot of the registered extractors.
type CatchAllFactory func(snapshot []Extractor) Extractor

// Planner assigns documents to extractors for one import run.
type Planner struct {
	logger      *slog.Logger
	newCatchAll CatchAllFactory
	catchAll    Extractor
	extractors  []Extractor
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithCatchAll overrides how the fallback extractor is built.
func WithCatchAll(factory CatchAllFactory) PlannerOption {
	return func(p *Planner) {
		p.newCatchAll = factory
	}
}

// WithLogger sets the planner's logger.
func WithLogger(logger *slog.Logger) PlannerOption {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a planner over the given extractors. The order of the
// list is the priority order used during classification.
func NewPlanner(extractors []Extractor, opts ...PlannerOption) *Planner {
	p := &Planner{
		extractors: append([]Extractor(nil), extractors...),
		logger:     slog.Default().With("component", "planner"),
		newCatchAll: func(snapshot []Extractor) Extractor {
			return NewAssistant(snapshot)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extractors returns the working extractor list, including the catch-all once it exists.
func (p *Planner) Extractors() []Extractor {
	return append([]Extractor(nil), p.extractors...)
}

// Assignment is the set of documents handed to one extractor.
type Assignment struct {
	Extractor Extractor
	Documents []model.Document
}

// Plan is the result of assigning a batch of documents.
type Plan struct {
	CatchAll    Extractor // nil unless some document was unmatched
	extractors  []Extractor
	assignments []Assignment
}

// Assignments returns the non-empty buckets in extractor order.
func (p *Plan) Assignments() []Assignment {
	return p.assignments
}

// Extractors returns the extractor list as it stood after planning.
func (p *Plan) Extractors() []Extractor {
	return p.extractors
}

// Documents returns the documents assigned to e.
func (p *Plan) Documents(e Extractor) []model.Document {
	for _, a := range p.assignments {
		if a.Extractor == e {
			return a.Documents
		}
	}
	return nil
}

// Assign partitions docs across the registered extractors.
//
// With a single registered extractor every document goes to it without
// probing. Otherwise each document is classified with Detect; documents no
// extractor claims are handed to a catch-all extractor that is created and
// registered on first need. A classification error aborts planning and
// leaves the planner unchanged.
func (p *Planner) Assign(ctx context.Context, docs []model.Document) (*Plan, error) {
	if len(p.extractors) == 0 {
		return nil, ErrNoExtractors
	}

	docs = uniqueDocuments(docs)

	if len(p.extractors) == 1 {
		only := p.extractors[0]
		plan := &Plan{extractors: p.Extractors()}
		if len(docs) > 0 {
			plan.assignments = []Assignment{{Extractor: only, Documents: docs}}
		}
		p.logger.Debug("Single extractor registered, skipping classification",
			"extractor", only.Name(),
			"documents", len(docs))
		return plan, nil
	}

	candidates := p.specificExtractors()
	buckets := make([][]model.Document, len(p.extractors))
	var unmatched []model.Document

	for _, doc := range docs {
		e, err := Detect(ctx, doc, candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to assign documents: %w", err)
		}
		if e == nil {
			p.logger.Debug("No extractor recognized document", "document", doc.Name())
			unmatched = append(unmatched, doc)
			continue
		}
		idx := p.indexOf(e)
		buckets[idx] = append(buckets[idx], doc)
	}

	if len(unmatched) > 0 {
		if p.catchAll == nil {
			p.catchAll = p.newCatchAll(append([]Extractor(nil), p.extractors...))
			p.extractors = append(p.extractors, p.catchAll)
			buckets = append(buckets, nil)
			p.logger.Info("Registered catch-all extractor",
				"extractor", p.catchAll.Name(),
				"unmatched", len(unmatched))
		}
		idx := p.indexOf(p.catchAll)
		buckets[idx] = append(buckets[idx], unmatched...)
	}

	plan := &Plan{extractors: p.Extractors()}
	if len(unmatched) > 0 {
		plan.CatchAll = p.catchAll
	}
	for i, e := range p.extractors {
		if len(buckets[i]) == 0 {
			continue
		}
		plan.assignments = append(plan.assignments, Assignment{Extractor: e, Documents: buckets[i]})
	}

	return plan, nil
}

func (p *Planner) specificExtractors() []Extractor {
	if p.catchAll == nil {
		return p.extractors
	}
	specific := make([]Extractor, 0, len(p.extractors)-1)
	for _, e := range p.extractors {
		if e != p.catchAll {
			specific = append(specific, e)
		}
	}
	return specific
}

func (p *Planner) indexOf(e Extractor) int {
	for i, candidate := range p.extractors {
		if candidate == e {
			return i
		}
	}
	return -1
}

// uniqueDocuments drops repeated paths, keeping the first occurrence.
func uniqueDocuments(docs []model.Document) []model.Document {
	seen := make(map[string]bool, len(docs))
	unique := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.Path] {
			continue
		}
		seen[doc.Path] = true
		unique = append(unique, doc)
	}
	return unique
}
