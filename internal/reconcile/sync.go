package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Source suggests master data for a security. The returned bool is false
// when the source does not know the security.
type Source interface {
	Lookup(ctx context.Context, security model.Security) (model.Security, bool, error)
}

// Store holds the securities being synced.
type Store interface {
	GetSecurities(ctx context.Context) ([]model.Security, error)
	UpdateSecurity(ctx context.Context, security *model.Security) error
}

// PropertyField pairs a security property with its reconciled field.
type PropertyField struct {
	Property model.SecurityProperty
	Field    Field
}

// Proposal is the reconciled view of one security.
type Proposal struct {
	Security model.Security
	Fields   []PropertyField
}

// Modified reports whether any property takes the suggested value.
func (p *Proposal) Modified() bool {
	for _, pf := range p.Fields {
		if pf.Field.Modified {
			return true
		}
	}
	return false
}

// Field returns the reconciled field of property.
func (p *Proposal) Field(property model.SecurityProperty) *Field {
	for i := range p.Fields {
		if p.Fields[i].Property == property {
			return &p.Fields[i].Field
		}
	}
	return nil
}

// Propose reconciles security with the suggestion for it.
func Propose(security, suggestion model.Security) Proposal {
	proposal := Proposal{Security: security}
	for _, property := range model.SecurityProperties {
		field := Field{
			Original:      security.Value(property),
			OriginalState: security.State(property),
		}
		proposal.Fields = append(proposal.Fields, PropertyField{
			Property: property,
			Field:    Observe(field, suggestion.Value(property)),
		})
	}
	return proposal
}

// Syncer reconciles stored securities against a source.
type Syncer struct {
	store  Store
	source Source
	logger *slog.Logger
}

// NewSyncer creates a syncer.
func NewSyncer(store Store, source Source) *Syncer {
	return &Syncer{
		store:  store,
		source: source,
		logger: slog.Default().With("component", "reconcile"),
	}
}

// Plan looks up every stored security and returns a proposal for each one
// the source knows.
func (s *Syncer) Plan(ctx context.Context) ([]Proposal, error) {
	securities, err := s.store.GetSecurities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load securities: %w", err)
	}

	var proposals []Proposal
	for _, sec := range securities {
		suggestion, found, err := s.source.Lookup(ctx, sec)
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s: %w", sec.DisplayName(), err)
		}
		if !found {
			s.logger.Debug("Security unknown to source", "security", sec.DisplayName())
			continue
		}
		proposals = append(proposals, Propose(sec, suggestion))
	}

	return proposals, nil
}

// Apply stores the properties that take a suggested value. Properties left
// unmodified keep their stored value and state. It returns the number of
// securities updated.
func (s *Syncer) Apply(ctx context.Context, proposals []Proposal) (int, error) {
	updated := 0
	for i := range proposals {
		p := &proposals[i]
		if !p.Modified() {
			continue
		}

		sec := p.Security
		sec.States = make(map[model.SecurityProperty]model.OnlineState, len(p.Security.States))
		for k, v := range p.Security.States {
			sec.States[k] = v
		}
		for _, pf := range p.Fields {
			if !pf.Field.Modified {
				continue
			}
			sec.SetValue(pf.Property, pf.Field.Value())
			sec.SetState(pf.Property, pf.Field.State())
		}

		if err := s.store.UpdateSecurity(ctx, &sec); err != nil {
			return updated, fmt.Errorf("failed to update %s: %w", sec.DisplayName(), err)
		}
		updated++

		s.logger.Info("Synced security", "security", sec.DisplayName(), "id", sec.ID)
	}
	return updated, nil
}
