package model

import "strings"

// OnlineState records how a security property relates to its online source.
type OnlineState string

const (
	// StateBlank means no sync decision has been made for the property yet.
	StateBlank OnlineState = "BLANK"
	// StateSynced means the property follows the online source.
	StateSynced OnlineState = "SYNCED"
	// StateCustom means the user chose a value that differs from the online source.
	StateCustom OnlineState = "CUSTOM"
)

// ParseOnlineState converts a stored value into an OnlineState, treating unknown values as blank.
func ParseOnlineState(s string) OnlineState {
	switch OnlineState(s) {
	case StateSynced:
		return StateSynced
	case StateCustom:
		return StateCustom
	default:
		return StateBlank
	}
}

// SecurityProperty names a property of a security that can be synced online.
type SecurityProperty string

// Syncable security properties.
const (
	PropertyName   SecurityProperty = "name"
	PropertyTicker SecurityProperty = "ticker"
	PropertyISIN   SecurityProperty = "isin"
)

// SecurityProperties lists the syncable properties in display order.
var SecurityProperties = []SecurityProperty{PropertyName, PropertyTicker, PropertyISIN}

// Security is an instrument held in the ledger.
type Security struct {
	ID       string
	Name     string
	Ticker   string
	ISIN     string
	Currency string
	States   map[SecurityProperty]OnlineState
}

// Key returns the most specific identifier available for the security.
func (s *Security) Key() string {
	switch {
	case s.ISIN != "":
		return "isin:" + strings.ToUpper(s.ISIN)
	case s.Ticker != "":
		return "ticker:" + strings.ToUpper(s.Ticker)
	default:
		return "name:" + strings.ToLower(strings.TrimSpace(s.Name))
	}
}

// DisplayName returns the name, falling back to ticker and ISIN.
func (s *Security) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Ticker != "":
		return s.Ticker
	default:
		return s.ISIN
	}
}

// Value returns the value of a syncable property.
func (s *Security) Value(p SecurityProperty) string {
	switch p {
	case PropertyName:
		return s.Name
	case PropertyTicker:
		return s.Ticker
	case PropertyISIN:
		return s.ISIN
	default:
		return ""
	}
}

// SetValue sets the value of a syncable property.
func (s *Security) SetValue(p SecurityProperty, v string) {
	switch p {
	case PropertyName:
		s.Name = v
	case PropertyTicker:
		s.Ticker = v
	case PropertyISIN:
		s.ISIN = v
	}
}

// State returns the online state of a property; missing states are blank.
func (s *Security) State(p SecurityProperty) OnlineState {
	if s.States == nil {
		return StateBlank
	}
	if st, ok := s.States[p]; ok {
		return st
	}
	return StateBlank
}

// SetState records the online state of a property.
func (s *Security) SetState(p SecurityProperty, st OnlineState) {
	if s.States == nil {
		s.States = make(map[SecurityProperty]OnlineState, len(SecurityProperties))
	}
	s.States[p] = st
}
