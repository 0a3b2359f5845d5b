// Package reconcile merges locally held security master data with values
// suggested by an online source without discarding the user's own edits.
package reconcile

import "github.com/Veraticus/spice-ledger/internal/model"

// Field is one property of a security as seen during a sync.
// An empty Suggested means the source offered no value.
type Field struct {
	Original      string
	OriginalState model.OnlineState
	Suggested     string
	Modified      bool
}

// Observe records a new suggestion for f and decides whether the suggestion
// replaces the original value. A blank original adopts any real suggestion;
// a synced or custom original keeps its current decision. The suggestion is
// stored in the result either way.
func Observe(f Field, suggested string) Field {
	f.Suggested = suggested

	switch {
	case suggested == "":
		f.Modified = false
	case suggested == f.Original:
		f.Modified = false
	case f.OriginalState == model.StateBlank:
		f.Modified = true
	}

	return f
}

// Value returns the value the property ends up with.
func (f Field) Value() string {
	if f.Modified {
		return f.Suggested
	}
	return f.Original
}

// State returns the online state the property ends up with.
func (f Field) State() model.OnlineState {
	if f.Modified {
		return model.StateSynced
	}
	if f.Suggested != "" && f.Suggested == f.Original {
		return model.StateSynced
	}
	return model.StateCustom
}

// SetModified lets the user take or refuse a suggestion. Taking an empty
// suggestion, or one equal to the original, is not a modification and is
// ignored. It reports whether the field changed.
func (f *Field) SetModified(modified bool) bool {
	if modified && (f.Suggested == "" || f.Suggested == f.Original) {
		return false
	}
	if f.Modified == modified {
		return false
	}
	f.Modified = modified
	return true
}
