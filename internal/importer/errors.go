package importer

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/review"
)

// ErrCommit is matched by every *CommitError.
var ErrCommit = errors.New("commit failed")

// CommitError reports the entry that stopped an apply run. Entries applied
// before it stay applied.
type CommitError struct {
	Err     error
	Entry   *review.Entry
	Source  string
	Applied int
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s from %s (after %d applied): %v",
		e.Entry.Item.Label(), e.Source, e.Applied, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCommit) match.
func (e *CommitError) Is(target error) bool {
	return target == ErrCommit
}
