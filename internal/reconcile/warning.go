package reconcile

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ParseWarning describes one persisted entry that was dropped while decoding.
type ParseWarning struct {
	Key     string
	Section string
	Err     error
}

func (w ParseWarning) Error() string {
	if w.Section != "" {
		return fmt.Sprintf("schedule %q, section %q: %v", w.Key, w.Section, w.Err)
	}
	return fmt.Sprintf("schedule %q: %v", w.Key, w.Err)
}

func (w ParseWarning) Unwrap() error { return w.Err }

type Warnings []ParseWarning

// Err folds the warnings into a single error, or nil when there are none.
func (ws Warnings) Err() error {
	var merr *multierror.Error
	for _, w := range ws {
		merr = multierror.Append(merr, w)
	}
	return merr.ErrorOrNil()
}
