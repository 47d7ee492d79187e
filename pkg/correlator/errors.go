package correlator

import (
	"errors"
	"fmt"
)

var (
	// ErrLookup is matched by errors for events that reference a source with
	// no stored document.
	ErrLookup = errors.New("document lookup failed")
	// ErrResolution is matched by errors for positions that cannot be
	// resolved to a declared scenario, step, hook or example row.
	ErrResolution = errors.New("position resolution failed")
)

type LookupError struct {
	URI string
}

func (e *LookupError) Error() string {
	if e.URI == "" {
		return "no gherkin document has been parsed"
	}
	return fmt.Sprintf("no gherkin document for %q", e.URI)
}

func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

type ResolutionError struct {
	URI    string
	Line   int64
	Index  int
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s:%d (step %d): %s", e.URI, e.Line, e.Index, e.Reason)
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}
