package dom

import (
	"errors"
	"fmt"
)

// SelectorError reports a selector that could not be compiled.
type SelectorError struct {
	Selector string
	Err      error
}

// Error implements the error interface.
func (e *SelectorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid selector %q", e.Selector)
	}
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

// Unwrap returns the parser error.
func (e *SelectorError) Unwrap() error { return e.Err }

// IsSelectorError returns true if err is, or wraps, a SelectorError.
func IsSelectorError(err error) bool {
	var se *SelectorError
	return errors.As(err, &se)
}
