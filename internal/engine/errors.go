package engine

import (
	"errors"
	"fmt"

	"github.com/pablobm/calculate/internal/dom"
)

// ErrNoFormula is returned by Run on an engine that has no formula yet, and
// by Formula when given the zero Source.
var ErrNoFormula = errors.New("engine has no formula")

// ValueParseError reports an operand element whose value the configured
// ValueParser rejected. Only the base it belongs to fails.
type ValueParseError struct {
	// Selector is the operand selector that matched the element.
	Selector string

	// Element is the offending element.
	Element *dom.Node

	// Raw is the element's value as read.
	Raw string

	// Err is the parser's error.
	Err error
}

// Error implements the error interface.
func (e *ValueParseError) Error() string {
	return fmt.Sprintf("parse value %q of %s (selector %q): %v", e.Raw, e.Element, e.Selector, e.Err)
}

// Unwrap returns the parser's error.
func (e *ValueParseError) Unwrap() error { return e.Err }

// IsValueParseError reports whether err is or wraps a ValueParseError.
func IsValueParseError(err error) bool {
	var pe *ValueParseError
	return errors.As(err, &pe)
}
