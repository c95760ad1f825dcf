package evaluator

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
)

// SyntaxError reports expression text the parser rejected.
type SyntaxError struct {
	Text    string
	Line    int // 1-based; 0 if unknown
	Column  int // 1-based; 0 if unknown
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("expression syntax error at %d:%d: %s (expression=%q)", e.Line, e.Column, e.Message, e.Text)
	}
	return fmt.Sprintf("expression syntax error: %s (expression=%q)", e.Message, e.Text)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// EvaluationError reports an expression that parsed but could not produce a
// number: division by zero, an unbound variable, a non-numeric result.
type EvaluationError struct {
	Expression string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %q: %s", e.Expression, e.Message)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// IsSyntaxError returns true if err is, or wraps, a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsEvaluationError returns true if err is, or wraps, an EvaluationError.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

// newSyntaxError extracts the first position from a CUE parse error.
func newSyntaxError(text string, err error) *SyntaxError {
	se := &SyntaxError{Text: text, Message: err.Error(), Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return se
	}
	first := errs[0]
	se.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		se.Line = positions[0].Line()
		se.Column = positions[0].Column()
	}
	return se
}

func newEvaluationError(expr string, err error) *EvaluationError {
	msg := err.Error()
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		msg = errs[0].Error()
	}
	return &EvaluationError{Expression: expr, Message: msg, Err: err}
}
