package formula

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes malformed formulas.
type ErrorCode string

const (
	// ErrCodeNoAssignment indicates the formula has no top-level '='.
	ErrCodeNoAssignment ErrorCode = "NO_ASSIGNMENT"

	// ErrCodeNoResult indicates the left side has no placeholder.
	ErrCodeNoResult ErrorCode = "NO_RESULT_PLACEHOLDER"

	// ErrCodeMultipleResults indicates the left side has more than one placeholder.
	ErrCodeMultipleResults ErrorCode = "MULTIPLE_RESULT_PLACEHOLDERS"

	// ErrCodeUnexpectedText indicates the left side has text besides its placeholder.
	ErrCodeUnexpectedText ErrorCode = "UNEXPECTED_RESULT_TEXT"
)

// MalformedFormulaError reports a formula whose shape is invalid. It is
// detected before the right-hand expression reaches the evaluator.
type MalformedFormulaError struct {
	Code    ErrorCode
	Formula string
	Message string
}

// Error implements the error interface.
func (e *MalformedFormulaError) Error() string {
	return fmt.Sprintf("%s: %s (formula=%q)", e.Code, e.Message, e.Formula)
}

// IsMalformed returns true if err is, or wraps, a MalformedFormulaError.
func IsMalformed(err error) bool {
	var me *MalformedFormulaError
	return errors.As(err, &me)
}

func malformed(code ErrorCode, formula, format string, args ...any) *MalformedFormulaError {
	return &MalformedFormulaError{
		Code:    code,
		Formula: formula,
		Message: fmt.Sprintf(format, args...),
	}
}
