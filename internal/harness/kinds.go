package harness

import (
	"errors"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/engine"
	"github.com/pablobm/calculate/internal/evaluator"
	"github.com/pablobm/calculate/internal/formula"
)

// Error kinds scenarios can expect.
const (
	KindMalformed  = "malformed"
	KindSyntax     = "syntax"
	KindEvaluation = "evaluation"
	KindValueParse = "value_parse"
	KindSelector   = "selector"
	KindNoFormula  = "no_formula"
)

// HasKind reports whether err is, or joins, an error of kind.
func HasKind(err error, kind string) bool {
	switch kind {
	case KindMalformed:
		return formula.IsMalformed(err)
	case KindSyntax:
		return evaluator.IsSyntaxError(err)
	case KindEvaluation:
		return evaluator.IsEvaluationError(err)
	case KindValueParse:
		return engine.IsValueParseError(err)
	case KindSelector:
		return dom.IsSelectorError(err)
	case KindNoFormula:
		return errors.Is(err, engine.ErrNoFormula)
	}
	return false
}
