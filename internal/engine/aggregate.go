package engine

import (
	"fmt"
	"math"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/formula"
)

// Resolve builds the variable environment for one base: each operand's
// variable is bound to the sum of the parsed values of every element its
// selector matches inside base. A selector matching nothing contributes 0.
//
// The first value the parser rejects aborts resolution with a
// *ValueParseError.
func Resolve(host Host, base *dom.Node, operands []formula.Operand, parse ValueParser) (map[string]float64, error) {
	env := make(map[string]float64, len(operands))
	for _, op := range operands {
		sum, err := Sum(host, base, op.Selector, parse)
		if err != nil {
			return nil, err
		}
		env[op.Var] = sum
	}
	return env, nil
}

// Sum returns the total of the parsed values of the elements selector
// matches inside base. A parser result that is NaN or infinite is rejected
// with ErrNotANumber.
func Sum(host Host, base *dom.Node, selector string, parse ValueParser) (float64, error) {
	nodes, err := host.Find(base, selector)
	if err != nil {
		return 0, fmt.Errorf("resolve operand %q: %w", selector, err)
	}
	var sum float64
	for _, n := range nodes {
		raw := host.Value(n)
		v, err := parse(raw)
		if err != nil {
			return 0, &ValueParseError{Selector: selector, Element: n, Raw: raw, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ValueParseError{Selector: selector, Element: n, Raw: raw, Err: ErrNotANumber}
		}
		sum += v
	}
	return sum, nil
}
