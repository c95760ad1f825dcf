package formula

import (
	"strings"
)

// Formula is a compiled equation. It is immutable: replacing a formula means
// compiling a new one.
type Formula struct {
	raw        string
	result     Operand
	table      []Operand
	reads      []Operand
	expression string
	compiled   Expression
}

// Raw returns the formula text as given to Compile.
func (f *Formula) Raw() string { return f.raw }

// ResultSelector returns the selector of the left-hand placeholder.
func (f *Formula) ResultSelector() string { return f.result.Selector }

// Result returns the result selector together with its variable name.
func (f *Formula) Result() Operand { return f.result }

// Expression returns the substituted right-hand side.
func (f *Formula) Expression() string { return f.expression }

// Compiled returns the evaluator's handle for the right-hand side.
func (f *Formula) Compiled() Expression { return f.compiled }

// Table returns every selector -> variable assignment made while compiling,
// including the result selector, in first-occurrence order.
func (f *Formula) Table() []Operand {
	return cloneOperands(f.table)
}

// Operands returns the input operands: right-hand selectors other than the
// result selector. These are the selectors that drive recomputation.
func (f *Formula) Operands() []Operand {
	out := make([]Operand, 0, len(f.reads))
	for _, op := range f.reads {
		if op.Selector != f.result.Selector {
			out = append(out, op)
		}
	}
	return out
}

// Reads returns every operand the expression reads, in first-occurrence
// order. It differs from Operands only when the result selector also appears
// on the right-hand side.
func (f *Formula) Reads() []Operand {
	return cloneOperands(f.reads)
}

// SelfReferential reports whether the right-hand side reads the result
// selector.
func (f *Formula) SelfReferential() bool {
	for _, op := range f.reads {
		if op.Selector == f.result.Selector {
			return true
		}
	}
	return false
}

// Evaluate runs the compiled expression against env.
func (f *Formula) Evaluate(env map[string]float64) (float64, error) {
	return f.compiled.Evaluate(env)
}

// Compiler turns formula text into Formulas. Variable names are unique across
// every formula one Compiler produces.
type Compiler struct {
	namer *Namer
	eval  Evaluator
}

// NewCompiler creates a Compiler that hands right-hand expressions to eval.
func NewCompiler(eval Evaluator) *Compiler {
	return &Compiler{
		namer: NewNamer(),
		eval:  eval,
	}
}

// Compile parses raw into a Formula.
//
// The formula is split on its first '=' outside any placeholder. Both sides
// are substituted in one pass, so a selector used on both sides keeps a
// single variable. The left side must be exactly one placeholder.
//
// Shape problems return *MalformedFormulaError. Errors from the evaluator are
// returned unchanged.
func (c *Compiler) Compile(raw string) (*Formula, error) {
	left, right, ok := splitAssignment(raw)
	if !ok {
		return nil, malformed(ErrCodeNoAssignment, raw, "formula has no '=' outside placeholders")
	}

	sub := NewSubstitution(c.namer)

	lhs, targets := sub.Rewrite(left)
	switch {
	case len(targets) == 0:
		return nil, malformed(ErrCodeNoResult, raw, "left side has no {{selector}} placeholder")
	case len(targets) > 1:
		return nil, malformed(ErrCodeMultipleResults, raw, "left side has %d placeholders, want exactly 1", len(targets))
	}
	resultVar, _ := sub.Lookup(targets[0])
	if strings.TrimSpace(lhs) != resultVar {
		return nil, malformed(ErrCodeUnexpectedText, raw, "left side must contain only the result placeholder")
	}

	rhs, used := sub.Rewrite(right)
	expression := strings.TrimSpace(rhs)

	compiled, err := c.eval.Compile(expression)
	if err != nil {
		return nil, err
	}

	return &Formula{
		raw:        raw,
		result:     Operand{Selector: targets[0], Var: resultVar},
		table:      sub.Operands(),
		reads:      distinct(sub, used),
		expression: expression,
		compiled:   compiled,
	}, nil
}

// splitAssignment splits raw on the first '=' that is not inside a
// placeholder. Both halves are trimmed.
func splitAssignment(raw string) (left, right string, ok bool) {
	for i := 0; i < len(raw); i++ {
		if strings.HasPrefix(raw[i:], "{{") {
			if loc := placeholderPattern.FindStringIndex(raw[i:]); loc != nil && loc[0] == 0 {
				i += loc[1] - 1
				continue
			}
		}
		if raw[i] == '=' {
			return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:]), true
		}
	}
	return "", "", false
}

func distinct(sub *Substitution, selectors []string) []Operand {
	seen := make(map[string]bool, len(selectors))
	var out []Operand
	for _, sel := range selectors {
		if seen[sel] {
			continue
		}
		seen[sel] = true
		v, _ := sub.Lookup(sel)
		out = append(out, Operand{Selector: sel, Var: v})
	}
	return out
}

func cloneOperands(ops []Operand) []Operand {
	out := make([]Operand, len(ops))
	copy(out, ops)
	return out
}
