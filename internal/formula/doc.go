// Package formula compiles templated equations such as
//
//	{{.total}} = {{.base}} - {{.diff}}
//
// into a Formula: a result selector, a table of operand selectors bound to
// synthetic variable names, and a compiled right-hand expression.
//
// Placeholders are {{selector}} tokens. Each distinct selector is assigned one
// variable name (X0, X1, ...) per compile pass, so the same selector used twice
// maps to the same variable. Names come from a Namer owned by the Compiler,
// never from process-wide state.
//
// The arithmetic itself is delegated to an Evaluator. This package only knows
// that an Evaluator turns expression text into an Expression that can be
// evaluated against a variable environment.
package formula
