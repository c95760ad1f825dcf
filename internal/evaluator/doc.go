// Package evaluator implements the arithmetic expression evaluator used by
// compiled formulas.
//
// Expressions are CUE expressions. Substituted operands (X0, X1, ...) are
// resolved against a scope built from the variable environment, so the usual
// CUE number operators apply: + - * / with decimal arithmetic, unary minus,
// parentheses, and the div/mod/quo/rem builtins. Decimal arithmetic means
// 12.2 - 5.1 evaluates to exactly 7.1.
package evaluator
