package formula

// Evaluator compiles expression text into a reusable Expression.
//
// Implementations report malformed text with their own syntax error type;
// the Compiler passes such errors through unchanged.
type Evaluator interface {
	Compile(text string) (Expression, error)
}

// Expression is a compiled arithmetic expression over named variables.
type Expression interface {
	// Evaluate computes the expression with the given variable values.
	Evaluate(env map[string]float64) (float64, error)

	// String returns the expression text.
	String() string
}
