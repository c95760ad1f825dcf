package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablobm/calculate/internal/formula"
)

var _ formula.Evaluator = (*Evaluator)(nil)

func evaluate(t *testing.T, text string, env map[string]float64) (float64, error) {
	t.Helper()
	p, err := New().CompileProgram(text)
	require.NoError(t, err)
	return p.Evaluate(env)
}

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		text string
		env  map[string]float64
		want float64
	}{
		{"subtraction is decimal", "X0 - X1", map[string]float64{"X0": 12.2, "X1": 5.1}, 7.1},
		{"addition is decimal", "X0 + X1", map[string]float64{"X0": 0.1, "X1": 0.2}, 0.3},
		{"multiplication", "X0 * X1", map[string]float64{"X0": 15.8, "X1": 4}, 63.2},
		{"division yields fraction", "X0 / X1", map[string]float64{"X0": 7, "X1": 2}, 3.5},
		{"precedence", "X0 + X1 * X2", map[string]float64{"X0": 1, "X1": 2, "X2": 3}, 7},
		{"parentheses", "(X0 + X1) * X2", map[string]float64{"X0": 1, "X1": 2, "X2": 3}, 9},
		{"unary minus", "-X0 + 1", map[string]float64{"X0": 6}, -5},
		{"literal only", "42", nil, 42},
		{"single variable", "X0", map[string]float64{"X0": 12.2}, 12.2},
		{"unused variables are fine", "X0", map[string]float64{"X0": 1, "X9": 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluate(t, tt.text, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProgram_Reusable(t *testing.T) {
	p, err := New().CompileProgram("X0 - X1")
	require.NoError(t, err)

	first, err := p.Evaluate(map[string]float64{"X0": 12.2, "X1": 5.1})
	require.NoError(t, err)
	second, err := p.Evaluate(map[string]float64{"X0": 12.2, "X1": 4.1})
	require.NoError(t, err)
	again, err := p.Evaluate(map[string]float64{"X0": 12.2, "X1": 5.1})
	require.NoError(t, err)

	assert.Equal(t, 7.1, first)
	assert.Equal(t, 8.1, second)
	assert.Equal(t, first, again)
}

func TestProgram_Vars(t *testing.T) {
	p, err := New().CompileProgram("(X3 + X1) * X3 - 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"X1", "X3"}, p.Vars())
	assert.Equal(t, "(X3 + X1) * X3 - 2", p.String())
}

func TestCompile_SyntaxErrors(t *testing.T) {
	texts := []string{
		"X0 +",
		"(X0 - X1",
		"X0 ) X1",
		"",
		"   ",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			expr, err := New().Compile(text)
			require.Error(t, err)
			assert.Nil(t, expr)
			assert.True(t, IsSyntaxError(err))

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, text, se.Text)
			assert.NotEmpty(t, se.Message)
		})
	}
}

func TestSyntaxError_Position(t *testing.T) {
	_, err := Parse("X0 + ")
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)
	assert.Contains(t, se.Error(), "expression syntax error at 1:")
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		env  map[string]float64
	}{
		{"division by zero", "X0 / X1", map[string]float64{"X0": 1, "X1": 0}},
		{"unbound variable", "X0 + X1", map[string]float64{"X0": 1}},
		{"boolean result", "X0 > 1", map[string]float64{"X0": 2}},
		{"string result", `"total"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evaluate(t, tt.text, tt.env)
			require.Error(t, err)
			assert.True(t, IsEvaluationError(err))
			assert.False(t, IsSyntaxError(err))
		})
	}
}

func TestEvaluator_WithFormulaCompiler(t *testing.T) {
	c := formula.NewCompiler(New())

	f, err := c.Compile("{{.total}} = {{.base}} - {{.diff}}")
	require.NoError(t, err)

	env := map[string]float64{}
	values := map[string]float64{".base": 12.2, ".diff": 5.1}
	for _, op := range f.Operands() {
		env[op.Var] = values[op.Selector]
	}

	got, err := f.Evaluate(env)
	require.NoError(t, err)
	assert.Equal(t, 7.1, got)
}

func TestEvaluator_SyntaxErrorPassesThroughCompiler(t *testing.T) {
	c := formula.NewCompiler(New())

	_, err := c.Compile("{{.total}} = {{.base}} -")
	require.Error(t, err)
	assert.True(t, IsSyntaxError(err))
	assert.False(t, formula.IsMalformed(err))
}
