package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand_Text(t *testing.T) {
	out, _, err := execute(t, "compile", subtraction)
	require.NoError(t, err)

	assert.Contains(t, out, "Result:     .total -> X0")
	assert.Contains(t, out, "Expression: X1 - X2")
	assert.Contains(t, out, "Operands:   .base -> X1, .diff -> X2")
}

func TestCompileCommand_SharedNamer(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "compile", "{{.a}} = {{.b}}", "{{.c}} = {{.b}} * 2")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Formulas, 2)
	assert.Equal(t, "X1", resp.Data.Formulas[0].Expression)
	assert.Equal(t, "X3 * 2", resp.Data.Formulas[1].Expression)
	assert.Equal(t, "X2", resp.Data.Formulas[1].ResultVar)
}

func TestCompileCommand_SelfReference(t *testing.T) {
	out, _, err := execute(t, "compile", "{{.n}} = {{.n}} + {{.step}}")
	require.NoError(t, err)
	assert.Contains(t, out, "Operands:   .step -> X1")
	assert.Contains(t, out, "not subscribed")
}

func TestCompileCommand_Malformed(t *testing.T) {
	out, _, err := execute(t, "compile", "{{.a}} {{.b}}")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestCompileCommand_SyntaxJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "compile", "{{.a}} = {{.b}} +")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
}

func TestCompileCommand_MissingArgs(t *testing.T) {
	_, _, err := execute(t, "compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
