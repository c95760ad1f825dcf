package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pablobm/calculate/internal/evaluator"
	"github.com/pablobm/calculate/internal/formula"
)

// CompiledFormula describes one compiled formula.
type CompiledFormula struct {
	Formula        string            `json:"formula"`
	ResultSelector string            `json:"result_selector"`
	ResultVar      string            `json:"result_var"`
	Expression     string            `json:"expression"`
	Operands       []formula.Operand `json:"operands"`
	SelfReferences bool              `json:"self_references,omitempty"`
}

// CompilationResult holds every formula compiled by one command.
type CompilationResult struct {
	Formulas []CompiledFormula `json:"formulas"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <formula>...",
		Short: "Compile formulas and show their variables",
		Long: `Compile one or more formulas and print the result selector, the
operand table and the substituted expression.

All formulas share one compiler, so variable names keep counting up
across arguments exactly as they do inside one engine.

Examples:
  calculate compile "{{.total}} = {{.base}} - {{.diff}}"
  calculate compile --format json "{{.sum}} = {{.a}} + {{.b}}"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCompile(opts *RootOptions, formulas []string, cmd *cobra.Command) error {
	out := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	compiler := formula.NewCompiler(evaluator.New())

	result := CompilationResult{Formulas: make([]CompiledFormula, 0, len(formulas))}
	for _, raw := range formulas {
		out.VerboseLog("Compiling %q", raw)
		f, err := compiler.Compile(raw)
		if err != nil {
			return out.Fail(ExitCommandError, fmt.Sprintf("compile %q", raw), err)
		}
		result.Formulas = append(result.Formulas, CompiledFormula{
			Formula:        f.Raw(),
			ResultSelector: f.ResultSelector(),
			ResultVar:      f.Result().Var,
			Expression:     f.Expression(),
			Operands:       f.Operands(),
			SelfReferences: f.SelfReferential(),
		})
	}

	if out.Format == "json" {
		return out.Success(result)
	}
	return outputCompileText(out, result)
}

func outputCompileText(out *OutputFormatter, result CompilationResult) error {
	w := out.Writer
	for i, f := range result.Formulas {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Formula:    %s\n", f.Formula)
		fmt.Fprintf(w, "Result:     %s -> %s\n", f.ResultSelector, f.ResultVar)
		fmt.Fprintf(w, "Expression: %s\n", f.Expression)
		if len(f.Operands) == 0 {
			fmt.Fprintln(w, "Operands:   (none)")
		} else {
			parts := make([]string, len(f.Operands))
			for j, op := range f.Operands {
				parts[j] = fmt.Sprintf("%s -> %s", op.Selector, op.Var)
			}
			fmt.Fprintf(w, "Operands:   %s\n", strings.Join(parts, ", "))
		}
		if f.SelfReferences {
			fmt.Fprintln(w, "Note:       result selector is also read; it is not subscribed")
		}
	}
	return nil
}
