package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/engine"
	"github.com/pablobm/calculate/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	HTML      string   // document path, "-" for stdin
	Bases     string   // bases selector
	Formula   string   // literal formula
	Sets      []string // selector=value edits applied after binding
	Parser    string   // engine.ParserByName
	Formatter string   // engine.FormatterByName
	Journal   string   // optional SQLite journal path
}

// BaseResult is the state of one base after eval.
type BaseResult struct {
	Base           int      `json:"base"`
	ResultSelector string   `json:"result_selector"`
	Values         []string `json:"values"`
}

// EvalResult holds the outcome of an eval run.
type EvalResult struct {
	Engine        string       `json:"engine"`
	Bases         []BaseResult `json:"bases"`
	Subscriptions int          `json:"subscriptions"`
	Recomputes    int          `json:"recomputes"`
	Errors        []string     `json:"errors,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Bind a formula to an HTML document and print the results",
		Long: `Bind a formula to every base matched in an HTML document, run it, then
apply each --set edit in order. Every edit raises a change notification,
so dependent bases recompute exactly as they would in a page.

Exit codes:
  0 - Every recompute succeeded
  1 - A base failed to recompute (results of other bases are still printed)
  2 - Command error (bad formula, missing file, invalid selector, etc.)

Examples:
  calculate eval --html order.html --bases .one --formula "{{.total}} = {{.base}} - {{.diff}}"
  calculate eval --html order.html --bases .one --formula "..." --set ".diff=2" --set ".base=10"
  calculate eval --html - --bases form --formula "..." --parser es --formatter fixed:2
  calculate eval --html order.html --bases .one --formula "..." --journal ./calc.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.HTML, "html", "", "HTML document path, - for stdin (required)")
	_ = cmd.MarkFlagRequired("html")
	cmd.Flags().StringVar(&opts.Bases, "bases", "", "selector matching the base containers (required)")
	_ = cmd.MarkFlagRequired("bases")
	cmd.Flags().StringVar(&opts.Formula, "formula", "", "formula to bind (required)")
	_ = cmd.MarkFlagRequired("formula")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "selector=value edit applied after binding (repeatable)")
	cmd.Flags().StringVar(&opts.Parser, "parser", "number", "value parser (number|es)")
	cmd.Flags().StringVar(&opts.Formatter, "formatter", "plain", "result formatter (plain|fixed:N)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record recomputes in this SQLite database")

	return cmd
}

type edit struct {
	selector string
	value    string
}

func parseEdits(sets []string) ([]edit, error) {
	edits := make([]edit, 0, len(sets))
	for _, s := range sets {
		sel, val, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(sel) == "" {
			return nil, fmt.Errorf("invalid --set %q: want selector=value", s)
		}
		edits = append(edits, edit{selector: strings.TrimSpace(sel), value: val})
	}
	return edits, nil
}

func runEval(opts *EvalOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	parser, err := engine.ParserByName(opts.Parser)
	if err != nil {
		return out.Fail(ExitCommandError, "invalid --parser", err)
	}
	formatter, err := engine.FormatterByName(opts.Formatter)
	if err != nil {
		return out.Fail(ExitCommandError, "invalid --formatter", err)
	}
	edits, err := parseEdits(opts.Sets)
	if err != nil {
		_ = out.Error(ErrCodeInvalidFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --set", err)
	}

	doc, err := loadDocument(opts.HTML, cmd.InOrStdin())
	if err != nil {
		_ = out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}
	bases, err := doc.Find(nil, opts.Bases)
	if err != nil {
		return out.Fail(ExitCommandError, "invalid --bases", err)
	}
	out.VerboseLog("Matched %d base(s) for %s", len(bases), opts.Bases)

	var handlerErrs []error
	engineOpts := []engine.Option{
		engine.WithValueParser(parser),
		engine.WithResultFormatter(formatter),
		engine.WithLogger(opts.Logger(out.GetErrWriter())),
		engine.WithErrorHandler(func(err error) { handlerErrs = append(handlerErrs, err) }),
	}

	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer st.Close()
		last, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		engineOpts = append(engineOpts,
			engine.WithRecorder(st.Journal(ctx)),
			engine.WithClock(engine.NewClockAt(last)),
		)
	}

	e := engine.New(doc, bases, engineOpts...)
	runErr := e.FormulaText(opts.Formula)
	if runErr != nil && e.State() == engine.Unbound {
		return out.Fail(ExitCommandError, "failed to bind formula", runErr)
	}

	for _, ed := range edits {
		nodes, err := doc.Find(nil, ed.selector)
		if err != nil {
			return out.Fail(ExitCommandError, fmt.Sprintf("invalid --set selector %q", ed.selector), err)
		}
		out.VerboseLog("Setting %d element(s) of %s to %q", len(nodes), ed.selector, ed.value)
		for _, n := range nodes {
			doc.SetValue(n, ed.value)
			doc.Notify(n, dom.ChangeEvent)
		}
	}

	result, err := collectEval(doc, e)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}
	failures := append(unjoin(runErr), handlerErrs...)
	for _, f := range failures {
		result.Errors = append(result.Errors, f.Error())
	}

	if out.Format == "json" {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		outputEvalText(out.Writer, result)
	}

	if len(failures) > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%d recompute(s) failed", len(failures)), errors.Join(failures...))
	}
	return nil
}

func loadDocument(path string, stdin io.Reader) (*dom.Document, error) {
	if path == "-" {
		return dom.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	defer f.Close()
	return dom.Parse(f)
}

func collectEval(doc *dom.Document, e *engine.Engine) (EvalResult, error) {
	result := EvalResult{
		Engine:        e.ID(),
		Bases:         []BaseResult{},
		Subscriptions: e.Subscriptions(),
		Recomputes:    e.Recomputes(),
	}
	formulas := e.Formulas()
	for i, base := range e.Bases() {
		sel := formulas[i].ResultSelector()
		nodes, err := doc.Find(base, sel)
		if err != nil {
			return EvalResult{}, err
		}
		br := BaseResult{Base: i, ResultSelector: sel, Values: make([]string, len(nodes))}
		for j, n := range nodes {
			br.Values[j] = doc.Value(n)
		}
		result.Bases = append(result.Bases, br)
	}
	return result, nil
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func outputEvalText(w io.Writer, result EvalResult) {
	if len(result.Bases) == 0 {
		fmt.Fprintln(w, "No bases matched.")
		return
	}
	for _, b := range result.Bases {
		values := strings.Join(b.Values, ", ")
		if len(b.Values) == 0 {
			values = "(no result element)"
		}
		fmt.Fprintf(w, "[%d] %s = %s\n", b.Base, b.ResultSelector, values)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", e)
	}
	fmt.Fprintf(w, "\n%d recompute(s), %d subscription(s)\n", result.Recomputes, result.Subscriptions)
}
