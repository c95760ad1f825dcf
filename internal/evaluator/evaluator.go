package evaluator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/parser"

	"github.com/pablobm/calculate/internal/formula"
)

// filename labels positions in parse and evaluation errors.
const filename = "formula"

// variablePattern matches the synthetic names produced by formula.Namer.
var variablePattern = regexp.MustCompile(`^` + formula.VarPrefix + `[0-9]+$`)

// Evaluator compiles expressions into Programs sharing one CUE context.
//
// Thread-safety: evaluation is serialized on an internal mutex, so an
// Evaluator and its Programs may be shared between engines.
type Evaluator struct {
	mu  sync.Mutex
	ctx *cue.Context
}

// New creates an Evaluator with a fresh CUE context.
func New() *Evaluator {
	return &Evaluator{ctx: cuecontext.New()}
}

// Parse parses expression text into a CUE syntax tree.
// Rejected text returns *SyntaxError.
func Parse(text string) (ast.Expr, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SyntaxError{Text: text, Message: "empty expression"}
	}
	expr, err := parser.ParseExpr(filename, text)
	if err != nil {
		return nil, newSyntaxError(text, err)
	}
	return expr, nil
}

// Compile parses text and returns a Program bound to this Evaluator.
// It implements formula.Evaluator.
func (e *Evaluator) Compile(text string) (formula.Expression, error) {
	p, err := e.CompileProgram(text)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CompileProgram is Compile with the concrete return type.
func (e *Evaluator) CompileProgram(text string) (*Program, error) {
	expr, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &Program{
		eval: e,
		text: text,
		vars: variables(expr),
	}, nil
}

// Program is a parsed expression ready for repeated evaluation.
type Program struct {
	eval *Evaluator
	text string
	vars []string
}

// String returns the expression text.
func (p *Program) String() string { return p.text }

// Vars returns the synthetic variables referenced by the expression, sorted.
func (p *Program) Vars() []string {
	out := make([]string, len(p.vars))
	copy(out, p.vars)
	return out
}

// Evaluate computes the expression with env as the variable scope.
// Failures return *EvaluationError.
func (p *Program) Evaluate(env map[string]float64) (float64, error) {
	p.eval.mu.Lock()
	defer p.eval.mu.Unlock()

	ctx := p.eval.ctx
	scope := ctx.Encode(env)
	if err := scope.Err(); err != nil {
		return 0, newEvaluationError(p.text, err)
	}

	v := ctx.CompileString(p.text, cue.Scope(scope), cue.Filename(filename))
	if err := v.Err(); err != nil {
		return 0, newEvaluationError(p.text, err)
	}

	switch k := v.Kind(); k {
	case cue.IntKind, cue.FloatKind:
	default:
		return 0, &EvaluationError{
			Expression: p.text,
			Message:    fmt.Sprintf("result is %v, not a number", v.IncompleteKind()),
		}
	}

	result, err := v.Float64()
	if err != nil {
		return 0, newEvaluationError(p.text, err)
	}
	return result, nil
}

// variables collects identifiers that look like substituted operands.
func variables(expr ast.Expr) []string {
	seen := make(map[string]bool)
	ast.Walk(expr, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && variablePattern.MatchString(id.Name) {
			seen[id.Name] = true
		}
		return true
	}, nil)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
