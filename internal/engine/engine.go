package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/evaluator"
	"github.com/pablobm/calculate/internal/formula"
	"github.com/pablobm/calculate/internal/trace"
)

// sharedEvaluator backs engines created without WithEvaluator.
var sharedEvaluator = sync.OnceValue(func() formula.Evaluator {
	return evaluator.New()
})

// Engine keeps one formula's results current across a set of bases.
//
// An Engine is not safe for concurrent use. The document it is bound to
// dispatches change events synchronously on the caller's goroutine, and
// all recomputes happen there.
type Engine struct {
	id       string
	host     Host
	bases    []*dom.Node
	cfg      Config
	eval     formula.Evaluator
	compiler *formula.Compiler
	idGen    IDGenerator
	clock    Sequencer
	recorder trace.Recorder
	onError  func(error)
	logger   *slog.Logger

	source     Source
	bound      []*formula.Formula // per base, as compiled at bind time
	cache      map[string]*formula.Formula
	binding    *Binding
	recomputes int
}

// Option configures an Engine.
type Option func(*Engine)

// WithValueParser overrides the value parser for this engine only.
// A nil parser keeps the default.
func WithValueParser(p ValueParser) Option {
	return func(e *Engine) {
		if p != nil {
			e.cfg.ValueParser = p
		}
	}
}

// WithResultFormatter overrides the result formatter for this engine only.
// A nil formatter keeps the default.
func WithResultFormatter(f ResultFormatter) Option {
	return func(e *Engine) {
		if f != nil {
			e.cfg.ResultFormatter = f
		}
	}
}

// WithConfig overrides every hook c sets.
func WithConfig(c Config) Option {
	return func(e *Engine) {
		e.cfg = c.withFallback(e.cfg)
	}
}

// WithEvaluator sets the expression evaluator formulas compile against.
func WithEvaluator(ev formula.Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithIDGenerator sets where the engine ID comes from.
// Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.idGen = g }
}

// WithClock sets the sequencer stamping recorded events. Share one clock
// between engines to order their events globally.
func WithClock(c Sequencer) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRecorder records every successful recompute.
func WithRecorder(r trace.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithErrorHandler receives failures that have no caller to return to:
// recomputes triggered by change events and trace recording errors.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

// New creates an engine over bases in host. Library defaults are
// snapshotted here. The engine has no formula until Formula is called.
func New(host Host, bases []*dom.Node, opts ...Option) *Engine {
	e := &Engine{
		host:   host,
		bases:  slices.Clone(bases),
		cfg:    Defaults(),
		idGen:  UUIDv7Generator{},
		clock:  NewClock(),
		logger: slog.Default(),
		cache:  make(map[string]*formula.Formula),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.eval == nil {
		e.eval = sharedEvaluator()
	}
	e.compiler = formula.NewCompiler(e.eval)
	e.binding = NewBinding(host)
	e.id = e.idGen.Generate()
	e.logger = e.logger.With("engine_id", e.id)
	return e
}

// Calculate creates an engine over bases and binds src. The engine is
// returned even when err is non-nil: a Run failure leaves it bound, and the
// caller may still want to Close it or inspect it.
func Calculate(host Host, bases []*dom.Node, src Source, opts ...Option) (*Engine, error) {
	e := New(host, bases, opts...)
	return e, e.Formula(src)
}

// Setup creates an engine over bases and hands it to setup for
// configuration, typically a call to Formula.
func Setup(host Host, bases []*dom.Node, setup func(*Engine) error, opts ...Option) (*Engine, error) {
	e := New(host, bases, opts...)
	if setup == nil {
		return e, nil
	}
	return e, setup(e)
}

// ID returns the engine ID.
func (e *Engine) ID() string { return e.id }

// Bases returns the base elements in construction order.
func (e *Engine) Bases() []*dom.Node { return slices.Clone(e.bases) }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Source returns the bound formula source, or the zero Source.
func (e *Engine) Source() Source { return e.source }

// Formulas returns the formula bound to each base, or nil before the first
// successful Formula call.
func (e *Engine) Formulas() []*formula.Formula { return slices.Clone(e.bound) }

// Subscriptions returns the number of live change subscriptions.
func (e *Engine) Subscriptions() int { return e.binding.Len() }

// SubscribedNodes returns the elements the engine listens to.
func (e *Engine) SubscribedNodes() []*dom.Node { return e.binding.Nodes() }

// State returns the binding state.
func (e *Engine) State() BindingState { return e.binding.State() }

// Recomputes returns how many results the engine has written.
func (e *Engine) Recomputes() int { return e.recomputes }

// FormulaText binds a literal formula.
func (e *Engine) FormulaText(text string) error {
	return e.Formula(Literal(text))
}

// Formula binds src, replacing any previous formula, and runs it.
//
// Everything that can fail before the swap is done first: compiling the
// formula for every base and resolving every subscription target. If that
// fails the previous formula and its subscriptions stay in place. Once bound,
// the immediate run's per-base errors are returned joined.
func (e *Engine) Formula(src Source) error {
	if src.IsZero() {
		return ErrNoFormula
	}
	var static *formula.Formula
	if !src.IsDynamic() {
		f, err := e.compile(src.Text(nil))
		if err != nil {
			return err
		}
		static = f
	}

	formulas := make([]*formula.Formula, len(e.bases))
	targets := make([]Target, len(e.bases))
	for i, base := range e.bases {
		f := static
		if f == nil {
			var err error
			if f, err = e.compile(src.Text(base)); err != nil {
				return fmt.Errorf("base %d: %w", i, err)
			}
		}
		formulas[i] = f
		targets[i] = Target{Base: base, Formula: f, OnChange: e.changeHandler(i)}
	}

	if err := e.binding.Rebind(targets...); err != nil {
		return err
	}
	e.source = src
	e.bound = formulas
	e.logger.Info("formula bound",
		"bases", len(e.bases),
		"dynamic", src.IsDynamic(),
		"subscriptions", e.binding.Len(),
	)
	return e.run(trace.TriggerFormula)
}

// Run recomputes every base. Failing bases are skipped and reported
// together; the others are still written.
func (e *Engine) Run() error {
	return e.run(trace.TriggerRun)
}

// Close removes every subscription the engine installed and returns how
// many there were. The engine can still Run or take a new Formula.
func (e *Engine) Close() int {
	n := e.binding.UnbindAll()
	e.logger.Debug("engine closed", "removed", n)
	return n
}

func (e *Engine) run(trigger trace.Trigger) error {
	if e.bound == nil {
		return ErrNoFormula
	}
	var errs []error
	for i := range e.bases {
		if err := e.recompute(i, trigger); err != nil {
			errs = append(errs, fmt.Errorf("base %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) changeHandler(i int) func() {
	return func() {
		if err := e.recompute(i, trace.TriggerChange); err != nil {
			e.fail(fmt.Errorf("base %d: %w", i, err))
		}
	}
}

// recompute evaluates base i and writes the result. Nothing is written
// unless every operand resolves and the evaluation succeeds.
func (e *Engine) recompute(i int, trigger trace.Trigger) error {
	base := e.bases[i]
	f, err := e.formulaFor(i)
	if err != nil {
		return err
	}
	env, err := Resolve(e.host, base, f.Reads(), e.cfg.ValueParser)
	if err != nil {
		return err
	}
	result, err := f.Evaluate(env)
	if err != nil {
		return err
	}
	targets, err := e.host.Find(base, f.ResultSelector())
	if err != nil {
		return fmt.Errorf("find result %q: %w", f.ResultSelector(), err)
	}

	text := e.cfg.ResultFormatter(result)
	for _, n := range targets {
		e.host.SetValue(n, text)
	}
	e.recomputes++
	e.record(i, trigger, f, env, text)
	e.logger.Debug("recomputed",
		"base_index", i,
		"result_selector", f.ResultSelector(),
		"trigger", string(trigger),
		"result", text,
		"targets", len(targets),
	)

	for _, n := range targets {
		e.host.Notify(n, dom.ChangeEvent)
	}
	return nil
}

// formulaFor returns the formula to evaluate for base i. Literal sources
// reuse the bind-time formula; dynamic ones are asked again.
func (e *Engine) formulaFor(i int) (*formula.Formula, error) {
	if !e.source.IsDynamic() {
		return e.bound[i], nil
	}
	return e.compile(e.source.Text(e.bases[i]))
}

func (e *Engine) compile(text string) (*formula.Formula, error) {
	if f, ok := e.cache[text]; ok {
		return f, nil
	}
	f, err := e.compiler.Compile(text)
	if err != nil {
		return nil, err
	}
	e.cache[text] = f
	return f, nil
}

func (e *Engine) record(i int, trigger trace.Trigger, f *formula.Formula, env map[string]float64, result string) {
	if e.recorder == nil {
		return
	}
	reads := f.Reads()
	inputs := make(map[string]string, len(reads))
	for _, op := range reads {
		inputs[op.Selector] = FormatNumber(env[op.Var])
	}
	ev, err := trace.Stamp(trace.Event{
		Seq:            e.clock.Next(),
		Engine:         e.id,
		Base:           i,
		Trigger:        trigger,
		Formula:        f.Raw(),
		ResultSelector: f.ResultSelector(),
		Expression:     f.Expression(),
		Inputs:         inputs,
		Result:         result,
	})
	if err == nil {
		err = e.recorder.Record(ev)
	}
	if err != nil {
		e.fail(fmt.Errorf("record recompute of base %d: %w", i, err))
	}
}

func (e *Engine) fail(err error) {
	e.logger.Error("recompute failed", "error", err)
	if e.onError != nil {
		e.onError(err)
	}
}
