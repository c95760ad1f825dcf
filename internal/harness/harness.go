package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/engine"
	"github.com/pablobm/calculate/internal/store"
	"github.com/pablobm/calculate/internal/testutil"
	"github.com/pablobm/calculate/internal/trace"
)

// Harness holds the state of one scenario run.
type Harness struct {
	doc     *dom.Document
	store   *store.Store
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
	engines map[string]*engine.Engine

	// live sees every event the engines record, alongside the journal.
	live *trace.Buffer

	// handlerErrs collects change-handler failures per calculation.
	handlerErrs map[string][]error
}

// Run executes a scenario and returns its result.
//
// Each run gets a fresh document and a fresh in-memory journal. Failed
// expectations and assertions are reported in the Result; the returned
// error is for scenarios that cannot run at all, such as a bases selector
// that does not parse.
func Run(scenario *Scenario) (*Result, error) {
	doc, err := dom.ParseString(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		doc:         doc,
		store:       st,
		clock:       testutil.NewDeterministicClock(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		engines:     make(map[string]*engine.Engine),
		live:        trace.NewBuffer(),
		handlerErrs: make(map[string][]error),
	}

	ctx := context.Background()
	result := NewResult()

	for _, c := range scenario.Calculations {
		if err := h.bind(ctx, c, result); err != nil {
			return nil, fmt.Errorf("calculation %q: %w", c.ID, err)
		}
	}

	for i, step := range scenario.Steps {
		if err := h.step(step, i, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	events, err := st.ReadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = events
	if msg := checkJournal(h.live.Events(), events); msg != "" {
		result.AddError(msg)
	}

	for _, msg := range EvaluateAssertions(h, result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// Document returns the document the scenario ran against.
func (h *Harness) Document() *dom.Document { return h.doc }

// Engine returns the engine of a calculation.
func (h *Harness) Engine(id string) (*engine.Engine, bool) {
	e, ok := h.engines[id]
	return e, ok
}

func (h *Harness) bind(ctx context.Context, c Calculation, result *Result) error {
	parser, err := engine.ParserByName(c.Parser)
	if err != nil {
		return err
	}
	formatter, err := engine.FormatterByName(c.Formatter)
	if err != nil {
		return err
	}
	bases, err := h.doc.Find(nil, c.Bases)
	if err != nil {
		return fmt.Errorf("bases: %w", err)
	}

	id := c.ID
	e, err := engine.Calculate(h.doc, bases, h.source(c.Formula, c.Cases),
		engine.WithValueParser(parser),
		engine.WithResultFormatter(formatter),
		engine.WithIDGenerator(testutil.Fixed(id)),
		engine.WithClock(h.clock),
		engine.WithRecorder(trace.Tee(h.live, h.store.Journal(ctx))),
		engine.WithLogger(h.logger),
		engine.WithErrorHandler(func(err error) {
			h.handlerErrs[id] = append(h.handlerErrs[id], err)
		}),
	)
	h.engines[id] = e
	expect(result, fmt.Sprintf("calculation %q", id), c.Error, err)
	return nil
}

// checkJournal compares the events read back from the journal with the ones
// the engines emitted. It returns "" when they agree.
func checkJournal(live, journal []trace.Event) string {
	if len(live) != len(journal) {
		return fmt.Sprintf("journal holds %d event(s), engines recorded %d", len(journal), len(live))
	}
	for i := range live {
		if live[i].ID != journal[i].ID {
			return fmt.Sprintf("journal event %d is %s, engines recorded %s", i, journal[i].ID, live[i].ID)
		}
	}
	return ""
}

// source builds an engine source from a literal formula or from cases.
func (h *Harness) source(text string, cases []FormulaCase) engine.Source {
	if len(cases) == 0 {
		return engine.Literal(text)
	}
	return engine.Dynamic(func(base *dom.Node) string {
		for _, c := range cases {
			if c.When == "" {
				return c.Formula
			}
			if nodes, err := h.doc.Find(base, c.When); err == nil && len(nodes) > 0 {
				return c.Formula
			}
		}
		return ""
	})
}

func (h *Harness) step(step Step, i int, result *Result) error {
	what := fmt.Sprintf("step %d", i)
	switch {
	case step.Set != nil:
		nodes, err := h.targets(step.Set.Selector)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			h.doc.SetValue(n, step.Set.Value)
			h.doc.Notify(n, dom.ChangeEvent)
		}
	case step.Check != nil:
		nodes, err := h.targets(step.Check.Selector)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			n.SetChecked(step.Check.Checked)
			h.doc.Notify(n, dom.ChangeEvent)
		}
	case step.Run != "":
		expect(result, what, step.Error, h.engines[step.Run].Run())
	case step.Formula != nil:
		e := h.engines[step.Formula.Calculation]
		expect(result, what, step.Error, e.Formula(h.source(step.Formula.Formula, step.Formula.Cases)))
	case step.Close != "":
		h.engines[step.Close].Close()
	}
	return nil
}

// targets resolves a step selector against the whole document. A step that
// touches nothing is a broken scenario.
func (h *Harness) targets(selector string) ([]*dom.Node, error) {
	nodes, err := h.doc.Find(nil, selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("selector %q matches nothing", selector)
	}
	return nodes, nil
}

// expect compares an operation's error against the declared kind.
func expect(result *Result, what, kind string, err error) {
	switch {
	case kind == "" && err != nil:
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", what, err))
	case kind != "" && err == nil:
		result.AddError(fmt.Sprintf("%s: expected %s error, got none", what, kind))
	case kind != "" && !HasKind(err, kind):
		result.AddError(fmt.Sprintf("%s: expected %s error, got: %v", what, kind, err))
	}
}
