package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one calculation test.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Document is the HTML the calculations bind to.
	Document string `yaml:"document,omitempty"`

	// DocumentFile loads the HTML from a file, relative to the scenario.
	DocumentFile string `yaml:"document_file,omitempty"`

	// Calculations are bound in declaration order before any step runs.
	Calculations []Calculation `yaml:"calculations"`

	// Steps run in order after every calculation is bound.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final document and trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Calculation declares one engine.
type Calculation struct {
	// ID names the calculation in steps and assertions and becomes the
	// engine ID in the trace.
	ID string `yaml:"id"`

	// Bases selects the base elements.
	Bases string `yaml:"bases"`

	// Formula is a literal formula.
	Formula string `yaml:"formula,omitempty"`

	// Cases choose a formula per base.
	Cases []FormulaCase `yaml:"cases,omitempty"`

	// Parser names the value parser (engine.ParserByName).
	Parser string `yaml:"parser,omitempty"`

	// Formatter names the result formatter (engine.FormatterByName).
	Formatter string `yaml:"formatter,omitempty"`

	// Error is the error kind binding is expected to report.
	Error string `yaml:"error,omitempty"`
}

// FormulaCase is one branch of a per-base formula.
type FormulaCase struct {
	// When is a selector evaluated inside the base. Empty always matches.
	When string `yaml:"when,omitempty"`

	// Formula is used when When matches.
	Formula string `yaml:"formula"`
}

// Step is one action. Exactly one of Set, Check, Run, Formula and Close
// is given.
type Step struct {
	Set     *SetStep     `yaml:"set,omitempty"`
	Check   *CheckStep   `yaml:"check,omitempty"`
	Run     string       `yaml:"run,omitempty"`
	Formula *FormulaStep `yaml:"formula,omitempty"`
	Close   string       `yaml:"close,omitempty"`

	// Error is the error kind the step is expected to report.
	Error string `yaml:"error,omitempty"`
}

// SetStep assigns a value, as a user edit would.
type SetStep struct {
	Selector string `yaml:"selector"`
	Value    string `yaml:"value"`
}

// CheckStep toggles checkboxes.
type CheckStep struct {
	Selector string `yaml:"selector"`
	Checked  bool   `yaml:"checked"`
}

// FormulaStep replaces a calculation's formula.
type FormulaStep struct {
	Calculation string        `yaml:"calculation"`
	Formula     string        `yaml:"formula,omitempty"`
	Cases       []FormulaCase `yaml:"cases,omitempty"`
}

// Assertion validates the outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Selector and Expect are used by value.
	Selector string `yaml:"selector,omitempty"`
	Expect   string `yaml:"expect,omitempty"`

	// Calculation is used by subscriptions, recompute_count, error and
	// trace_count.
	Calculation string `yaml:"calculation,omitempty"`

	// Count is the expected number.
	Count int `yaml:"count,omitempty"`

	// Kind filters error; empty counts every error.
	Kind string `yaml:"kind,omitempty"`

	// Trigger filters trace_count; empty counts every event.
	Trigger string `yaml:"trigger,omitempty"`
}

// Assertion type constants.
const (
	AssertValue          = "value"
	AssertSubscriptions  = "subscriptions"
	AssertRecomputeCount = "recompute_count"
	AssertError          = "error"
	AssertTraceCount     = "trace_count"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly. A document_file is resolved relative to the
// scenario and loaded into Document.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.DocumentFile != "" {
		docPath := scenario.DocumentFile
		if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(filepath.Dir(path), docPath)
		}
		html, err := os.ReadFile(docPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read document file: %w", err)
		}
		scenario.Document = string(html)
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

var errorKinds = map[string]bool{
	"": true, KindMalformed: true, KindSyntax: true, KindEvaluation: true,
	KindValueParse: true, KindSelector: true, KindNoFormula: true,
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if (s.Document == "") == (s.DocumentFile == "") {
		return fmt.Errorf("exactly one of document and document_file is required")
	}
	if len(s.Calculations) == 0 {
		return fmt.Errorf("calculations list is required and must be non-empty")
	}

	ids := make(map[string]bool)
	for i, c := range s.Calculations {
		if c.ID == "" {
			return fmt.Errorf("calculation %d: id is required", i)
		}
		if ids[c.ID] {
			return fmt.Errorf("calculation %d: duplicate id %q", i, c.ID)
		}
		ids[c.ID] = true
		if c.Bases == "" {
			return fmt.Errorf("calculation %q: bases is required", c.ID)
		}
		if err := validateSource(c.Formula, c.Cases); err != nil {
			return fmt.Errorf("calculation %q: %w", c.ID, err)
		}
		if !errorKinds[c.Error] {
			return fmt.Errorf("calculation %q: unknown error kind %q", c.ID, c.Error)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step, ids); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, ids); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateSource(formula string, cases []FormulaCase) error {
	if (formula == "") == (len(cases) == 0) {
		return fmt.Errorf("exactly one of formula and cases is required")
	}
	for i, c := range cases {
		if c.Formula == "" {
			return fmt.Errorf("case %d: formula is required", i)
		}
	}
	return nil
}

func validateStep(step Step, ids map[string]bool) error {
	actions := 0
	for _, set := range []bool{step.Set != nil, step.Check != nil, step.Run != "", step.Formula != nil, step.Close != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("exactly one of set, check, run, formula and close is required")
	}
	if !errorKinds[step.Error] {
		return fmt.Errorf("unknown error kind %q", step.Error)
	}

	switch {
	case step.Set != nil && step.Set.Selector == "":
		return fmt.Errorf("set: selector is required")
	case step.Check != nil && step.Check.Selector == "":
		return fmt.Errorf("check: selector is required")
	case step.Run != "" && !ids[step.Run]:
		return fmt.Errorf("run: unknown calculation %q", step.Run)
	case step.Close != "" && !ids[step.Close]:
		return fmt.Errorf("close: unknown calculation %q", step.Close)
	case step.Formula != nil:
		if !ids[step.Formula.Calculation] {
			return fmt.Errorf("formula: unknown calculation %q", step.Formula.Calculation)
		}
		if err := validateSource(step.Formula.Formula, step.Formula.Cases); err != nil {
			return fmt.Errorf("formula: %w", err)
		}
	}
	return nil
}

func validateAssertion(a Assertion, ids map[string]bool) error {
	switch a.Type {
	case AssertValue:
		if a.Selector == "" {
			return fmt.Errorf("value: selector is required")
		}
	case AssertSubscriptions, AssertRecomputeCount, AssertError, AssertTraceCount:
		if !ids[a.Calculation] {
			return fmt.Errorf("%s: unknown calculation %q", a.Type, a.Calculation)
		}
		if a.Type == AssertError && !errorKinds[a.Kind] {
			return fmt.Errorf("error: unknown kind %q", a.Kind)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
