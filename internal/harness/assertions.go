package harness

import (
	"fmt"
	"strings"

	"github.com/pablobm/calculate/internal/trace"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(h *Harness, result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertValue:
			err = assertValue(h, a)
		case AssertSubscriptions:
			err = assertSubscriptions(h, a)
		case AssertRecomputeCount:
			err = assertRecomputeCount(h, a)
		case AssertError:
			err = assertErrorCount(h, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertValue(h *Harness, a Assertion) error {
	nodes, err := h.doc.Find(nil, a.Selector)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%q to parse", a.Selector), Actual: err.Error()}
	}
	if len(nodes) == 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%q = %q", a.Selector, a.Expect),
			Actual:   "selector matches nothing",
		}
	}
	for _, n := range nodes {
		if got := h.doc.Value(n); got != a.Expect {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%q = %q", a.Selector, a.Expect),
				Actual:   fmt.Sprintf("%s has %q", n, got),
			}
		}
	}
	return nil
}

func assertSubscriptions(h *Harness, a Assertion) error {
	got := h.engines[a.Calculation].Subscriptions()
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s holds %d subscriptions", a.Calculation, a.Count),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertRecomputeCount(h *Harness, a Assertion) error {
	got := h.engines[a.Calculation].Recomputes()
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s wrote %d results", a.Calculation, a.Count),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertErrorCount(h *Harness, a Assertion) error {
	got := 0
	for _, err := range h.handlerErrs[a.Calculation] {
		if a.Kind == "" || HasKind(err, a.Kind) {
			got++
		}
	}
	if got != a.Count {
		kind := a.Kind
		if kind == "" {
			kind = "any"
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s reported %d %s errors", a.Calculation, a.Count, kind),
			Actual:   fmt.Sprintf("%d (%v)", got, h.handlerErrs[a.Calculation]),
		}
	}
	return nil
}

func assertTraceCount(events []trace.Event, a Assertion) error {
	got := 0
	for _, e := range events {
		if e.Engine == a.Calculation && (a.Trigger == "" || string(e.Trigger) == a.Trigger) {
			got++
		}
	}
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s events for %s", a.Count, orAny(a.Trigger), a.Calculation),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}
