// Package harness runs calculation scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: line_totals
//	description: "Each row recomputes independently"
//	document: |
//	  <table>
//	    <tr class="row" id="r1"><td><input class="qty" value="2"></td>...</tr>
//	  </table>
//	calculations:
//	  - id: lines
//	    bases: ".row"
//	    formula: "{{.line}} = {{.qty}} * {{.price}}"
//	    formatter: "fixed:2"
//	steps:
//	  - set: { selector: "#r1 .qty", value: "3" }
//	  - run: lines
//	assertions:
//	  - type: value
//	    selector: "#r1 .line"
//	    expect: "30.00"
//
// A calculation takes either a literal formula or a list of cases; the first
// case whose "when" selector matches inside a base supplies that base's
// formula, and a case without "when" always matches.
//
// # Steps
//
//   - set: assign a value and raise change on every match
//   - check: set checked state and raise change on every match
//   - run: call Run on a calculation
//   - formula: replace a calculation's formula
//   - close: remove a calculation's subscriptions
//
// Calculations and steps may declare the error kind they expect
// (malformed, syntax, evaluation, value_parse, selector, no_formula).
//
// # Assertion Types
//
//   - value: every element the selector matches has the expected value
//   - subscriptions: a calculation holds exactly count subscriptions
//   - recompute_count: a calculation wrote exactly count results
//   - error: a calculation's change handlers reported count errors of a kind
//   - trace_count: the trace holds count events of a calculation, optionally
//     filtered by trigger
//
// # Deterministic Testing
//
// Engine IDs are the calculation IDs and every engine shares one
// testutil.DeterministicClock, so a scenario always yields the same trace.
// Events are journaled to an in-memory SQLite store and read back in seq
// order for golden comparison.
package harness
