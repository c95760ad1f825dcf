package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/pablobm/calculate/internal/trace"
)

// GoldenDir is where golden traces live relative to a test package.
const GoldenDir = "testdata/golden"

// Snapshot renders a scenario's trace as canonical JSON, the format golden
// files hold.
func Snapshot(name string, result *Result) ([]byte, error) {
	events := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		events[i] = e.CanonicalMap()
	}
	return trace.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"trace":         events,
	})
}

// GoldenPath returns the golden file for a scenario file: a "golden"
// directory next to the scenario's directory, named after the scenario.
// testdata/scenarios/x.yaml pairs with testdata/golden/<name>.golden.
func GoldenPath(scenarioFile, name string) string {
	dir := filepath.Dir(filepath.Dir(scenarioFile))
	return filepath.Join(dir, "golden", name+".golden")
}

// RunWithGolden runs a scenario, fails t on assertion failures and compares
// the trace with testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		t.Errorf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares a result's trace with its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
