package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: smallest valid scenario
document: "<div class='one'><input class='a'><input class='b'></div>"
calculations:
  - id: c
    bases: ".one"
    formula: "{{.b}} = {{.a}}"
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Calculations, 1)
	assert.Equal(t, "c", s.Calculations[0].ID)
	assert.Equal(t, ".one", s.Calculations[0].Bases)
	assert.Equal(t, "{{.b}} = {{.a}}", s.Calculations[0].Formula)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "bogus: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
document: "<div></div>"
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]`,
			want: "name is required",
		},
		{
			name: "no document",
			yaml: `
name: x
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]`,
			want: "exactly one of document and document_file",
		},
		{
			name: "no calculations",
			yaml: `
name: x
document: "<div></div>"`,
			want: "calculations list is required",
		},
		{
			name: "duplicate id",
			yaml: `
name: x
document: "<div></div>"
calculations:
  - {id: c, bases: div, formula: "{{.b}} = 1"}
  - {id: c, bases: div, formula: "{{.b}} = 2"}`,
			want: `duplicate id "c"`,
		},
		{
			name: "formula and cases",
			yaml: `
name: x
document: "<div></div>"
calculations:
  - id: c
    bases: div
    formula: "{{.b}} = 1"
    cases: [{formula: "{{.b}} = 2"}]`,
			want: "exactly one of formula and cases",
		},
		{
			name: "unknown error kind",
			yaml: `
name: x
document: "<div></div>"
calculations: [{id: c, bases: div, formula: "{{.b}} = 1", error: oops}]`,
			want: `unknown error kind "oops"`,
		},
		{
			name: "step with two actions",
			yaml: `
name: x
document: "<div></div>"
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]
steps:
  - run: c
    close: c`,
			want: "exactly one of set, check, run, formula and close",
		},
		{
			name: "run unknown calculation",
			yaml: `
name: x
document: "<div></div>"
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]
steps:
  - run: d`,
			want: `unknown calculation "d"`,
		},
		{
			name: "unknown assertion",
			yaml: `
name: x
document: "<div></div>"
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]
assertions:
  - type: vibes`,
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "value without selector",
			yaml: `
name: x
document: "<div></div>"
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]
assertions:
  - type: value
    expect: "1"`,
			want: "value: selector is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_DocumentFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "independent_bases.yaml"))
	require.NoError(t, err)
	assert.Contains(t, s.Document, `id="g2"`)
}

func TestLoadScenario_MissingDocumentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: x
document_file: missing.html
calculations: [{id: c, bases: div, formula: "{{.b}} = 1"}]
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document file")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
