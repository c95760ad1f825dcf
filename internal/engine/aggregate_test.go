package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/formula"
)

func TestResolve(t *testing.T) {
	doc := newDoc(t, `<div id="d">
		<input class="n" value="1"><input class="n" value="2"><input class="m" value="10">
	</div>`)
	base := one(t, doc, "#d")

	env, err := Resolve(doc, base, []formula.Operand{
		{Selector: ".n", Var: "X1"},
		{Selector: ".m", Var: "X2"},
		{Selector: ".none", Var: "X3"},
	}, ParseNumber)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"X1": 3, "X2": 10, "X3": 0}, env)
}

func TestResolve_ScopedToBase(t *testing.T) {
	doc := newDoc(t, `<div>
		<p id="a"><input class="n" value="1"></p>
		<p id="b"><input class="n" value="100"></p>
	</div>`)

	sum, err := Sum(doc, one(t, doc, "#a"), ".n", ParseNumber)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sum)
}

func TestResolve_ParseError(t *testing.T) {
	doc := newDoc(t, `<div id="d"><input class="n" value="1"><input class="n" value="x"></div>`)

	_, err := Resolve(doc, one(t, doc, "#d"), []formula.Operand{{Selector: ".n", Var: "X1"}}, ParseNumber)
	require.Error(t, err)

	var pe *ValueParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "x", pe.Raw)
	assert.Equal(t, doc.MustFind(nil, ".n")[1], pe.Element)
}

func TestResolve_BadSelector(t *testing.T) {
	doc := newDoc(t, `<div id="d"></div>`)
	_, err := Sum(doc, one(t, doc, "#d"), "[", ParseNumber)
	assert.True(t, dom.IsSelectorError(err))
}

func TestSum_RejectsNonFiniteParserResults(t *testing.T) {
	doc := newDoc(t, `<div id="d"><input class="n" value="1"><input class="n" value="odd"></div>`)
	base := one(t, doc, "#d")

	tests := []struct {
		name string
		v    float64
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parse := func(raw string) (float64, error) {
				if raw == "odd" {
					return tt.v, nil
				}
				return ParseNumber(raw)
			}

			_, err := Sum(doc, base, ".n", parse)
			require.Error(t, err)
			assert.True(t, IsValueParseError(err))
			assert.True(t, errors.Is(err, ErrNotANumber))

			var pe *ValueParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ".n", pe.Selector)
			assert.Equal(t, "odd", pe.Raw)
			assert.Equal(t, doc.MustFind(nil, ".n")[1], pe.Element)
		})
	}
}

func TestEngine_NaNParserSurfacesAsValueParseError(t *testing.T) {
	doc := newDoc(t, singleForm)
	nan := func(string) (float64, error) { return math.NaN(), nil }

	e, err := Calculate(doc, bases(t, doc, "#calc"), Literal("{{.total}} = {{.base}} - {{.diff}}"),
		WithValueParser(nan),
		WithLogger(quietLogger()),
	)
	require.Error(t, err)
	require.NotNil(t, e)
	assert.True(t, IsValueParseError(err))
	assert.Empty(t, value(t, doc, ".total"), "nothing is written")
}
