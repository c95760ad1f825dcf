package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectorFixture = `
<div id="form" class="form">
  <div class="line first">
    <input class="qty" name="qty" value="1">
    <span class="price">2.5</span>
  </div>
  <div class="line">
    <section><input class="qty" name="qty" value="3"></section>
    <input type="checkbox" class="toggle" checked>
    <input type="checkbox" class="toggle other">
  </div>
  <input class="total" name="total" data-role="result">
</div>`

func findIn(t *testing.T, doc *Document, container *Node, selector string) []*Node {
	t.Helper()
	nodes, err := doc.Find(container, selector)
	require.NoError(t, err)
	return nodes
}

func TestCompile_Valid(t *testing.T) {
	valid := []string{
		".qty",
		"input",
		"*",
		"#form",
		"input.qty",
		"div.line.first",
		".line .qty",
		".line > .qty",
		".line>.qty",
		"[name]",
		"[name=qty]",
		`[name="qty"]`,
		"input:checked",
		".qty, .total",
		"  .qty  ",
		".line + .line",
		"#form .line > section input[name=qty]",
	}
	doc := NewDocument(nil)
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			sel, err := doc.Compile(s)
			require.NoError(t, err)
			assert.NotNil(t, sel)
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		".",
		"#",
		".a >",
		"> .a",
		".a,",
		"[name",
		"[=x]",
		`[name="x]`,
		":bogus",
		".a..b",
	}
	doc := NewDocument(nil)
	for _, s := range invalid {
		t.Run(s, func(t *testing.T) {
			sel, err := doc.Compile(s)
			require.Error(t, err)
			assert.Nil(t, sel)
			assert.True(t, IsSelectorError(err))

			var se *SelectorError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, s, se.Selector)
			assert.NotNil(t, errors.Unwrap(err), "the parser error is kept")
		})
	}
	assert.Empty(t, doc.selectors, "failed selectors are not cached")
}

func TestFind_Matching(t *testing.T) {
	doc, err := ParseString(selectorFixture)
	require.NoError(t, err)

	tests := []struct {
		selector string
		want     int
	}{
		{".qty", 2},
		{"input", 5},
		{"#form", 1},
		{"div.line.first", 1},
		{".line .qty", 2},
		{".line > .qty", 1},
		{"section > input", 1},
		{"[name=qty]", 2},
		{"[data-role]", 1},
		{"input:checked", 1},
		{".toggle:checked", 1},
		{".qty, .total", 3},
		{".missing", 0},
		{"span.price", 1},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Len(t, findIn(t, doc, nil, tt.selector), tt.want)
		})
	}
}

func TestFind_DocumentOrder(t *testing.T) {
	doc, err := ParseString(selectorFixture)
	require.NoError(t, err)

	nodes := findIn(t, doc, nil, ".total, .qty")
	require.Len(t, nodes, 3)
	assert.Equal(t, "1", nodes[0].Value())
	assert.Equal(t, "3", nodes[1].Value())
	assert.True(t, nodes[2].HasClass("total"))
}

func TestFind_ScopedToContainer(t *testing.T) {
	doc, err := ParseString(selectorFixture)
	require.NoError(t, err)

	lines := findIn(t, doc, nil, ".line")
	require.Len(t, lines, 2)

	first := findIn(t, doc, lines[0], ".qty")
	require.Len(t, first, 1)
	assert.Equal(t, "1", first[0].Value())

	// Ancestors above the container still take part in matching.
	scoped := findIn(t, doc, lines[1], "#form .qty")
	require.Len(t, scoped, 1)
	assert.Equal(t, "3", scoped[0].Value())

	// The container itself is never part of the result.
	assert.Empty(t, findIn(t, doc, lines[0], ".line"))
}

func TestFind_InvalidSelector(t *testing.T) {
	doc, err := ParseString(selectorFixture)
	require.NoError(t, err)

	nodes, err := doc.Find(nil, ".a >")
	require.Error(t, err)
	assert.Nil(t, nodes)
	assert.True(t, IsSelectorError(err))
	assert.Panics(t, func() { doc.MustFind(nil, "") })
}

func TestDocument_CompileCaches(t *testing.T) {
	doc := NewDocument(nil)

	_, err := doc.Compile(".qty")
	require.NoError(t, err)
	_, err = doc.Compile(".qty")
	require.NoError(t, err)
	_, err = doc.Compile(".total")
	require.NoError(t, err)

	assert.Len(t, doc.selectors, 2)
}

func TestFind_CheckedFollowsState(t *testing.T) {
	doc, err := ParseString(selectorFixture)
	require.NoError(t, err)

	toggles := findIn(t, doc, nil, ".toggle")
	require.Len(t, toggles, 2)

	toggles[1].SetChecked(true)
	assert.Len(t, findIn(t, doc, nil, ".toggle:checked"), 2)

	toggles[0].SetChecked(false)
	checked := findIn(t, doc, nil, ".toggle:checked")
	require.Len(t, checked, 1)
	assert.Same(t, toggles[1], checked[0])

	// Only checkable inputs match :checked.
	qty := findIn(t, doc, nil, ".qty")[0]
	qty.SetChecked(true)
	assert.True(t, qty.Checked())
	assert.Empty(t, findIn(t, doc, nil, ".qty:checked"))
}

func TestFind_AppendedAfterCreate(t *testing.T) {
	root := NewElement("div", Attr{Key: "class", Val: "group"})
	doc := NewDocument(root)

	late := root.AppendChild(NewElement("input", Attr{Key: "class", Val: "qty"}))

	nodes := findIn(t, doc, nil, ".qty")
	require.Len(t, nodes, 1)
	assert.Same(t, late, nodes[0])
}
