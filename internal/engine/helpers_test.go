package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/trace"
)

func newDoc(t *testing.T, html string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(html)
	require.NoError(t, err)
	return doc
}

func bases(t *testing.T, doc *dom.Document, selector string) []*dom.Node {
	t.Helper()
	nodes, err := doc.Find(nil, selector)
	require.NoError(t, err)
	require.NotEmpty(t, nodes, "no bases match %q", selector)
	return nodes
}

func one(t *testing.T, doc *dom.Document, selector string) *dom.Node {
	t.Helper()
	nodes, err := doc.Find(nil, selector)
	require.NoError(t, err)
	require.Len(t, nodes, 1, "selector %q", selector)
	return nodes[0]
}

func value(t *testing.T, doc *dom.Document, selector string) string {
	t.Helper()
	return one(t, doc, selector).Value()
}

// change sets an element's value and raises change on it, as a user edit would.
func change(t *testing.T, doc *dom.Document, selector, v string) {
	t.Helper()
	n := one(t, doc, selector)
	doc.SetValue(n, v)
	doc.Notify(n, dom.ChangeEvent)
}

func mustFormula(t *testing.T, e *Engine, text string) {
	t.Helper()
	require.NoError(t, e.FormulaText(text))
}

func newRecorder() *trace.Buffer {
	return trace.NewBuffer()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
