package engine

import "github.com/pablobm/calculate/internal/dom"

// Source is where an engine gets its formula text: a literal string or a
// function of the base element.
//
// A dynamic source is asked for text at bind time, which fixes the operand
// subscriptions, and again on every recompute of that base. Text seen at
// recompute time is compiled and cached by text.
type Source struct {
	text string
	fn   func(base *dom.Node) string
}

// Literal returns a Source that always yields text.
func Literal(text string) Source {
	return Source{text: text}
}

// Dynamic returns a Source that yields fn(base).
func Dynamic(fn func(base *dom.Node) string) Source {
	return Source{fn: fn}
}

// IsDynamic reports whether the source depends on the base.
func (s Source) IsDynamic() bool { return s.fn != nil }

// IsZero reports whether the source is unset.
func (s Source) IsZero() bool { return s.fn == nil && s.text == "" }

// Text returns the formula text for base.
func (s Source) Text(base *dom.Node) string {
	if s.fn != nil {
		return s.fn(base)
	}
	return s.text
}
