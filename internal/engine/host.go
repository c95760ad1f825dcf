package engine

import "github.com/pablobm/calculate/internal/dom"

// Host is the document an engine reads operands from and writes results to.
// *dom.Document implements it.
type Host interface {
	// Find returns the elements matching selector inside container, in
	// document order.
	Find(container *dom.Node, selector string) ([]*dom.Node, error)

	// Value returns an element's current value.
	Value(n *dom.Node) string

	// SetValue replaces an element's value.
	SetValue(n *dom.Node, v string)

	// Subscribe registers handler for event on n.
	Subscribe(n *dom.Node, event string, handler dom.Handler) dom.Subscription

	// Unsubscribe removes a registration. It reports whether the
	// subscription was still active.
	Unsubscribe(sub dom.Subscription) bool

	// Notify raises event on n, running its handlers synchronously.
	Notify(n *dom.Node, event string)
}

var _ Host = (*dom.Document)(nil)
