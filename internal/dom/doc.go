// Package dom is the element layer formulas bind to: an in-memory element
// tree loaded from HTML, scoped selector queries, field values, and
// synchronous change notifications.
//
// Nodes wrap the golang.org/x/net/html tree. Selectors are CSS selector
// groups compiled by cascadia and cached per document. The checked state of
// a field is its checked attribute, so :checked follows SetChecked.
//
// Notify delivers an event to the handlers subscribed on one element, in
// subscription order, before returning. Events do not bubble.
//
// Thread-safety: a Document is not safe for concurrent use. Callers own the
// goroutine that mutates and notifies it.
package dom
