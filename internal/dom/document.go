package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ChangeEvent is the event raised when a field value changes.
const ChangeEvent = "change"

// Event is delivered to subscribed handlers.
type Event struct {
	Type   string
	Target *Node
}

// Handler receives events for one element.
type Handler func(Event)

// Subscription identifies one installed handler. The zero value identifies
// nothing.
type Subscription struct {
	id    uint64
	node  *Node
	event string
}

// Node returns the element the subscription is attached to.
func (s Subscription) Node() *Node { return s.node }

// Event returns the subscribed event name.
func (s Subscription) Event() string { return s.event }

type listener struct {
	id      uint64
	handler Handler
	active  bool
}

// Document owns an element tree and the event subscriptions on it.
type Document struct {
	root      *Node
	nodes     map[*html.Node]*Node
	selectors map[string]cascadia.Selector
	listeners map[*Node]map[string][]*listener
	nextID    uint64
}

// NewDocument wraps root, which becomes the document root. A nil root creates
// an empty document.
func NewDocument(root *Node) *Document {
	if root == nil {
		root = newRoot()
	}
	d := &Document{
		root:      root,
		selectors: make(map[string]cascadia.Selector),
		listeners: make(map[*Node]map[string][]*listener),
	}
	d.reindex()
	return d
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	h, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewDocument(wrap(h, nil)), nil
}

// ParseString reads an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// reindex maps every html node under the root back to its Node.
func (d *Document) reindex() {
	d.nodes = map[*html.Node]*Node{d.root.h: d.root}
	d.root.walk(func(n *Node) { d.nodes[n.h] = n })
}

// Root returns the document root.
func (d *Document) Root() *Node { return d.root }

// Compile parses selector, caching the result for the life of the document.
func (d *Document) Compile(selector string) (cascadia.Selector, error) {
	if sel, ok := d.selectors[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	d.selectors[selector] = sel
	return sel, nil
}

// Find returns the descendants of container matching selector, in document
// order. Ancestors above container still take part in matching, so
// ".form .qty" finds .qty fields inside a container that is itself inside
// .form. A nil container searches the whole document.
func (d *Document) Find(container *Node, selector string) ([]*Node, error) {
	sel, err := d.Compile(selector)
	if err != nil {
		return nil, err
	}
	if container == nil {
		container = d.root
	}
	matches := cascadia.QueryAll(container.h, sel)
	var out []*Node
	for _, h := range matches {
		n, ok := d.nodes[h]
		if !ok {
			// Appended after the document was created.
			d.reindex()
			if n, ok = d.nodes[h]; !ok {
				continue
			}
		}
		out = append(out, n)
	}
	return out, nil
}

// MustFind is Find for selectors known to be valid. It panics on a
// malformed selector.
func (d *Document) MustFind(container *Node, selector string) []*Node {
	nodes, err := d.Find(container, selector)
	if err != nil {
		panic(err)
	}
	return nodes
}

// Value returns the field value of n.
func (d *Document) Value(n *Node) string { return n.Value() }

// SetValue replaces the field value of n without notifying.
func (d *Document) SetValue(n *Node, v string) { n.SetValue(v) }

// Subscribe installs handler for event on n.
func (d *Document) Subscribe(n *Node, event string, handler Handler) Subscription {
	d.nextID++
	l := &listener{id: d.nextID, handler: handler, active: true}
	byEvent := d.listeners[n]
	if byEvent == nil {
		byEvent = make(map[string][]*listener)
		d.listeners[n] = byEvent
	}
	byEvent[event] = append(byEvent[event], l)
	return Subscription{id: l.id, node: n, event: event}
}

// Unsubscribe removes the handler identified by sub. It reports whether the
// subscription was still installed.
func (d *Document) Unsubscribe(sub Subscription) bool {
	byEvent := d.listeners[sub.node]
	if byEvent == nil {
		return false
	}
	ls := byEvent[sub.event]
	for i, l := range ls {
		if l.id != sub.id {
			continue
		}
		l.active = false
		byEvent[sub.event] = append(ls[:i:i], ls[i+1:]...)
		if len(byEvent[sub.event]) == 0 {
			delete(byEvent, sub.event)
		}
		if len(byEvent) == 0 {
			delete(d.listeners, sub.node)
		}
		return true
	}
	return false
}

// Notify raises event on n. Handlers run synchronously in subscription
// order. A handler removed while the event is being delivered is not called.
func (d *Document) Notify(n *Node, event string) {
	ls := d.listeners[n][event]
	if len(ls) == 0 {
		return
	}
	snapshot := make([]*listener, len(ls))
	copy(snapshot, ls)
	ev := Event{Type: event, Target: n}
	for _, l := range snapshot {
		if l.active {
			l.handler(ev)
		}
	}
}

// SubscriptionCount returns how many handlers for event are installed on n.
func (d *Document) SubscriptionCount(n *Node, event string) int {
	return len(d.listeners[n][event])
}

// TotalSubscriptions returns the number of installed handlers across the
// document.
func (d *Document) TotalSubscriptions() int {
	total := 0
	for _, byEvent := range d.listeners {
		for _, ls := range byEvent {
			total += len(ls)
		}
	}
	return total
}
