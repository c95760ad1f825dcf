package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is an element attribute.
type Attr = html.Attribute

// Node is an element, text run or document root. It wraps the html.Node that
// selectors match against and carries the field value set on it.
type Node struct {
	h        *html.Node
	parent   *Node
	children []*Node

	value    string
	hasValue bool
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...Attr) *Node {
	tag = strings.ToLower(tag)
	n := &Node{h: &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}}
	for _, a := range attrs {
		n.SetAttr(a.Key, a.Val)
	}
	return n
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{h: &html.Node{Type: html.TextNode, Data: data}}
}

func newRoot() *Node {
	return &Node{h: &html.Node{Type: html.DocumentNode}}
}

// wrap builds the Node tree over a parsed html tree. Only elements and text
// are kept; comments and doctypes stay in the html tree but are never found.
func wrap(h *html.Node, parent *Node) *Node {
	n := &Node{h: h, parent: parent}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.TextNode {
			n.children = append(n.children, wrap(c, n))
		}
	}
	return n
}

// HTML returns the underlying html node.
func (n *Node) HTML() *html.Node { return n.h }

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool { return n.h.Type == html.ElementNode }

// Tag returns the lower-case element name, or "" for non-elements.
func (n *Node) Tag() string {
	if !n.IsElement() {
		return ""
	}
	return n.h.Data
}

// AppendChild attaches a detached child as the last child of n and returns
// child.
func (n *Node) AppendChild(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	n.h.AppendChild(child.h)
	return child
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the element children of n.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.IsElement() {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of an attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.h.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(key, val string) {
	key = strings.ToLower(key)
	for i, a := range n.h.Attr {
		if a.Namespace == "" && a.Key == key {
			n.h.Attr[i].Val = val
			return
		}
	}
	n.h.Attr = append(n.h.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (n *Node) RemoveAttr(key string) {
	key = strings.ToLower(key)
	attrs := n.h.Attr[:0]
	for _, a := range n.h.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.h.Attr = attrs
}

// ID returns the id attribute.
func (n *Node) ID() string {
	id, _ := n.Attr("id")
	return id
}

// HasClass reports whether class is in the class list.
func (n *Node) HasClass(class string) bool {
	list, _ := n.Attr("class")
	for _, c := range strings.Fields(list) {
		if c == class {
			return true
		}
	}
	return false
}

// TextContent concatenates every descendant text node.
func (n *Node) TextContent() string {
	if n.h.Type == html.TextNode {
		return n.h.Data
	}
	var b strings.Builder
	n.walk(func(d *Node) {
		if d.h.Type == html.TextNode {
			b.WriteString(d.h.Data)
		}
	})
	return b.String()
}

// Value returns the field value of n.
//
// A value set with SetValue always wins. Otherwise inputs report their value
// attribute, selects their selected (or first) option, and every other
// element its text content.
func (n *Node) Value() string {
	if n.hasValue {
		return n.value
	}
	switch n.Tag() {
	case "input":
		v, _ := n.Attr("value")
		return v
	case "select":
		return n.selectedOption()
	default:
		return n.TextContent()
	}
}

func (n *Node) selectedOption() string {
	var first, selected *Node
	n.walk(func(d *Node) {
		if d.Tag() != "option" {
			return
		}
		if first == nil {
			first = d
		}
		if _, ok := d.Attr("selected"); ok && selected == nil {
			selected = d
		}
	})
	if selected == nil {
		selected = first
	}
	if selected == nil {
		return ""
	}
	if v, ok := selected.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(selected.TextContent())
}

// SetValue replaces the field value of n. It does not notify.
func (n *Node) SetValue(v string) {
	n.value = v
	n.hasValue = true
}

// Checked reports whether n carries the checked attribute.
func (n *Node) Checked() bool {
	_, ok := n.Attr("checked")
	return ok
}

// SetChecked adds or removes the checked attribute, which is what :checked
// matches. It does not notify.
func (n *Node) SetChecked(checked bool) {
	if checked {
		n.SetAttr("checked", "")
		return
	}
	n.RemoveAttr("checked")
}

// String renders a short opening-tag description, e.g. <input class="diff">.
func (n *Node) String() string {
	switch n.h.Type {
	case html.DocumentNode:
		return "#document"
	case html.TextNode:
		return "#text"
	}
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Tag())
	for _, key := range []string{"id", "class", "name"} {
		if v, ok := n.Attr(key); ok && (key != "id" || v != "") {
			b.WriteString(" " + key + `="` + v + `"`)
		}
	}
	b.WriteString(">")
	return b.String()
}

// walk visits the descendants of n in document order, excluding n.
func (n *Node) walk(fn func(*Node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}
