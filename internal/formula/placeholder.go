package formula

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// placeholderPattern matches {{selector}} tokens. The selector is any run of
// characters other than '}'; an empty run yields a degenerate placeholder
// that is still assigned a variable.
var placeholderPattern = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// VarPrefix prefixes every generated variable name.
const VarPrefix = "X"

// Namer hands out synthetic variable names: X0, X1, X2, ...
//
// Names are unique for the lifetime of the Namer. A Namer is safe for
// concurrent use, although a Compiler normally owns exactly one.
type Namer struct {
	next atomic.Int64
}

// NewNamer creates a Namer whose first name is X0.
func NewNamer() *Namer {
	return &Namer{}
}

// Next returns the next unused variable name.
func (n *Namer) Next() string {
	return VarPrefix + strconv.FormatInt(n.next.Add(1)-1, 10)
}

// Operand binds a selector to the variable that stands for it in an
// expression.
type Operand struct {
	Selector string `json:"selector"`
	Var      string `json:"var"`
}

// Substitution rewrites placeholders into variable names while building a
// selector -> variable table. One Substitution spans one compile pass: the
// same selector seen again, in the same or a later Rewrite call, reuses its
// variable.
type Substitution struct {
	namer    *Namer
	operands []Operand
	vars     map[string]string
}

// NewSubstitution starts a compile pass drawing names from namer.
func NewSubstitution(namer *Namer) *Substitution {
	return &Substitution{
		namer: namer,
		vars:  make(map[string]string),
	}
}

// Rewrite replaces every placeholder in text with its variable name.
// It returns the rewritten text and the selectors encountered, in order of
// occurrence and including repeats.
//
// Surrounding whitespace inside a placeholder is not part of the selector:
// {{.a}} and {{ .a }} name the same operand.
func (s *Substitution) Rewrite(text string) (string, []string) {
	var seen []string
	out := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		selector := strings.TrimSpace(token[2 : len(token)-2])
		seen = append(seen, selector)
		return s.assign(selector)
	})
	return out, seen
}

// Lookup returns the variable assigned to selector, if any.
func (s *Substitution) Lookup(selector string) (string, bool) {
	v, ok := s.vars[selector]
	return v, ok
}

// Operands returns the table built so far in first-occurrence order.
func (s *Substitution) Operands() []Operand {
	out := make([]Operand, len(s.operands))
	copy(out, s.operands)
	return out
}

func (s *Substitution) assign(selector string) string {
	if v, ok := s.vars[selector]; ok {
		return v
	}
	v := s.namer.Next()
	s.vars[selector] = v
	s.operands = append(s.operands, Operand{Selector: selector, Var: v})
	return v
}

// Substitute rewrites a single text in its own compile pass.
func Substitute(text string, namer *Namer) (string, []Operand) {
	s := NewSubstitution(namer)
	out, _ := s.Rewrite(text)
	return out, s.Operands()
}
