package engine

import (
	"fmt"

	"github.com/pablobm/calculate/internal/dom"
	"github.com/pablobm/calculate/internal/formula"
)

// BindingState is the lifecycle state of a Binding.
type BindingState int

const (
	// Unbound holds no subscriptions.
	Unbound BindingState = iota

	// Bound holds the subscriptions of the current formula. A bound
	// binding may still hold zero subscriptions when no operand matches.
	Bound
)

// String returns the state name.
func (s BindingState) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// Target is one base's formula together with the handler its operand
// subscriptions call.
type Target struct {
	Base     *dom.Node
	Formula  *formula.Formula
	OnChange func()
}

// Binding owns the change subscriptions an engine installed, so a formula
// replacement can remove exactly those and nothing else.
type Binding struct {
	host  Host
	subs  []dom.Subscription
	state BindingState
}

// NewBinding returns an unbound Binding over host.
func NewBinding(host Host) *Binding {
	return &Binding{host: host}
}

// State returns the current lifecycle state.
func (b *Binding) State() BindingState { return b.state }

// Len returns the number of live subscriptions.
func (b *Binding) Len() int { return len(b.subs) }

// Nodes returns the subscribed elements in subscription order.
func (b *Binding) Nodes() []*dom.Node {
	out := make([]*dom.Node, len(b.subs))
	for i, s := range b.subs {
		out[i] = s.Node()
	}
	return out
}

// plan lists the elements to subscribe for one target: every element an
// operand selector matches inside the base, once each, in operand order,
// leaving out anything the result selector matches. Subscribing a result
// element would make every write trigger another recompute.
func (b *Binding) plan(t Target) ([]*dom.Node, error) {
	results, err := b.host.Find(t.Base, t.Formula.ResultSelector())
	if err != nil {
		return nil, fmt.Errorf("find result %q: %w", t.Formula.ResultSelector(), err)
	}
	skip := make(map[*dom.Node]bool, len(results))
	for _, n := range results {
		skip[n] = true
	}

	var nodes []*dom.Node
	for _, op := range t.Formula.Operands() {
		found, err := b.host.Find(t.Base, op.Selector)
		if err != nil {
			return nil, fmt.Errorf("find operand %q: %w", op.Selector, err)
		}
		for _, n := range found {
			if skip[n] {
				continue
			}
			skip[n] = true
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// Bind subscribes the operand elements of every target, adding to whatever
// is already bound. Every target is planned before anything is installed,
// so a failing target leaves the binding as it was.
func (b *Binding) Bind(targets ...Target) error {
	plans, err := b.planAll(targets)
	if err != nil {
		return err
	}
	b.install(targets, plans)
	return nil
}

// Rebind replaces every existing subscription with those of targets. On
// error the old subscriptions stay in place.
func (b *Binding) Rebind(targets ...Target) error {
	plans, err := b.planAll(targets)
	if err != nil {
		return err
	}
	b.UnbindAll()
	b.install(targets, plans)
	return nil
}

// UnbindAll removes every subscription and returns how many were removed.
// Calling it on an unbound binding is a no-op.
func (b *Binding) UnbindAll() int {
	n := len(b.subs)
	for _, s := range b.subs {
		b.host.Unsubscribe(s)
	}
	b.subs = nil
	b.state = Unbound
	return n
}

func (b *Binding) planAll(targets []Target) ([][]*dom.Node, error) {
	plans := make([][]*dom.Node, len(targets))
	for i, t := range targets {
		nodes, err := b.plan(t)
		if err != nil {
			return nil, fmt.Errorf("bind target %d: %w", i, err)
		}
		plans[i] = nodes
	}
	return plans, nil
}

func (b *Binding) install(targets []Target, plans [][]*dom.Node) {
	for i, t := range targets {
		onChange := t.OnChange
		for _, n := range plans[i] {
			sub := b.host.Subscribe(n, dom.ChangeEvent, func(dom.Event) { onChange() })
			b.subs = append(b.subs, sub)
		}
	}
	b.state = Bound
}
