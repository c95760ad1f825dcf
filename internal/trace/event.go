package trace

import "fmt"

// Trigger names what caused a recomputation.
type Trigger string

const (
	// TriggerFormula is the immediate run after a formula is set or replaced.
	TriggerFormula Trigger = "formula"

	// TriggerRun is an explicit Run call.
	TriggerRun Trigger = "run"

	// TriggerChange is a change notification on a subscribed operand element.
	TriggerChange Trigger = "change"
)

// Valid reports whether t is one of the known triggers.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerFormula, TriggerRun, TriggerChange:
		return true
	}
	return false
}

// Event is one recomputation of one base.
type Event struct {
	ID             string            `json:"id"`
	Seq            int64             `json:"seq"`
	Engine         string            `json:"engine"`
	Base           int               `json:"base"`
	Trigger        Trigger           `json:"trigger"`
	Formula        string            `json:"formula"`
	ResultSelector string            `json:"result_selector"`
	Expression     string            `json:"expression"`
	Inputs         map[string]string `json:"inputs"`
	Result         string            `json:"result"`
}

// content returns the hashed fields of the event. The ID is excluded since it
// is derived from the rest.
func (e Event) content() map[string]any {
	inputs := make(map[string]any, len(e.Inputs))
	for k, v := range e.Inputs {
		inputs[k] = v
	}
	return map[string]any{
		"base":            e.Base,
		"engine":          e.Engine,
		"expression":      e.Expression,
		"formula":         e.Formula,
		"inputs":          inputs,
		"result":          e.Result,
		"result_selector": e.ResultSelector,
		"seq":             e.Seq,
		"trigger":         string(e.Trigger),
	}
}

// CanonicalMap returns the full event, ID included, in the form
// MarshalCanonical accepts. Used to embed events in larger documents.
func (e Event) CanonicalMap() map[string]any {
	obj := e.content()
	obj["id"] = e.ID
	return obj
}

// Canonical returns the canonical JSON form of the full event.
func (e Event) Canonical() ([]byte, error) {
	return MarshalCanonical(e.CanonicalMap())
}

// Stamp computes the event's content-addressed ID and returns a copy with
// the ID field set.
func Stamp(e Event) (Event, error) {
	if !e.Trigger.Valid() {
		return Event{}, fmt.Errorf("stamp event: unknown trigger %q", e.Trigger)
	}
	id, err := EventID(e)
	if err != nil {
		return Event{}, err
	}
	e.ID = id
	return e, nil
}
