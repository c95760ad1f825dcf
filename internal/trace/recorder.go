package trace

import "sync"

// Recorder receives recompute events as an engine emits them.
type Recorder interface {
	Record(Event) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(Event) error

// Record calls f(e).
func (f RecorderFunc) Record(e Event) error { return f(e) }

// Buffer is an in-memory Recorder. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Record appends e.
func (b *Buffer) Record(e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

// Events returns a copy of the recorded events in record order.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// ForEngine returns the recorded events of one engine.
func (b *Buffer) ForEngine(engineID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Event
	for _, e := range b.events {
		if e.Engine == engineID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Reset discards all recorded events.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// Tee returns a Recorder that forwards each event to every recorder in
// order, stopping at the first error.
func Tee(recorders ...Recorder) Recorder {
	return RecorderFunc(func(e Event) error {
		for _, r := range recorders {
			if err := r.Record(e); err != nil {
				return err
			}
		}
		return nil
	})
}
