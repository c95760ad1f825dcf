package store

import (
	"context"
	"fmt"

	"github.com/pablobm/calculate/internal/trace"
)

// WriteEvent appends e to the journal. An event with an ID already present
// is ignored, so re-recording is harmless. Events without an ID are stamped
// first.
func (s *Store) WriteEvent(ctx context.Context, e trace.Event) error {
	if e.ID == "" {
		stamped, err := trace.Stamp(e)
		if err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		e = stamped
	}

	inputs, err := marshalInputs(e.Inputs)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recomputes
		(id, seq, engine_id, base, cause, formula, result_selector, expression, inputs, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Seq,
		e.Engine,
		e.Base,
		string(e.Trigger),
		e.Formula,
		e.ResultSelector,
		e.Expression,
		inputs,
		e.Result,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Journal returns a trace.Recorder that writes each event to s using ctx.
func (s *Store) Journal(ctx context.Context) trace.Recorder {
	return trace.RecorderFunc(func(e trace.Event) error {
		return s.WriteEvent(ctx, e)
	})
}
