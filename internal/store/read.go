package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pablobm/calculate/internal/trace"
)

const selectEvents = `
	SELECT id, seq, engine_id, base, cause, formula, result_selector, expression, inputs, result
	FROM recomputes
`

// ReadEvents returns every journaled event ordered by seq ASC, id ASC.
// It returns an empty slice, not nil, for an empty journal.
func (s *Store) ReadEvents(ctx context.Context) ([]trace.Event, error) {
	return s.queryEvents(ctx, selectEvents+`ORDER BY seq ASC, id COLLATE BINARY ASC`)
}

// ReadEngineEvents returns the events of one engine in seq order.
func (s *Store) ReadEngineEvents(ctx context.Context, engineID string) ([]trace.Event, error) {
	return s.queryEvents(ctx, selectEvents+`
		WHERE engine_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, engineID)
}

// Engines returns the IDs of every engine in the journal, ordered by the
// seq of its first event.
func (s *Store) Engines(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT engine_id
		FROM recomputes
		GROUP BY engine_id
		ORDER BY MIN(seq) ASC, engine_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query engines: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan engine: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engines: %w", err)
	}
	return ids, nil
}

// LastSeq returns the highest seq in the journal, or 0 when it is empty.
// A clock started at this value continues the numbering.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM recomputes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

// Verify recomputes every event's content-addressed ID and returns the IDs
// of rows whose content no longer matches.
func (s *Store) Verify(ctx context.Context) ([]string, error) {
	events, err := s.ReadEvents(ctx)
	if err != nil {
		return nil, err
	}
	var bad []string
	for _, e := range events {
		id, err := trace.EventID(e)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", e.ID, err)
		}
		if id != e.ID {
			bad = append(bad, e.ID)
		}
	}
	return bad, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]trace.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []trace.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (trace.Event, error) {
	var (
		e      trace.Event
		cause  string
		inputs string
	)
	err := rows.Scan(&e.ID, &e.Seq, &e.Engine, &e.Base, &cause, &e.Formula, &e.ResultSelector, &e.Expression, &inputs, &e.Result)
	if err != nil {
		return trace.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.Trigger = trace.Trigger(cause)
	if e.Inputs, err = unmarshalInputs(inputs); err != nil {
		return trace.Event{}, fmt.Errorf("event %s: %w", e.ID, err)
	}
	return e, nil
}
