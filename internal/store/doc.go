// Package store provides a SQLite journal of recompute events.
//
// The journal is diagnostic: engines never read it back to restore state.
// It exists so a session's recomputations can be inspected after the fact
// with "calculate trace", and so golden traces can be compared across runs.
//
// Every row is a trace.Event keyed by its content-addressed ID. Writes are
// idempotent: recording the same event twice leaves one row. Reads always
// order by seq ASC, id ASC COLLATE BINARY so results are deterministic.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
