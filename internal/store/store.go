package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. Version 1 added the
// journal-wide (seq, id) index.
const schemaVersion = 1

// dsnParams are applied by the driver to every connection it opens.
const dsnParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// Store is a recompute journal backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the journal at path, creating it if needed. The path ":memory:"
// gives a private in-memory journal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// A single connection serialises writers and keeps an in-memory journal
	// visible to every query.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return s, nil
}

// init creates the tables and indexes that are missing and stamps the
// schema version. Every statement is idempotent, so reopening is safe.
func (s *Store) init(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the journal's user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
