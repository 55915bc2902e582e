package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps entries in a single table.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens the database at path and creates the table if needed.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions(opts)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: o.table}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`, s.table)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", s.table, err)
	}
	return s, nil
}

// Load reads every row.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT key, value, created_at FROM %s`, s.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	entries := map[string]Entry{}
	for rows.Next() {
		var (
			key     string
			value   []byte
			created int64
		)
		if err := rows.Scan(&key, &value, &created); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", ErrCorrupt, s.table, err)
		}
		entries[key] = Entry{Value: value, CreatedAt: time.Unix(0, created).UTC()}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return entries, nil
}

// Save replaces all rows in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries map[string]Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("truncate %s: %w", s.table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (key, value, created_at) VALUES (?, ?, ?)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for k, e := range entries {
		if _, err := stmt.ExecContext(ctx, k, []byte(e.Value), e.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("insert %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
