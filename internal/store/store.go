// Package store owns the SQLite database holding the invocation history.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
)

var (
	// ErrSchema marks failures while creating or migrating the table.
	ErrSchema = errors.New("schema error")
	// ErrPersist marks failures while writing a batch; the whole
	// transaction is rolled back.
	ErrPersist = errors.New("persist error")
)

const maxOpenConns = 5

const pragmaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 10000;
PRAGMA foreign_keys = ON;
`

func init() {
	sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
		_, err := conn.ExecContext(context.Background(), pragmaSQL, []driver.NamedValue{})
		return err
	})
}

type Store struct {
	path string
	db   *sql.DB
}

// Open creates the parent directory and the database file if needed,
// applies the pragmas and brings the schema up to date.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{path: path, db: db}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Count returns the number of stored invocations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM codex_invocations").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) Close() error {
	_, _ = s.db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("%w: ensure codex_invocations: %v", ErrSchema, err)
	}

	existing, err := tableColumns(ctx, db, "codex_invocations")
	if err != nil {
		return fmt.Errorf("%w: inspect codex_invocations: %v", ErrSchema, err)
	}

	for _, col := range migratedColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE codex_invocations ADD COLUMN %s %s", col.name, col.typ)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: add column %s: %v", ErrSchema, col.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			typ       string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
