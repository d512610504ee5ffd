package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DBFileName is the name of the database file inside the cache directory.
const DBFileName = "cache.sqlite"

const (
	createSQL      = `CREATE TABLE IF NOT EXISTS entries (key TEXT PRIMARY KEY, val BLOB, exp BLOB)`
	createIndexSQL = `CREATE INDEX IF NOT EXISTS keyname_index ON entries (key)`
	readSQL        = `SELECT val, exp FROM entries WHERE key = ?`
	writeSQL       = `INSERT INTO entries (key, val, exp) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET val = excluded.val, exp = excluded.exp`
	insertSQL = `INSERT INTO entries (key, val, exp) VALUES (?, ?, ?)`
	deleteSQL = `DELETE FROM entries WHERE key = ?`
	countSQL  = `SELECT COUNT(*) FROM entries`
	clearSQL  = `DELETE FROM entries`
)

// sqliteStore is the durable entry table. One store holds one long-lived
// handle for the process lifetime; SQLite's own locking serializes
// conflicting writers.
type sqliteStore struct {
	db   *sql.DB
	path string
}

// openStore creates the cache directory, database file, and schema as
// needed. dir "" or ":memory:" selects an in-memory database. Failures map
// to ErrStorageUnavailable, which callers must treat as fatal.
func openStore(dir string) (*sqliteStore, error) {
	path := ":memory:"
	if dir != "" && dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating cache dir %s: %v", ErrStorageUnavailable, dir, err)
		}
		path = filepath.Join(dir, DBFileName)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrStorageUnavailable, path, err)
	}
	// A single connection is the whole pool. In-memory databases require it
	// (each connection would otherwise get its own database), and one handle
	// is sufficient at this scale.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
		createSQL,
		createIndexSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: initializing %s: %v", ErrStorageUnavailable, path, err)
		}
	}

	return &sqliteStore{db: db, path: path}, nil
}

func (s *sqliteStore) read(ctx context.Context, key string) (val, exp []byte, err error) {
	err = s.db.QueryRowContext(ctx, readSQL, key).Scan(&val, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, storeErr("read", err)
	}
	return val, exp, nil
}

// write is an unconditional insert-or-replace; it never fails on a
// duplicate key.
func (s *sqliteStore) write(ctx context.Context, key string, val, exp []byte) error {
	_, err := s.db.ExecContext(ctx, writeSQL, key, val, exp)
	return storeErr("write", err)
}

// insert fails with ErrDuplicateKey when the key already exists, letting the
// facade distinguish a first write from an overwrite.
func (s *sqliteStore) insert(ctx context.Context, key string, val, exp []byte) error {
	_, err := s.db.ExecContext(ctx, insertSQL, key, val, exp)
	return storeErr("insert", err)
}

func (s *sqliteStore) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, deleteSQL, key)
	return storeErr("delete", err)
}

// count returns the total number of rows, expired or not.
func (s *sqliteStore) count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

func (s *sqliteStore) clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, clearSQL)
	return storeErr("clear", err)
}

func (s *sqliteStore) close() error {
	return s.db.Close()
}

// storeErr maps driver errors onto the package taxonomy: lock contention
// becomes ErrStorageBusy, primary-key conflicts become ErrDuplicateKey, and
// everything else passes through wrapped with the failing operation.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch {
		case se.Code() == sqlite3.SQLITE_BUSY || se.Code() == sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %s: %v", ErrStorageBusy, op, err)
		case se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, op, err)
		}
	}
	return fmt.Errorf("cache: %s: %w", op, err)
}
