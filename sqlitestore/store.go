// Package sqlitestore provides a durable pack.Store backed by SQLite.
//
// Entries live in a single key/value table keyed by the dot-joined path.
// A batch scope maps onto one SQLite transaction, so multi-field pack
// writes commit atomically and observers of the database never see a
// partially written pack.
package sqlitestore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	pack "github.com/goliatone/go-parampack"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS parameters (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a SQLite-backed pack.Store.
type Store struct {
	db *sql.DB

	batchDepth int
	tx         *sql.Tx
}

var _ pack.Store = (*Store)(nil)

// Open creates or opens a SQLite database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: connect: %w", err)
	}

	// SQLite supports a single writer; keeping one connection avoids
	// SQLITE_BUSY under interleaved reads and writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection, rolling back any open batch.
func (s *Store) Close() error {
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
		s.batchDepth = 0
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	if s.tx != nil {
		return s.tx.Query(query, args...)
	}
	return s.db.Query(query, args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	if s.tx != nil {
		return s.tx.QueryRow(query, args...)
	}
	return s.db.QueryRow(query, args...)
}

func (s *Store) exec(query string, args ...any) error {
	var err error
	if s.tx != nil {
		_, err = s.tx.Exec(query, args...)
	} else {
		_, err = s.db.Exec(query, args...)
	}
	return err
}

// Has reports whether key holds an entry.
func (s *Store) Has(key string) (bool, error) {
	var one int
	err := s.queryRow(`SELECT 1 FROM parameters WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlitestore: has %q: %w", key, err)
	}
	return true, nil
}

// Get returns the value stored under key and whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.queryRow(`SELECT value FROM parameters WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlitestore: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(key, value string) error {
	err := s.exec(`
		INSERT INTO parameters (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("sqlitestore: set %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry under key, if any.
func (s *Store) Delete(key string) error {
	if err := s.exec(`DELETE FROM parameters WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key with the given prefix, sorted.
func (s *Store) Keys(prefix string) ([]string, error) {
	rows, err := s.query(
		`SELECT key FROM parameters WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: keys %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlitestore: keys %q: %w", prefix, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: keys %q: %w", prefix, err)
	}
	return keys, nil
}

// BeginBatch opens a batch scope. The outermost scope starts a
// transaction; releasing it commits. Scopes may nest.
func (s *Store) BeginBatch() pack.EndBatch {
	s.batchDepth++
	if s.batchDepth == 1 {
		tx, err := s.db.Begin()
		if err == nil {
			s.tx = tx
		}
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		s.batchDepth--
		if s.batchDepth == 0 && s.tx != nil {
			s.tx.Commit()
			s.tx = nil
		}
	}
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
