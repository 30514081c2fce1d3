package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLite is a sqlite-backed store. Suitable when the cache should survive
// across runs next to other build artifacts.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens or creates a sqlite store at path.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS memo_cache (
			key_hash TEXT PRIMARY KEY,
			record   BLOB NOT NULL
		)
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create memo_cache table: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

// Get reads and verifies the record for key.
func (s *SQLite) Get(key string) (Entry, bool, error) {
	var raw []byte
	err := s.conn.QueryRow(
		`SELECT record FROM memo_cache WHERE key_hash = ?`,
		string(hashKey(key)),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("sqlite get: %w", err)
	}
	return decodeRecord(key, raw)
}

// Set writes the record for key, replacing any previous one.
func (s *SQLite) Set(key string, e Entry) error {
	data, err := encodeRecord(key, e)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO memo_cache (key_hash, record) VALUES (?, ?)`,
		string(hashKey(key)), data,
	)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
