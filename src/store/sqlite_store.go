package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	cm "github.com/openherd/openherd/src/common"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists blobs in a single SQLite table. It is an alternative to
// BadgerStore for platforms where a single database file is preferable.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens, or creates, the SQLite database file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			name  TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load implements the Store interface.
func (s *SQLiteStore) Load(name string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, cm.NewErr("SQLiteStore", cm.KeyNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Save implements the Store interface.
func (s *SQLiteStore) Save(name string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value)
	return err
}

// Close implements the Store interface.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// StorePath returns the database file.
func (s *SQLiteStore) StorePath() string {
	return s.path
}
