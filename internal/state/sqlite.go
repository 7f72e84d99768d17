package state

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

// SQLiteStore keeps the seen-set in a SQLite database. Contains is served
// from an in-memory map loaded fully at startup; MarkSeen stages ids and
// Persist commits them in one transaction.
type SQLiteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	ids     map[string]time.Time
	pending map[string]time.Time
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening seen database: %w", err)
	}
	return &SQLiteStore{
		db:      db,
		ids:     make(map[string]time.Time),
		pending: make(map[string]time.Time),
	}, nil
}

// Load implements feed.Store.
func (s *SQLiteStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS seen (
		id TEXT PRIMARY KEY,
		first_seen TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("%w: create schema: %v", feed.ErrStateCorrupt, err)
	}

	rows, err := s.db.Query(`SELECT id, first_seen FROM seen`)
	if err != nil {
		return fmt.Errorf("%w: query seen set: %v", feed.ErrStateCorrupt, err)
	}
	defer rows.Close()

	ids := make(map[string]time.Time)
	for rows.Next() {
		var id, firstSeen string
		if err := rows.Scan(&id, &firstSeen); err != nil {
			return fmt.Errorf("%w: scan row: %v", feed.ErrStateCorrupt, err)
		}
		at, _ := time.Parse(time.RFC3339, firstSeen)
		ids[id] = at
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate seen set: %v", feed.ErrStateCorrupt, err)
	}
	s.ids = ids
	return nil
}

// Contains implements feed.Store.
func (s *SQLiteStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return true
	}
	_, ok := s.pending[id]
	return ok
}

// MarkSeen implements feed.Store.
func (s *SQLiteStore) MarkSeen(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return
	}
	if _, ok := s.pending[id]; ok {
		return
	}
	s.pending[id] = at
}

// Persist implements feed.Store.
func (s *SQLiteStore) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin persist: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO seen (id, first_seen) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare persist: %w", err)
	}
	defer stmt.Close()

	for id, at := range s.pending {
		if _, err := stmt.Exec(id, at.UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("persist id %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit persist: %w", err)
	}

	for id, at := range s.pending {
		s.ids[id] = at
	}
	s.pending = make(map[string]time.Time)
	return nil
}

// Close implements feed.Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
