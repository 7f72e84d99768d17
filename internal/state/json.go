// Package state implements the durable seen-set. Two backends exist: a JSON
// snapshot file rewritten atomically on each persist, and a SQLite database
// for larger deployments. Both load fully at startup; the research log is
// never re-parsed to rebuild this state on the hot path.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

// JSONStore keeps the seen-set in memory and snapshots it to a JSON file.
// Persist writes a temp file in the same directory and renames it over the
// old snapshot, so a crash mid-persist leaves the previous snapshot intact.
type JSONStore struct {
	mu   sync.Mutex
	path string
	ids  map[string]time.Time
}

// NewJSONStore builds a store backed by the snapshot at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		ids:  make(map[string]time.Time),
	}
}

// Load implements feed.Store. A missing snapshot is an empty set; an
// unreadable one is feed.ErrStateCorrupt.
func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", feed.ErrStateCorrupt, s.path, err)
	}

	ids := make(map[string]time.Time)
	if err := json.Unmarshal(data, &ids); err != nil {
		// Older snapshots were a bare list of identifiers.
		var legacy []string
		if lerr := json.Unmarshal(data, &legacy); lerr != nil {
			return fmt.Errorf("%w: parse %s: %v", feed.ErrStateCorrupt, s.path, err)
		}
		for _, id := range legacy {
			ids[id] = time.Time{}
		}
	}
	s.ids = ids
	return nil
}

// Contains implements feed.Store.
func (s *JSONStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// MarkSeen implements feed.Store. Marking twice is a no-op.
func (s *JSONStore) MarkSeen(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = at
}

// Persist implements feed.Store.
func (s *JSONStore) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.MarshalIndent(s.ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen set: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Close implements feed.Store.
func (s *JSONStore) Close() error { return nil }

// Len reports the number of ids in the set.
func (s *JSONStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
