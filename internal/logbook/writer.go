package logbook

import (
	"fmt"
	"os"
	"sync"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

// Writer appends entry blocks to the research log. Each append is a single
// write of one complete block against a file opened with O_APPEND, so a
// crash never leaves a half-written entry visible to a reader.
type Writer struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens (creating if needed) the log at path for appending.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return &Writer{path: path, f: f}, nil
}

// Append implements feed.Journal. Failure is feed.ErrLogWrite; the caller
// aborts the run rather than silently dropping an entry.
func (w *Writer) Append(entry feed.LogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	block := []byte(Render(entry))
	n, err := w.f.Write(block)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", feed.ErrLogWrite, w.path, err)
	}
	if n != len(block) {
		return fmt.Errorf("%w: short write to %s (%d of %d bytes)", feed.ErrLogWrite, w.path, n, len(block))
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", feed.ErrLogWrite, w.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
