package feed

import "errors"

// Error taxonomy for the pipeline. Per-item failures are recovered locally,
// per-source failures degrade gracefully, state-integrity failures abort
// the run.
var (
	// ErrSourceUnavailable marks a source that is entirely unreachable.
	// The remaining sources continue; the failure is reported at run end.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedItem marks a single upstream record that could not be
	// parsed. The record is skipped with a diagnostic.
	ErrMalformedItem = errors.New("malformed item")

	// ErrFetchFailed marks a document that could not be retrieved after
	// bounded retries.
	ErrFetchFailed = errors.New("document fetch failed")

	// ErrNotExtractable marks a document whose extraction produced no
	// readable text (image-only or scanned).
	ErrNotExtractable = errors.New("document not extractable")

	// ErrStateCorrupt marks an unreadable dedup state file. Fatal: the run
	// refuses to start rather than risk duplicate entries.
	ErrStateCorrupt = errors.New("dedup state corrupt")

	// ErrLogWrite marks a failed append to the research log. Fatal: the run
	// aborts rather than silently dropping an entry that should exist.
	ErrLogWrite = errors.New("log write failed")
)
