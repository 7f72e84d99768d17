// Package feed defines the core types and interfaces shared across the
// ingestion pipeline: candidate records produced by source adapters, the
// normalized records consumed by the log writer, and the run report.
package feed

import (
	"time"
)

// DocumentRef points at an attached document, either by URL or as an
// in-memory payload already retrieved by the source adapter.
type DocumentRef struct {
	URL     string
	Payload []byte
}

// Empty reports whether the item carries no document at all.
func (d DocumentRef) Empty() bool {
	return d.URL == "" && len(d.Payload) == 0
}

// CandidateItem is a raw record produced by a source adapter. It is
// immutable once produced; the pipeline never mutates it.
type CandidateItem struct {
	// ID is source-qualified and stable across runs, e.g. "ntrs:20240001234".
	// Adapters that have no native identifier use the canonical link.
	ID        string
	Title     string
	Link      string
	Published time.Time
	Source    string
	Raw       map[string]string
	Document  DocumentRef
}

// NormalizedRecord is a CandidateItem that passed relevance filtering and
// document verification. It is owned by the pipeline stage processing it
// and discarded after being written or rejected.
type NormalizedRecord struct {
	CandidateItem
	Relevance []string
	Verified  bool
	Preview   string
}

// LogEntry is the externally visible unit appended to the research log.
// Once written it is never edited or removed.
type LogEntry struct {
	Date      time.Time
	Title     string
	Link      string
	Relevance []string
	Summary   string
}

// Query captures the per-run fetch window handed to every source adapter.
// Two calls with the same Query are expected to yield the same candidates.
type Query struct {
	Keywords   []string
	Since      time.Time
	MaxResults int
}

// VerifyResult is returned by a document Verifier.
type VerifyResult struct {
	OK      bool
	Preview string
	// Reason is nil when OK, otherwise ErrFetchFailed or ErrNotExtractable
	// (possibly wrapped).
	Reason error
}

// RunReport summarizes one pipeline run for the operator.
type RunReport struct {
	RunID        string            `json:"run_id"`
	Started      time.Time         `json:"started_at"`
	Finished     time.Time         `json:"finished_at"`
	Fetched      int               `json:"fetched"`
	FilteredOut  int               `json:"filtered_out"`
	VerifyFailed int               `json:"verify_failed"`
	Duplicates   int               `json:"duplicates"`
	Written      int               `json:"written"`
	Malformed    int               `json:"malformed"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
}
