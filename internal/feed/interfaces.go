package feed

import (
	"context"
	"time"
)

// Source fetches candidate items from one external provider. Implementations
// must not fail on a single malformed upstream record; such records are
// skipped with a diagnostic. Only transport-level failure returns an error.
// Pagination, where the provider has it, is fully drained within one call.
type Source interface {
	Name() string
	FetchCandidates(ctx context.Context, q Query) ([]CandidateItem, error)
}

// Classifier decides whether a candidate belongs in the log. It is a pure
// function of title and raw metadata; it never touches the network.
type Classifier interface {
	Classify(item CandidateItem) []string
}

// Verifier confirms an attached document yields genuine extractable text.
type Verifier interface {
	Verify(ctx context.Context, ref DocumentRef) VerifyResult
}

// Store is the durable set of identifiers already committed to the log.
// It is the single source of truth for "already logged".
type Store interface {
	// Contains reports whether id was marked seen in this or a prior run.
	Contains(id string) bool
	// MarkSeen records id with a first-seen timestamp. Marking twice is a no-op.
	MarkSeen(id string, at time.Time)
	// Load reads the durable state. Unreadable state is a fatal condition.
	Load() error
	// Persist makes every id marked so far visible to a future Load in a
	// new process.
	Persist() error
	Close() error
}

// Journal appends formatted entries to the durable research log. It does
// not deduplicate; the orchestrator guarantees at most one Append per id.
type Journal interface {
	Append(entry LogEntry) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
