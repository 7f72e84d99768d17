// Package pipeline implements the orchestrator: one run pulls candidates
// from every source, filters by relevance, verifies attached documents,
// consults the dedup store, and commits new items to the research log
// exactly once.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/logbook"
	"github.com/r-baldridge/jules-aero-researcher/internal/metrics"
)

// Pipeline drives one ingestion run.
type Pipeline struct {
	sources    []feed.Source
	classifier feed.Classifier
	verifier   feed.Verifier
	store      feed.Store
	journal    feed.Journal
	clock      feed.Clock
	logger     *zap.Logger

	// commitMu serializes the append+mark+persist critical section so the
	// log/state pair has a single writer and a commit is never split
	// across a cancellation boundary.
	commitMu sync.Mutex
}

// New constructs a Pipeline.
func New(
	sources []feed.Source,
	classifier feed.Classifier,
	verifier feed.Verifier,
	store feed.Store,
	journal feed.Journal,
	clock feed.Clock,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		sources:    sources,
		classifier: classifier,
		verifier:   verifier,
		store:      store,
		journal:    journal,
		clock:      clock,
		logger:     logger,
	}
}

type batch struct {
	source string
	items  []feed.CandidateItem
	err    error
}

// Run executes one pass over every source. Per-item failures are recovered
// locally and per-source failures degrade gracefully; only log-write and
// state-persist failures abort the run. The relative interleaving of items
// from different sources is not defined.
func (p *Pipeline) Run(ctx context.Context, q feed.Query) (feed.RunReport, error) {
	report := feed.RunReport{
		RunID:        uuid.NewString(),
		Started:      p.clock.Now(),
		SourceErrors: make(map[string]string),
	}
	p.logger.Info("run started",
		zap.String("run_id", report.RunID),
		zap.Int("sources", len(p.sources)),
	)

	batches := p.fetchAll(ctx, q)

	var fatal error
	for b := range batches {
		if b.err != nil {
			metrics.SourceErrors.Inc()
			report.SourceErrors[b.source] = b.err.Error()
			p.logger.Error("source failed; continuing with others",
				zap.String("source", b.source),
				zap.Error(b.err),
			)
			continue
		}
		if fatal != nil {
			continue // drain remaining batches without processing
		}
		for _, item := range b.items {
			if err := ctx.Err(); err != nil {
				fatal = err
				break
			}
			report.Fetched++
			metrics.ItemsFetched.Inc()
			if err := p.processItem(ctx, item, &report); err != nil {
				fatal = err
				break
			}
		}
	}

	report.Finished = p.clock.Now()
	p.logReport(report, fatal)
	if fatal != nil {
		return report, fatal
	}
	return report, nil
}

// fetchAll queries every source concurrently. Each source yields its batch
// independently; no mutable state is shared across adapters.
func (p *Pipeline) fetchAll(ctx context.Context, q feed.Query) <-chan batch {
	out := make(chan batch)
	var wg sync.WaitGroup
	for _, src := range p.sources {
		wg.Add(1)
		go func(src feed.Source) {
			defer wg.Done()
			items, err := src.FetchCandidates(ctx, q)
			out <- batch{source: src.Name(), items: items, err: err}
		}(src)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// processItem walks one candidate through filter, verification, dedup and
// commit. A returned error is fatal to the run.
func (p *Pipeline) processItem(ctx context.Context, item feed.CandidateItem, report *feed.RunReport) error {
	tags := p.classifier.Classify(item)
	if len(tags) == 0 {
		report.FilteredOut++
		metrics.ItemsFiltered.Inc()
		return nil
	}

	result := p.verifier.Verify(ctx, item.Document)
	if !result.OK {
		report.VerifyFailed++
		metrics.VerifyFailures.Inc()
		p.logger.Warn("discarding item with unverifiable document",
			zap.String("id", item.ID),
			zap.Error(result.Reason),
		)
		return nil
	}

	record := feed.NormalizedRecord{
		CandidateItem: item,
		Relevance:     tags,
		Verified:      !item.Document.Empty(),
		Preview:       result.Preview,
	}
	return p.commit(record, report)
}

// commit performs the append+mark+persist sequence, in that order, as one
// critical section. A crash between append and mark leaves at worst a rare
// duplicate on the next run, never a lost entry.
func (p *Pipeline) commit(record feed.NormalizedRecord, report *feed.RunReport) error {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if p.store.Contains(record.ID) {
		// Expected steady-state case, not an error.
		report.Duplicates++
		metrics.ItemsDuplicate.Inc()
		return nil
	}

	now := p.clock.Now()
	entry := feed.LogEntry{
		Date:      now,
		Title:     record.Title,
		Link:      record.Link,
		Relevance: record.Relevance,
		Summary:   p.summary(record),
	}

	if err := p.journal.Append(entry); err != nil {
		return fmt.Errorf("append %s: %w", record.ID, err)
	}
	p.store.MarkSeen(record.ID, now)
	if err := p.store.Persist(); err != nil {
		return fmt.Errorf("persist seen set after %s: %w", record.ID, err)
	}

	report.Written++
	metrics.ItemsWritten.Inc()
	p.logger.Info("entry written",
		zap.String("id", record.ID),
		zap.String("title", record.Title),
		zap.Strings("relevance", record.Relevance),
	)
	return nil
}

// summary prefers the upstream abstract and falls back to the verified
// document preview.
func (p *Pipeline) summary(record feed.NormalizedRecord) string {
	if abstract := record.Raw["abstract"]; abstract != "" {
		return logbook.Summarize(abstract)
	}
	return logbook.Summarize(record.Preview)
}

func (p *Pipeline) logReport(report feed.RunReport, fatal error) {
	fields := []zap.Field{
		zap.String("run_id", report.RunID),
		zap.Duration("elapsed", report.Finished.Sub(report.Started)),
		zap.Int("fetched", report.Fetched),
		zap.Int("filtered_out", report.FilteredOut),
		zap.Int("verify_failed", report.VerifyFailed),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("written", report.Written),
	}
	for name, msg := range report.SourceErrors {
		fields = append(fields, zap.String("source_error_"+name, msg))
	}
	switch {
	case fatal != nil && !errors.Is(fatal, context.Canceled):
		p.logger.Error("run aborted", append(fields, zap.Error(fatal))...)
	case fatal != nil:
		p.logger.Warn("run canceled", fields...)
	default:
		p.logger.Info("run finished", fields...)
	}
}
