// Package verify retrieves attached documents and confirms they are genuine
// machine-readable text rather than image-only scans. A bounded preview of
// the extracted text is returned for the log entry.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/policy"
)

// Options bounds a Verifier.
type Options struct {
	UserAgent        string
	MaxDocumentBytes int64
	MinReadableChars int
	PreviewChars     int
}

// Verifier fetches documents fully into memory and attempts text extraction.
type Verifier struct {
	client  *http.Client
	retry   *policy.ExponentialRetryPolicy
	limiter *policy.HostLimiter
	opts    Options
	logger  *zap.Logger
}

// New builds a Verifier. The retry policy bounds transient fetch failures;
// verification failures themselves are never retried.
func New(
	client *http.Client,
	retry *policy.ExponentialRetryPolicy,
	limiter *policy.HostLimiter,
	opts Options,
	logger *zap.Logger,
) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	if retry == nil {
		retry = policy.NewExponentialRetryPolicy()
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = 32 << 20
	}
	if opts.MinReadableChars <= 0 {
		opts.MinReadableChars = 50
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = 500
	}
	return &Verifier{
		client:  client,
		retry:   retry,
		limiter: limiter,
		opts:    opts,
		logger:  logger,
	}
}

// Verify implements feed.Verifier. An item lacking a document reference
// skips verification entirely; verification only gates items that claim to
// have an attached document.
func (v *Verifier) Verify(ctx context.Context, ref feed.DocumentRef) feed.VerifyResult {
	if ref.Empty() {
		return feed.VerifyResult{OK: true}
	}

	payload := ref.Payload
	if len(payload) == 0 {
		fetched, err := v.fetch(ctx, ref.URL)
		if err != nil {
			return feed.VerifyResult{
				Reason: fmt.Errorf("%w: %s: %v", feed.ErrFetchFailed, ref.URL, err),
			}
		}
		payload = fetched
	}

	text, err := v.extract(payload)
	if err != nil {
		v.logger.Debug("document extraction failed", zap.String("url", ref.URL), zap.Error(err))
		return feed.VerifyResult{
			Reason: fmt.Errorf("%w: %v", feed.ErrNotExtractable, err),
		}
	}

	preview := truncateRunes(text, v.opts.PreviewChars)
	if countReadable(preview) < v.opts.MinReadableChars {
		return feed.VerifyResult{
			Reason: fmt.Errorf("%w: preview mostly unreadable", feed.ErrNotExtractable),
		}
	}
	return feed.VerifyResult{OK: true, Preview: preview}
}

// fetch downloads the document fully into memory with bounded retries.
func (v *Verifier) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := v.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !v.retry.ShouldRetry(err, attempt+1) {
			break
		}
		v.logger.Debug("document fetch retry",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if werr := v.retry.Wait(ctx, attempt); werr != nil {
			return nil, werr
		}
	}
	return nil, lastErr
}

func (v *Verifier) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	if v.limiter != nil {
		if err := v.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", v.opts.UserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			v.logger.Debug("Failed to close document body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, v.opts.MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > v.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", v.opts.MaxDocumentBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty document body")
	}
	return body, nil
}

// extract dispatches on the sniffed payload kind.
func (v *Verifier) extract(payload []byte) (string, error) {
	switch {
	case bytes.HasPrefix(payload, []byte("%PDF-")):
		return extractPDF(payload)
	case looksLikeHTML(payload):
		return extractHTML(payload), nil
	default:
		return string(payload), nil
	}
}

func looksLikeHTML(payload []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(payload[:min(len(payload), 512)]))
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype html"))
}

// countReadable counts printable, non-space runes.
func countReadable(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func truncateRunes(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
