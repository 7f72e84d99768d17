// Package webpage is the generic-page source adapter: a targeted fetch of
// configured URLs for providers that expose no structured API. The fetched
// page body rides along as the item's document payload, so verification
// needs no second fetch.
package webpage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/source"
)

// Adapter fetches a fixed list of pages via Colly.
type Adapter struct {
	base   *colly.Collector
	gate   *source.Gate
	urls   []string
	logger *zap.Logger
}

// New constructs a configured page adapter.
func New(urls []string, gate *source.Gate, userAgent string, timeout time.Duration, logger *zap.Logger) *Adapter {
	base := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(userAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(timeout)

	return &Adapter{
		base:   base,
		gate:   gate,
		urls:   urls,
		logger: logger,
	}
}

// Name implements feed.Source.
func (a *Adapter) Name() string { return "webpage" }

// FetchCandidates implements feed.Source. A single failing page is skipped
// with a diagnostic; the adapter fails only when every page is unreachable.
func (a *Adapter) FetchCandidates(ctx context.Context, _ feed.Query) ([]feed.CandidateItem, error) {
	var items []feed.CandidateItem
	var lastErr error
	for _, pageURL := range a.urls {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		item, err := a.fetchOne(ctx, pageURL)
		if err != nil {
			a.logger.Warn("page fetch failed", zap.String("url", pageURL), zap.Error(err))
			lastErr = err
			continue
		}
		items = append(items, *item)
	}
	if len(items) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: webpage: %v", feed.ErrSourceUnavailable, lastErr)
	}
	return items, nil
}

func (a *Adapter) fetchOne(ctx context.Context, pageURL string) (*feed.CandidateItem, error) {
	if err := a.gate.Admit(ctx, pageURL); err != nil {
		return nil, err
	}

	collector := a.base.Clone()

	var (
		once        sync.Once
		body        []byte
		title       string
		description string
		fetchErr    error
	)

	collector.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			body = append([]byte{}, r.Body...)
		})
	})
	collector.OnHTML("title", func(e *colly.HTMLElement) {
		if title == "" {
			title = e.Text
		}
	})
	collector.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if description == "" {
			description = e.Attr("content")
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		fetchErr = err
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, err
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(body) == 0 {
		return nil, errors.New("empty page body")
	}
	if title == "" {
		title = pageURL
	}

	return &feed.CandidateItem{
		ID:     pageURL,
		Title:  title,
		Link:   pageURL,
		Source: "Web",
		Raw: map[string]string{
			"abstract": description,
		},
		Document: feed.DocumentRef{Payload: body},
	}, nil
}
