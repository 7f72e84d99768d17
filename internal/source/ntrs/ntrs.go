// Package ntrs adapts the NASA NTRS citation search API to the pipeline's
// source contract.
package ntrs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/source"
)

const maxPages = 10

// Client queries the NTRS citation search endpoint.
type Client struct {
	HTTP      *http.Client
	Gate      *source.Gate
	BaseURL   string
	UserAgent string
	PageSize  int
	Logger    *zap.Logger
}

// New builds an NTRS adapter with production defaults.
func New(httpClient *http.Client, gate *source.Gate, userAgent string, pageSize int, logger *zap.Logger) *Client {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Client{
		HTTP:      httpClient,
		Gate:      gate,
		BaseURL:   "https://ntrs.nasa.gov",
		UserAgent: userAgent,
		PageSize:  pageSize,
		Logger:    logger,
	}
}

// Name implements feed.Source.
func (c *Client) Name() string { return "ntrs" }

// FetchCandidates implements feed.Source. Pagination is drained within the
// call; a malformed record is skipped with a diagnostic.
func (c *Client) FetchCandidates(ctx context.Context, q feed.Query) ([]feed.CandidateItem, error) {
	var items []feed.CandidateItem
	for page := 0; page < maxPages; page++ {
		batch, total, err := c.fetchPage(ctx, q, page)
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
		if (page+1)*c.PageSize >= total {
			break
		}
	}
	return items, nil
}

func (c *Client) fetchPage(ctx context.Context, q feed.Query, page int) ([]feed.CandidateItem, int, error) {
	params := url.Values{
		"q":         {strings.Join(q.Keywords, " ")},
		"page.size": {strconv.Itoa(c.PageSize)},
		"page.from": {strconv.Itoa(page * c.PageSize)},
	}
	if !q.Since.IsZero() {
		params.Set("published.gte", q.Since.Format("2006-01-02"))
	}
	searchURL := c.BaseURL + "/api/citations/search?" + params.Encode()

	if err := c.Gate.Admit(ctx, searchURL); err != nil {
		return nil, 0, fmt.Errorf("%w: ntrs: %v", feed.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: ntrs: %v", feed.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: ntrs: %v", feed.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: ntrs: HTTP %d", feed.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("%w: ntrs: decode response: %v", feed.ErrSourceUnavailable, err)
	}

	items := make([]feed.CandidateItem, 0, len(payload.Results))
	for _, rec := range payload.Results {
		item, err := c.normalize(rec, q.Since)
		if err != nil {
			c.Logger.Warn("skipping malformed NTRS record", zap.Error(err))
			continue
		}
		if item == nil {
			continue // outside the query window
		}
		items = append(items, *item)
	}
	return items, payload.Stats.Total, nil
}

// normalize maps a raw citation onto a CandidateItem. Returns (nil, nil)
// for records outside the query window.
func (c *Client) normalize(rec citation, since time.Time) (*feed.CandidateItem, error) {
	if rec.ID == 0 {
		return nil, fmt.Errorf("%w: citation without id", feed.ErrMalformedItem)
	}
	if rec.Title == "" {
		return nil, fmt.Errorf("%w: citation %d without title", feed.ErrMalformedItem, rec.ID)
	}

	published := rec.publicationDate()
	// The API filters by date; this re-check guards against feed drift.
	if !since.IsZero() && !published.IsZero() && published.Before(since) {
		return nil, nil
	}

	id := strconv.Itoa(rec.ID)
	item := feed.CandidateItem{
		ID:        "ntrs:" + id,
		Title:     rec.Title,
		Link:      c.BaseURL + "/citations/" + id,
		Published: published,
		Source:    "NASA",
		Raw: map[string]string{
			"abstract": rec.Abstract,
		},
	}
	if pdfURL := rec.pdfURL(c.BaseURL); pdfURL != "" {
		item.Document = feed.DocumentRef{URL: pdfURL}
	}
	return &item, nil
}

type searchResponse struct {
	Stats struct {
		Total int `json:"total"`
	} `json:"stats"`
	Results []citation `json:"results"`
}

type citation struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Abstract     string `json:"abstract"`
	Distribution string `json:"distributionDate"`
	Submitted    string `json:"submittedDate"`
	Publications []struct {
		PublicationDate string `json:"publicationDate"`
	} `json:"publications"`
	Downloads []struct {
		Mimetype string            `json:"mimetype"`
		Links    map[string]string `json:"links"`
	} `json:"downloads"`
}

// publicationDate prefers an explicit publication date, falling back to the
// distribution or submission date.
func (c citation) publicationDate() time.Time {
	candidates := make([]string, 0, len(c.Publications)+2)
	for _, pub := range c.Publications {
		if pub.PublicationDate != "" {
			candidates = append(candidates, pub.PublicationDate)
		}
	}
	candidates = append(candidates, c.Distribution, c.Submitted)

	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		// Dates arrive as ISO 8601, sometimes with fractional seconds.
		raw = strings.Split(strings.Replace(raw, "Z", "+00:00", 1), ".")[0]
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// pdfURL resolves the first PDF download link, absolute against base.
func (c citation) pdfURL(base string) string {
	for _, dl := range c.Downloads {
		if dl.Mimetype != "application/pdf" {
			continue
		}
		link := dl.Links["pdf"]
		if link == "" {
			link = dl.Links["original"]
		}
		if link == "" {
			continue
		}
		if !strings.HasPrefix(link, "http") {
			link = base + link
		}
		return link
	}
	return ""
}
