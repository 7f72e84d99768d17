// Package brave adapts the Brave web-search API, the fallback source for
// topics no structured government API covers.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/source"
)

// Client queries the Brave web search endpoint.
type Client struct {
	HTTP      *http.Client
	Gate      *source.Gate
	BaseURL   string
	UserAgent string
	APIKey    string
	Query     string
	Logger    *zap.Logger
}

// New builds a Brave search adapter with production defaults. The query
// overrides the pipeline keywords when set.
func New(httpClient *http.Client, gate *source.Gate, userAgent, apiKey, query string, logger *zap.Logger) *Client {
	return &Client{
		HTTP:      httpClient,
		Gate:      gate,
		BaseURL:   "https://api.search.brave.com",
		UserAgent: userAgent,
		APIKey:    apiKey,
		Query:     query,
		Logger:    logger,
	}
}

// Name implements feed.Source.
func (c *Client) Name() string { return "brave" }

// FetchCandidates implements feed.Source.
func (c *Client) FetchCandidates(ctx context.Context, q feed.Query) ([]feed.CandidateItem, error) {
	query := c.Query
	if query == "" {
		query = strings.Join(q.Keywords, " ")
	}

	searchURL := c.BaseURL + "/res/v1/web/search?" + url.Values{"q": {query}}.Encode()
	if err := c.Gate.Admit(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("%w: brave: %v", feed.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: brave: %v", feed.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: brave: %v", feed.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: brave: invalid API key", feed.ErrSourceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: brave: HTTP %d", feed.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: brave: decode response: %v", feed.ErrSourceUnavailable, err)
	}

	items := make([]feed.CandidateItem, 0, len(payload.Web.Results))
	for _, rec := range payload.Web.Results {
		if rec.URL == "" {
			c.Logger.Warn("skipping Brave result without URL", zap.String("title", rec.Title))
			continue
		}
		item := feed.CandidateItem{
			// Web results have no native identifier; the URL is the
			// stable key, which also makes log recovery a round trip.
			ID:     rec.URL,
			Title:  rec.Title,
			Link:   rec.URL,
			Source: "Brave Search",
			Raw: map[string]string{
				"abstract": rec.Description,
			},
		}
		if strings.HasSuffix(strings.ToLower(rec.URL), ".pdf") {
			item.Document = feed.DocumentRef{URL: rec.URL}
		}
		items = append(items, item)
	}
	return items, nil
}

type searchResponse struct {
	Web struct {
		Results []webResult `json:"results"`
	} `json:"web"`
}

type webResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
