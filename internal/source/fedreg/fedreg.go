// Package fedreg adapts the Federal Register documents API (rule and
// proposed-rule feed) to the pipeline's source contract.
package fedreg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/source"
)

const maxPages = 10

// Client queries the Federal Register documents endpoint.
type Client struct {
	HTTP      *http.Client
	Gate      *source.Gate
	BaseURL   string
	UserAgent string
	Agencies  []string
	Term      string
	PerPage   int
	Logger    *zap.Logger
}

// New builds a Federal Register adapter with production defaults.
func New(httpClient *http.Client, gate *source.Gate, userAgent string, agencies []string, term string, perPage int, logger *zap.Logger) *Client {
	if perPage <= 0 {
		perPage = 20
	}
	return &Client{
		HTTP:      httpClient,
		Gate:      gate,
		BaseURL:   "https://www.federalregister.gov",
		UserAgent: userAgent,
		Agencies:  agencies,
		Term:      term,
		PerPage:   perPage,
		Logger:    logger,
	}
}

// Name implements feed.Source.
func (c *Client) Name() string { return "fedreg" }

// FetchCandidates implements feed.Source. The API pages via next_page_url;
// all pages are drained within the call.
func (c *Client) FetchCandidates(ctx context.Context, q feed.Query) ([]feed.CandidateItem, error) {
	pageURL := c.firstPageURL(q)

	var items []feed.CandidateItem
	for page := 0; pageURL != "" && page < maxPages; page++ {
		payload, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		for _, rec := range payload.Results {
			item, err := c.normalize(rec)
			if err != nil {
				c.Logger.Warn("skipping malformed Federal Register record", zap.Error(err))
				continue
			}
			items = append(items, *item)
		}
		pageURL = payload.NextPageURL
	}
	return items, nil
}

func (c *Client) firstPageURL(q feed.Query) string {
	params := url.Values{}
	for _, agency := range c.Agencies {
		params.Add("conditions[agencies][]", agency)
	}
	params.Add("conditions[type][]", "RULE")
	params.Add("conditions[type][]", "PRORULE")
	if c.Term != "" {
		params.Set("conditions[term]", c.Term)
	}
	if !q.Since.IsZero() {
		params.Set("conditions[publication_date][gte]", q.Since.Format("2006-01-02"))
	}
	params.Set("order", "newest")
	params.Set("per_page", strconv.Itoa(c.PerPage))
	return c.BaseURL + "/api/v1/documents.json?" + params.Encode()
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*documentsResponse, error) {
	if err := c.Gate.Admit(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("%w: fedreg: %v", feed.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fedreg: %v", feed.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fedreg: %v", feed.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fedreg: HTTP %d", feed.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload documentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: fedreg: decode response: %v", feed.ErrSourceUnavailable, err)
	}
	return &payload, nil
}

func (c *Client) normalize(rec document) (*feed.CandidateItem, error) {
	if rec.DocumentNumber == "" {
		return nil, fmt.Errorf("%w: document without number", feed.ErrMalformedItem)
	}
	if rec.Title == "" {
		return nil, fmt.Errorf("%w: document %s without title", feed.ErrMalformedItem, rec.DocumentNumber)
	}

	abstract := rec.Abstract
	if abstract == "" {
		abstract = rec.Description
	}

	link := rec.HTMLURL
	if link == "" {
		link = rec.PDFURL
	}
	if link == "" {
		return nil, fmt.Errorf("%w: document %s without link", feed.ErrMalformedItem, rec.DocumentNumber)
	}

	var published time.Time
	if rec.PublicationDate != "" {
		published, _ = time.Parse("2006-01-02", rec.PublicationDate)
	}

	item := feed.CandidateItem{
		ID:        "fedreg:" + rec.DocumentNumber,
		Title:     rec.Title,
		Link:      link,
		Published: published,
		Source:    "FAA",
		Raw: map[string]string{
			"abstract": abstract,
			"type":     rec.Type,
		},
	}
	if rec.PDFURL != "" {
		item.Document = feed.DocumentRef{URL: rec.PDFURL}
	}
	return &item, nil
}

type documentsResponse struct {
	Results     []document `json:"results"`
	NextPageURL string     `json:"next_page_url"`
}

type document struct {
	DocumentNumber  string `json:"document_number"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	HTMLURL         string `json:"html_url"`
	PDFURL          string `json:"pdf_url"`
	PublicationDate string `json:"publication_date"`
}
