package fedreg

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

func newTestClient(ts *httptest.Server) *Client {
	c := New(ts.Client(), nil, "test-agent (test@example.com)", []string{"federal-aviation-administration"}, "airworthiness", 20, zap.NewNop())
	c.BaseURL = ts.URL
	return c
}

func TestFetchCandidatesNormalizes(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documents.json", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, []string{"federal-aviation-administration"}, q["conditions[agencies][]"])
		require.Equal(t, []string{"RULE", "PRORULE"}, q["conditions[type][]"])
		require.Equal(t, "airworthiness", q.Get("conditions[term]"))
		require.Equal(t, "2024-06-01", q.Get("conditions[publication_date][gte]"))
		fmt.Fprint(w, `{
			"results": [
				{
					"document_number": "2024-13001",
					"title": "Airworthiness Directives; Transport Category Airplanes",
					"abstract": "Requires repetitive inspections of wing attach fittings.",
					"type": "Rule",
					"html_url": "https://www.federalregister.gov/documents/2024/06/14/2024-13001/airworthiness-directives",
					"pdf_url": "https://www.govinfo.gov/content/pkg/FR-2024-06-14/pdf/2024-13001.pdf",
					"publication_date": "2024-06-14"
				},
				{
					"document_number": "2024-13002",
					"title": "Proposed Rule Without Abstract",
					"description": "Fallback description text.",
					"type": "Proposed Rule",
					"html_url": "https://www.federalregister.gov/documents/2024/06/15/2024-13002/proposed-rule"
				}
			]
		}`)
	}))
	defer ts.Close()

	items, err := newTestClient(ts).FetchCandidates(context.Background(), feed.Query{
		Since: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	require.Equal(t, "fedreg:2024-13001", first.ID)
	require.Equal(t, "FAA", first.Source)
	require.Equal(t, "https://www.federalregister.gov/documents/2024/06/14/2024-13001/airworthiness-directives", first.Link)
	require.Equal(t, "https://www.govinfo.gov/content/pkg/FR-2024-06-14/pdf/2024-13001.pdf", first.Document.URL)
	require.Equal(t, "Requires repetitive inspections of wing attach fittings.", first.Raw["abstract"])
	require.Equal(t, "Rule", first.Raw["type"])
	require.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), first.Published)

	second := items[1]
	require.Equal(t, "Fallback description text.", second.Raw["abstract"])
	require.True(t, second.Document.Empty())
}

func TestFetchCandidatesFollowsNextPage(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The second page is reached via the literal next_page_url,
		// not rebuilt query parameters.
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{
				"results": [{"document_number": "2024-2", "title": "Second Page Rule", "html_url": "https://www.federalregister.gov/documents/2024/06/02/2024-2/b"}]
			}`)
			return
		}
		fmt.Fprintf(w, `{
			"results": [{"document_number": "2024-1", "title": "First Page Rule", "html_url": "https://www.federalregister.gov/documents/2024/06/01/2024-1/a"}],
			"next_page_url": %q
		}`, ts.URL+"/api/v1/documents.json?page=2")
	}))
	defer ts.Close()

	items, err := newTestClient(ts).FetchCandidates(context.Background(), feed.Query{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "fedreg:2024-1", items[0].ID)
	require.Equal(t, "fedreg:2024-2", items[1].ID)
}

func TestFetchCandidatesSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"results": [
				{"title": "No document number"},
				{"document_number": "2024-2", "title": "No link at all"},
				{"document_number": "2024-3", "title": "Valid Rule", "html_url": "https://www.federalregister.gov/documents/2024/06/01/2024-3/valid"}
			]
		}`)
	}))
	defer ts.Close()

	items, err := newTestClient(ts).FetchCandidates(context.Background(), feed.Query{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "fedreg:2024-3", items[0].ID)
}

func TestFetchCandidatesReportsServerFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).FetchCandidates(context.Background(), feed.Query{})
	require.ErrorIs(t, err, feed.ErrSourceUnavailable)
}
