package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

func sampleEntry() feed.LogEntry {
	return feed.LogEntry{
		Date:      time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		Title:     "Structural Fatigue in Composite Panels",
		Link:      "https://ntrs.nasa.gov/citations/20240001234",
		Relevance: []string{"Structural Analysis"},
		Summary:   "A study of fatigue behavior in bonded composite panels.",
	}
}

func TestRenderEntryFormat(t *testing.T) {
	t.Parallel()

	got := Render(sampleEntry())
	want := "\n### [2024-06-15] Structural Fatigue in Composite Panels\n" +
		"**Source:** https://ntrs.nasa.gov/citations/20240001234\n" +
		"**Relevance:** Structural Analysis\n" +
		"**Summary:**\n" +
		"> A study of fatigue behavior in bonded composite panels.\n" +
		"---\n"
	require.Equal(t, want, got)
}

func TestRenderEmptySummary(t *testing.T) {
	t.Parallel()

	e := sampleEntry()
	e.Summary = ""
	require.Contains(t, Render(e), "> No abstract available.\n")
}

func TestSummarizeTruncatesToThreeSentences(t *testing.T) {
	t.Parallel()

	abstract := "One. Two. Three. Four. Five."
	require.Equal(t, "One. Two. Three...", Summarize(abstract))
}

func TestSummarizeShortAbstractUntouched(t *testing.T) {
	t.Parallel()

	require.Equal(t, "One. Two.", Summarize("One. Two."))
	require.Equal(t, "", Summarize("   "))
}

func TestSummarizeFlattensNewlines(t *testing.T) {
	t.Parallel()

	require.Equal(t, "line one line two", Summarize("line one\r\nline two"))
}

func TestWriterAppendAndScanRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Research_Log.md")
	w, err := Open(path)
	require.NoError(t, err)

	first := sampleEntry()
	second := sampleEntry()
	second.Title = "Airworthiness Directives: Transport Category Airplanes"
	second.Link = "https://www.federalregister.gov/documents/2024/06/20/2024-13579/airworthiness-directives"
	second.Relevance = []string{"Airworthiness Directives", "fatigue"}

	require.NoError(t, w.Append(first))
	require.NoError(t, w.Append(second))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	entries, err := Scan(f)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, first.Title, entries[0].Title)
	require.Equal(t, first.Link, entries[0].Link)
	require.Equal(t, first.Relevance, entries[0].Relevance)
	require.Equal(t, second.Link, entries[1].Link)
	require.Equal(t, []string{"Airworthiness Directives", "fatigue"}, entries[1].Relevance)
}

func TestScanSkipsTornBlock(t *testing.T) {
	t.Parallel()

	log := Render(sampleEntry()) +
		"\n### [2024-06-16] Entry cut short by a crash\n" +
		"**Source:** https://example.com/doc\n"
	// No separator: the torn block must not surface as an entry.

	entries, err := Scan(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, sampleEntry().Link, entries[0].Link)
}

func TestScanEmptyLog(t *testing.T) {
	t.Parallel()

	entries, err := Scan(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriterAppendsAreOrdered(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Research_Log.md")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		e := sampleEntry()
		e.Title = title
		require.NoError(t, w.Append(e))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
	require.Less(t, strings.Index(text, "second"), strings.Index(text, "third"))
}
