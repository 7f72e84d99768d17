// Package logbook appends formatted entries to the durable Markdown research
// log and parses them back for state recovery. Entries are append-only; once
// written they are never edited or removed.
package logbook

import (
	"fmt"
	"strings"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

const (
	noAbstract   = "No abstract available."
	maxSentences = 3
)

// Render produces the complete entry block. The format is fixed: heading,
// source line, relevance line, summary blockquote, separator.
func Render(e feed.LogEntry) string {
	summary := e.Summary
	if summary == "" {
		summary = noAbstract
	}
	var sb strings.Builder
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "### [%s] %s\n", e.Date.Format("2006-01-02"), e.Title)
	fmt.Fprintf(&sb, "**Source:** %s\n", e.Link)
	fmt.Fprintf(&sb, "**Relevance:** %s\n", strings.Join(e.Relevance, ", "))
	sb.WriteString("**Summary:**\n")
	fmt.Fprintf(&sb, "> %s\n", summary)
	sb.WriteString("---\n")
	return sb.String()
}

// Summarize reduces an abstract to its first sentences, newline-flattened.
func Summarize(abstract string) string {
	abstract = strings.TrimSpace(abstract)
	if abstract == "" {
		return ""
	}
	flat := strings.ReplaceAll(abstract, "\r", "")
	flat = strings.ReplaceAll(flat, "\n", " ")

	sentences := strings.Split(flat, ". ")
	if len(sentences) <= maxSentences {
		return flat
	}
	return strings.Join(sentences[:maxSentences], ". ") + "..."
}
