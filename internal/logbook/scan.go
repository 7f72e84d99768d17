package logbook

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

var headingRe = regexp.MustCompile(`^### \[(\d{4}-\d{2}-\d{2})\] (.+)$`)

// Scan parses entry blocks back out of a research log. It is the explicit
// recovery path for rebuilding the seen-set; normal runs never call it.
// Blocks that do not parse are skipped, which keeps recovery usable on a
// log that ends in a torn block.
func Scan(r io.Reader) ([]feed.LogEntry, error) {
	var entries []feed.LogEntry
	var current *feed.LogEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := headingRe.FindStringSubmatch(line); m != nil {
			date, err := time.Parse("2006-01-02", m[1])
			if err != nil {
				current = nil
				continue
			}
			current = &feed.LogEntry{Date: date, Title: m[2]}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "**Source:** "):
			current.Link = strings.TrimPrefix(line, "**Source:** ")
		case strings.HasPrefix(line, "**Relevance:** "):
			tags := strings.TrimPrefix(line, "**Relevance:** ")
			if tags != "" {
				current.Relevance = strings.Split(tags, ", ")
			}
		case strings.HasPrefix(line, "> "):
			current.Summary = strings.TrimPrefix(line, "> ")
		case line == "---":
			// A complete block needs at least a source link.
			if current.Link != "" {
				entries = append(entries, *current)
			}
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}
	return entries, nil
}
