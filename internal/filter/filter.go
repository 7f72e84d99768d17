// Package filter implements the relevance keyword classifier. Classification
// is a pure function of title and raw metadata; it runs before the expensive
// verification step so irrelevant items never trigger a document fetch.
package filter

import (
	"sort"
	"strings"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

// MatchMode selects how multiple keywords combine.
type MatchMode string

// Match modes.
const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// KeywordFilter matches configured keywords against candidate items.
type KeywordFilter struct {
	keywords []string
	mode     MatchMode
}

// New builds a KeywordFilter. Keywords are matched case-insensitively.
func New(keywords []string, mode MatchMode) *KeywordFilter {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	sort.Strings(normalized)
	if mode != MatchAll {
		mode = MatchAny
	}
	return &KeywordFilter{keywords: normalized, mode: mode}
}

// Classify returns the keywords that matched, in stable order. An empty
// result means the item does not belong in the log.
func (f *KeywordFilter) Classify(item feed.CandidateItem) []string {
	haystack := f.haystack(item)

	var matched []string
	for _, kw := range f.keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}

	if f.mode == MatchAll && len(matched) != len(f.keywords) {
		return nil
	}
	return matched
}

func (f *KeywordFilter) haystack(item feed.CandidateItem) string {
	var sb strings.Builder
	sb.WriteString(item.Title)
	// Raw metadata values participate in matching; iteration order does not
	// matter for substring containment.
	for _, v := range item.Raw {
		sb.WriteByte(' ')
		sb.WriteString(v)
	}
	return strings.ToLower(sb.String())
}
