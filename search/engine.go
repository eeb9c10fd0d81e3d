// Package search filters catalog records by display name for the quote
// editor's pickers.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mudanzingo/backoffice/types"
	"golang.org/x/text/cases"
)

// Engine searches the catalog of one provider
type Engine[E types.Named] struct {
	provider Provider[E]
}

// NewEngine creates a new search engine with the given catalog provider
func NewEngine[E types.Named](provider Provider[E]) *Engine[E] {
	return &Engine[E]{provider: provider}
}

// Search loads the catalog and returns the matching items
func (e *Engine[E]) Search(ctx context.Context, options Options) ([]Result[E], error) {
	items, err := e.provider.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	return Match(items, options), nil
}

// Filter returns the items whose display name contains query, in catalog
// order. A blank query returns items unchanged.
func Filter[E types.Named](items []E, query string) []E {
	results := Match(items, Options{Query: query})
	out := make([]E, len(results))
	for i, r := range results {
		out[i] = r.Item
	}
	return out
}

// Match searches items in memory
func Match[E types.Named](items []E, options Options) []Result[E] {
	query := strings.TrimSpace(options.Query)
	results := make([]Result[E], 0, len(items))

	if query == "" {
		for _, item := range items {
			results = append(results, Result[E]{Item: item, Score: 1.0, MatchType: MatchAll, Highlight: item.DisplayName()})
		}
		return limit(results, options.MaxResults)
	}

	// Casers keep state, so each search gets its own
	caser := cases.Fold()
	folded := caser.String(query)

	startMarker := options.HighlightStartMarker
	endMarker := options.HighlightEndMarker
	if startMarker == "" {
		startMarker = "**"
	}
	if endMarker == "" {
		endMarker = "**"
	}

	for _, item := range items {
		name := item.DisplayName()
		text := foldText(caser, name)
		spans := text.find(folded)
		if len(spans) == 0 {
			continue
		}
		r := Result[E]{
			Item:      item,
			Score:     calculateScore(text.folded, folded),
			MatchType: matchType(text.folded, folded),
			Highlight: name,
		}
		if options.EnableHighlight {
			r.Highlight = highlight(name, spans, startMarker, endMarker)
		}
		results = append(results, r)
	}

	if options.RankByScore {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
	return limit(results, options.MaxResults)
}

func limit[E types.Named](results []Result[E], maxResults *int) []Result[E] {
	if maxResults != nil && *maxResults > 0 && len(results) > *maxResults {
		return results[:*maxResults]
	}
	return results
}

func matchType(text, query string) MatchType {
	switch {
	case text == query:
		return MatchExact
	case strings.HasPrefix(text, query):
		return MatchPrefix
	default:
		return MatchPartial
	}
}

// calculateScore computes a relevance score for a match
func calculateScore(text, query string) float64 {
	baseScore := 0.7

	// Boost if match is at the beginning
	if strings.HasPrefix(text, query) {
		baseScore += 0.2
	}

	// Boost if query takes up a large portion of the name
	if coverage := float64(len(query)) / float64(len(text)); coverage > 0.5 {
		baseScore += 0.1
	}

	if baseScore > 1.0 {
		baseScore = 1.0
	}
	return baseScore
}

// foldedText is a case-folded name that remembers where each folded byte
// came from, so matches can be highlighted in the original text.
type foldedText struct {
	folded    string
	origStart []int
	origEnd   []int
}

func foldText(caser cases.Caser, text string) foldedText {
	var b strings.Builder
	ft := foldedText{}
	for i, r := range text {
		chunk := caser.String(string(r))
		end := i + len(string(r))
		for j := 0; j < len(chunk); j++ {
			ft.origStart = append(ft.origStart, i)
			ft.origEnd = append(ft.origEnd, end)
		}
		b.WriteString(chunk)
	}
	ft.folded = b.String()
	return ft
}

type span struct{ start, end int }

// find returns the non-overlapping occurrences of query as spans of the
// original text
func (ft foldedText) find(query string) []span {
	var spans []span
	queryLen := len(query)
	for i := 0; i <= len(ft.folded)-queryLen; i++ {
		if ft.folded[i:i+queryLen] == query {
			spans = append(spans, span{start: ft.origStart[i], end: ft.origEnd[i+queryLen-1]})
			// Skip overlapping matches
			i += queryLen - 1
		}
	}
	return spans
}

// highlight wraps each span of text in markers
func highlight(text string, spans []span, startMarker, endMarker string) string {
	var builder strings.Builder
	lastEnd := 0
	for _, s := range spans {
		if s.start < lastEnd {
			continue
		}
		builder.WriteString(text[lastEnd:s.start])
		builder.WriteString(startMarker)
		builder.WriteString(text[s.start:s.end])
		builder.WriteString(endMarker)
		lastEnd = s.end
	}
	builder.WriteString(text[lastEnd:])
	return builder.String()
}
