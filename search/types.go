package search

import (
	"context"

	"github.com/mudanzingo/backoffice/types"
)

// Options configures a catalog search
type Options struct {
	// Query is matched as a substring of each item's display name after
	// trimming and case folding. A blank query matches every item.
	Query string

	// EnableHighlight fills Result.Highlight with the matched text wrapped
	// in markers
	EnableHighlight bool

	// Highlight markers; "**" when empty
	HighlightStartMarker string
	HighlightEndMarker   string

	// RankByScore orders results by score instead of catalog order
	RankByScore bool

	// MaxResults limits the number of results
	// nil means no limit
	MaxResults *int
}

// Result is one matching catalog item
type Result[E types.Named] struct {
	// Item is the matched catalog record
	Item E

	// Score represents match relevance (0.0 to 1.0, higher is better)
	Score float64

	// MatchType describes how the name matched
	MatchType MatchType

	// Highlight is the display name with match markers, when enabled
	Highlight string
}

// MatchType indicates the type of match found
type MatchType string

const (
	MatchAll     MatchType = "all"
	MatchExact   MatchType = "exact"
	MatchPrefix  MatchType = "prefix"
	MatchPartial MatchType = "partial"
)

// Provider supplies the full catalog to search, typically from the cache.
type Provider[E types.Named] interface {
	Catalog(ctx context.Context) ([]E, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc[E types.Named] func(ctx context.Context) ([]E, error)

// Catalog implements Provider.
func (fn ProviderFunc[E]) Catalog(ctx context.Context) ([]E, error) { return fn(ctx) }
