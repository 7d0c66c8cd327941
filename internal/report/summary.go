package report

import (
	"sort"
	"time"

	"github.com/nao1215/webgrep/internal/resource"
)

// Summary aggregates the outcome of one run across all root URLs.
type Summary struct {
	// Pattern is the search pattern the run used.
	Pattern string

	// Started is when the run began.
	Started time.Time

	// Roots holds one entry per root URL, in processing order.
	Roots []*RootSummary
}

// RootSummary aggregates the outcome of a single root URL traversal.
type RootSummary struct {
	// URL is the root URL.
	URL string

	// TypeCounts maps each resource type to the number of resources of
	// that type materialized under this root.
	TypeCounts map[resource.Type]int

	// Matched is the number of resources whose search produced output.
	Matched int

	// CacheHits is the number of resources served from the cache
	// without a network fetch.
	CacheHits int

	// Failures lists the relative paths of errored resources.
	Failures []string

	// Err records an unexpected traversal error, if any.
	Err string
}

// NewSummary creates a Summary for the given pattern.
func NewSummary(pattern string) *Summary {
	return &Summary{
		Pattern: pattern,
		Started: time.Now(),
	}
}

// AddRoot appends and returns a fresh per-root summary.
func (s *Summary) AddRoot(url string) *RootSummary {
	rs := &RootSummary{
		URL:        url,
		TypeCounts: make(map[resource.Type]int),
	}
	s.Roots = append(s.Roots, rs)
	return rs
}

// Count records one materialized resource of the given type.
func (rs *RootSummary) Count(typ resource.Type) {
	rs.TypeCounts[typ]++
}

// Total returns the number of materialized resources under the root.
func (rs *RootSummary) Total() int {
	n := 0
	for _, c := range rs.TypeCounts {
		n += c
	}
	return n
}

// Types returns the types present under the root, sorted by name so
// report output is stable.
func (rs *RootSummary) Types() []resource.Type {
	types := make([]resource.Type, 0, len(rs.TypeCounts))
	for typ := range rs.TypeCounts {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
