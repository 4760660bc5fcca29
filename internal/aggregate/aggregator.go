// Package aggregate merges filtered candidates into ranked, deduplicated
// category buckets.
package aggregate

import (
	"sort"
	"strings"
	"sync"

	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/relevance"
)

const (
	ExactScore      = 100
	PartialPerWord  = 10
	MaxPartialScore = 90
)

// Score returns the ranking score for a match outcome. Partial matches are
// capped below an exact match.
func Score(m domain.MatchOutcome) int {
	switch m.Kind {
	case domain.ExactMatch:
		return ExactScore
	case domain.PartialMatch:
		return min(PartialPerWord*len(m.MatchedWords), MaxPartialScore)
	default:
		return 0
	}
}

// NormalizeURL returns the dedup key for a URL: text-fragment directive
// removed, lower-cased, trailing slash stripped.
func NormalizeURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(relevance.StripAnchor(rawURL)))
	return strings.TrimRight(u, "/")
}

// Aggregator owns the request-wide dedup set and category buckets. Add is
// safe for concurrent use; the first candidate to claim a URL keeps it.
type Aggregator struct {
	mu         sync.Mutex
	categories []string
	seen       map[string]struct{}
	buckets    map[string][]domain.ScoredResult
	duplicates int
}

// New creates an aggregator that reports every category in categories,
// empty or not.
func New(categories []string) *Aggregator {
	buckets := make(map[string][]domain.ScoredResult, len(categories))
	for _, c := range categories {
		buckets[c] = []domain.ScoredResult{}
	}
	return &Aggregator{
		categories: append([]string{}, categories...),
		seen:       make(map[string]struct{}),
		buckets:    buckets,
	}
}

// Add records c unless its normalized URL was already seen. It reports
// whether the candidate was stored.
func (a *Aggregator) Add(c domain.Candidate) bool {
	key := NormalizeURL(c.URL)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, dup := a.seen[key]; dup {
		a.duplicates++
		return false
	}
	a.seen[key] = struct{}{}

	if _, ok := a.buckets[c.Category]; !ok {
		a.categories = append(a.categories, c.Category)
	}
	a.buckets[c.Category] = append(a.buckets[c.Category], domain.ScoredResult{
		Title:        c.Title,
		URL:          c.URL,
		Description:  c.Description,
		MatchContext: c.MatchContext,
		Score:        Score(c.Match),
	})
	return true
}

// AddAll adds each candidate in order and returns how many were stored.
func (a *Aggregator) AddAll(candidates []domain.Candidate) int {
	n := 0
	for _, c := range candidates {
		if a.Add(c) {
			n++
		}
	}
	return n
}

// Duplicates returns how many candidates were discarded as duplicates.
func (a *Aggregator) Duplicates() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duplicates
}

// Finalize returns a copy of the buckets, each sorted by descending score
// with ties left in arrival order.
func (a *Aggregator) Finalize() domain.Buckets {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(domain.Buckets, len(a.buckets))
	for _, category := range a.categories {
		results := append([]domain.ScoredResult{}, a.buckets[category]...)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
		out[category] = results
	}
	return out
}

// Categories returns the category keys in planning order.
func (a *Aggregator) Categories() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.categories...)
}
