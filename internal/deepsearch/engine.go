// Package deepsearch queries the built content index: fuzzy-scores
// entries, filters by type and score floor, and attaches highlighted
// previews.
package deepsearch

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/fuzzy"
	"github.com/gdziedzic/toolsearch/internal/metrics"
)

// Defaults for content search.
const (
	DefaultMaxResults = 50
	DefaultMinScore   = 10
)

// Options configures one content search.
type Options struct {
	// Types restricts results to the given entry types; nil means all.
	Types      []index.EntryType
	MaxResults int
	MinScore   float64
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	return o
}

// Result is one content search hit.
type Result struct {
	Entry              index.Entry  `json:"entry"`
	Score              float64      `json:"score"`
	HighlightedPreview []fuzzy.Span `json:"highlightedPreview"`
}

// Engine searches the current index snapshot. The snapshot reference is
// swapped atomically on rebuild, so a search in flight sees either the
// old or the new index in full, never a partial mix.
type Engine struct {
	snap atomic.Pointer[index.Snapshot]
}

// New creates an engine over an empty snapshot.
func New() *Engine {
	e := &Engine{}
	e.snap.Store(index.NewSnapshot(nil, time.Time{}))
	return e
}

// Replace installs a freshly built snapshot, discarding the previous one.
func (e *Engine) Replace(snap *index.Snapshot) {
	e.snap.Store(snap)
}

// Snapshot returns the current index snapshot.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.snap.Load()
}

// Search scores every eligible entry against query. An empty query
// returns nothing: deep search has no browse mode.
func (e *Engine) Search(query string, opts Options) []Result {
	if query == "" {
		return nil
	}
	opts = opts.withDefaults()
	start := time.Now()

	var typeSet map[index.EntryType]struct{}
	if opts.Types != nil {
		typeSet = make(map[index.EntryType]struct{}, len(opts.Types))
		for _, t := range opts.Types {
			typeSet[t] = struct{}{}
		}
	}

	snap := e.snap.Load()
	var results []Result
	for _, entry := range snap.Entries() {
		if typeSet != nil {
			if _, ok := typeSet[entry.Type]; !ok {
				continue
			}
		}
		score := fuzzy.Score(query, entry.Content)
		if score < opts.MinScore {
			continue
		}
		results = append(results, Result{
			Entry:              entry,
			Score:              score,
			HighlightedPreview: fuzzy.Highlight(entry.Preview, query),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	metrics.ObserveSearch(metrics.KindContent, time.Since(start).Seconds())
	return results
}

// GroupByType buckets results by entry type, preserving score order
// within each bucket.
func GroupByType(results []Result) map[index.EntryType][]Result {
	grouped := make(map[index.EntryType][]Result)
	for _, r := range results {
		grouped[r.Entry.Type] = append(grouped[r.Entry.Type], r)
	}
	return grouped
}
