package toolsearch

import (
	"github.com/gdziedzic/toolsearch/internal/deepsearch"
	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/domain/tool"
	"github.com/gdziedzic/toolsearch/internal/fuzzy"
	"github.com/gdziedzic/toolsearch/internal/rank"
	"github.com/gdziedzic/toolsearch/internal/session"
)

// Tool describes one catalog entry.
type Tool struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// RankOptions configures catalog ranking.
type RankOptions struct {
	MaxResults          int
	MinScore            float64
	PrioritizeFavorites bool
}

// SearchOptions configures content search.
type SearchOptions struct {
	// Types restricts results to entry types ("tool-state", "snippet",
	// "workflow", "clipboard", "preset"); nil means all.
	Types      []string
	MaxResults int
	MinScore   float64
}

// Span is one highlighted preview segment.
type Span struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// ToolResult is one ranked catalog hit.
type ToolResult struct {
	Tool       Tool    `json:"tool"`
	Score      float64 `json:"score"`
	NameScore  float64 `json:"nameScore"`
	IsFavorite bool    `json:"isFavorite"`
	IsRecent   bool    `json:"isRecent"`
}

// ContentResult is one deep-content hit.
type ContentResult struct {
	Type               string  `json:"type"`
	ID                 string  `json:"id"`
	ToolID             string  `json:"toolId,omitempty"`
	Preview            string  `json:"preview"`
	Location           string  `json:"location"`
	Score              float64 `json:"score"`
	Timestamp          int64   `json:"timestamp,omitempty"`
	HighlightedPreview []Span  `json:"highlightedPreview"`
}

// Stats summarizes the content index.
type Stats struct {
	Total         int            `json:"total"`
	ByType        map[string]int `json:"byType"`
	LastIndexTime int64          `json:"lastIndexTime"`
	IndexAgeMs    int64          `json:"indexAgeMs"`
}

// RecentTool is one entry of the recent-tools list.
type RecentTool struct {
	ToolID    string `json:"toolId"`
	Timestamp int64  `json:"timestamp"`
}

// --- converters between public and internal types ---

func toInternalTools(tools []Tool) []tool.Record {
	out := make([]tool.Record, 0, len(tools))
	for _, t := range tools {
		out = append(out, tool.Record(t))
	}
	return out
}

func toInternalSearchOptions(opts *SearchOptions) deepsearch.Options {
	if opts == nil {
		return deepsearch.Options{}
	}
	out := deepsearch.Options{
		MaxResults: opts.MaxResults,
		MinScore:   opts.MinScore,
	}
	for _, t := range opts.Types {
		out.Types = append(out.Types, index.EntryType(t))
	}
	return out
}

func toInternalRankOptions(opts *RankOptions) rank.Options {
	if opts == nil {
		return rank.Options{PrioritizeFavorites: true}
	}
	return rank.Options{
		MaxResults:          opts.MaxResults,
		MinScore:            opts.MinScore,
		PrioritizeFavorites: opts.PrioritizeFavorites,
	}
}

func fromToolResults(results []rank.Result) []ToolResult {
	out := make([]ToolResult, 0, len(results))
	for _, r := range results {
		out = append(out, ToolResult{
			Tool:       Tool(r.Tool),
			Score:      r.Score,
			NameScore:  r.Details.NameScore,
			IsFavorite: r.IsFavorite,
			IsRecent:   r.IsRecent,
		})
	}
	return out
}

func fromSpans(spans []fuzzy.Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		out = append(out, Span(s))
	}
	return out
}

func fromContentResults(results []deepsearch.Result) []ContentResult {
	out := make([]ContentResult, 0, len(results))
	for _, r := range results {
		out = append(out, ContentResult{
			Type:               string(r.Entry.Type),
			ID:                 r.Entry.ID,
			ToolID:             r.Entry.ToolID,
			Preview:            r.Entry.Preview,
			Location:           r.Entry.Location,
			Score:              r.Score,
			Timestamp:          r.Entry.Timestamp,
			HighlightedPreview: fromSpans(r.HighlightedPreview),
		})
	}
	return out
}

func fromStats(st index.Stats) Stats {
	byType := make(map[string]int, len(st.ByType))
	for t, n := range st.ByType {
		byType[string(t)] = n
	}
	return Stats{
		Total:         st.Total,
		ByType:        byType,
		LastIndexTime: st.LastIndexTime,
		IndexAgeMs:    st.IndexAgeMs,
	}
}

func fromRecents(recents []session.RecentTool) []RecentTool {
	out := make([]RecentTool, 0, len(recents))
	for _, r := range recents {
		out = append(out, RecentTool(r))
	}
	return out
}
