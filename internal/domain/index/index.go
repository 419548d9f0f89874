// Package index defines the searchable content index: entries extracted
// from stored records and the immutable snapshot a build produces.
package index

import (
	"encoding/json"
	"time"
)

// EntryType identifies which content source produced an entry.
type EntryType string

// Content source types.
const (
	TypeToolState EntryType = "tool-state"
	TypeSnippet   EntryType = "snippet"
	TypeWorkflow  EntryType = "workflow"
	TypeClipboard EntryType = "clipboard"
	TypePreset    EntryType = "preset"
)

// previewLimit caps preview length in runes, ellipsis included.
const previewLimit = 100

// Entry is one unit of indexed content.
type Entry struct {
	Type      EntryType       `json:"type"`
	ID        string          `json:"id"`
	ToolID    string          `json:"toolId,omitempty"`
	Content   string          `json:"content"`
	Preview   string          `json:"preview"`
	Location  string          `json:"location"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Preview truncates s to the preview limit, suffixing an ellipsis when
// anything was cut.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLimit {
		return s
	}
	return string(r[:previewLimit-3]) + "..."
}

// Snapshot is the immutable product of one index build. Rebuilds replace
// the snapshot wholesale; no entry identity survives across builds.
type Snapshot struct {
	entries []Entry
	byType  map[EntryType]int
	builtAt time.Time
}

// NewSnapshot creates a snapshot over the given entries, stamped with the
// build time.
func NewSnapshot(entries []Entry, builtAt time.Time) *Snapshot {
	byType := make(map[EntryType]int, 5)
	for _, e := range entries {
		byType[e.Type]++
	}
	return &Snapshot{entries: entries, byType: byType, builtAt: builtAt}
}

// Entries returns the indexed entries. Callers must not mutate the slice.
func (s *Snapshot) Entries() []Entry { return s.entries }

// Len returns the number of indexed entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// BuiltAt returns the build timestamp.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Stats summarizes a snapshot for diagnostics.
type Stats struct {
	Total         int               `json:"total"`
	ByType        map[EntryType]int `json:"byType"`
	LastIndexTime int64             `json:"lastIndexTime"`
	IndexAgeMs    int64             `json:"indexAgeMs"`
}

// Stats builds a stats report relative to now.
func (s *Snapshot) Stats(now time.Time) Stats {
	byType := make(map[EntryType]int, len(s.byType))
	for t, n := range s.byType {
		byType[t] = n
	}
	st := Stats{
		Total:  len(s.entries),
		ByType: byType,
	}
	if !s.builtAt.IsZero() {
		st.LastIndexTime = s.builtAt.UnixMilli()
		st.IndexAgeMs = now.Sub(s.builtAt).Milliseconds()
	}
	return st
}
