package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/extract"
	"github.com/gdziedzic/toolsearch/internal/store"
)

// Store keys for the raw records each source reads. These match the keys
// the hosting application writes under.
const (
	KeyToolStates       = "toolStates"
	KeySnippets         = "snippets"
	KeyWorkflows        = "workflowSnapshots"
	KeyClipboardHistory = "clipboardHistory"
	KeyToolPresets      = "toolPresets"
)

// DefaultClipboardLimit caps how many clipboard items are indexed, most
// recent first.
const DefaultClipboardLimit = 20

// Source yields index entries from one kind of stored content. A source
// failure is isolated by the builder: logged and skipped, never fatal to
// the whole build.
type Source interface {
	Type() index.EntryType
	Entries(ctx context.Context) ([]index.Entry, error)
}

// load reads and decodes one store key. A missing key yields ok=false
// with no error.
func load(ctx context.Context, s store.Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// toolStateSource indexes saved per-tool state blobs.
type toolStateSource struct {
	store store.Store
}

func (s *toolStateSource) Type() index.EntryType { return index.TypeToolState }

func (s *toolStateSource) Entries(ctx context.Context) ([]index.Entry, error) {
	var states map[string]json.RawMessage
	ok, err := load(ctx, s.store, KeyToolStates, &states)
	if err != nil || !ok {
		return nil, err
	}

	toolIDs := make([]string, 0, len(states))
	for id := range states {
		toolIDs = append(toolIDs, id)
	}
	sort.Strings(toolIDs)

	entries := make([]index.Entry, 0, len(toolIDs))
	for _, toolID := range toolIDs {
		var state any
		if err := json.Unmarshal(states[toolID], &state); err != nil {
			return nil, fmt.Errorf("decode state for %s: %w", toolID, err)
		}
		content := strings.TrimSpace(toolID + " " + extract.Text(state, extract.DefaultMaxDepth))
		entries = append(entries, index.Entry{
			Type:     index.TypeToolState,
			ID:       "state:" + toolID,
			ToolID:   toolID,
			Content:  content,
			Preview:  index.Preview(content),
			Location: "Saved state: " + toolID,
			Data:     states[toolID],
		})
	}
	return entries, nil
}

// snippetRecord is the stored shape of one library snippet.
type snippetRecord struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Language  string   `json:"language"`
	Code      string   `json:"code"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
}

// snippetSource indexes the snippet library. Snippet fields are
// concatenated directly rather than run through the extractor: the shape
// is known and code bodies must be indexed verbatim.
type snippetSource struct {
	store store.Store
}

func (s *snippetSource) Type() index.EntryType { return index.TypeSnippet }

func (s *snippetSource) Entries(ctx context.Context) ([]index.Entry, error) {
	var snippets []snippetRecord
	ok, err := load(ctx, s.store, KeySnippets, &snippets)
	if err != nil || !ok {
		return nil, err
	}

	entries := make([]index.Entry, 0, len(snippets))
	for i, sn := range snippets {
		id := sn.ID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}
		content := joinNonEmpty(sn.Title, sn.Language, sn.Code, strings.Join(sn.Tags, " "))
		entries = append(entries, index.Entry{
			Type:      index.TypeSnippet,
			ID:        "snippet:" + id,
			Content:   content,
			Preview:   index.Preview(content),
			Location:  "Snippet library: " + nonEmpty(sn.Title, "untitled"),
			Timestamp: sn.CreatedAt,
		})
	}
	return entries, nil
}

// workflowRecord is the stored shape of one workflow snapshot.
type workflowRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       []struct {
		ToolID string `json:"toolId"`
		Label  string `json:"label"`
	} `json:"steps"`
	UpdatedAt int64 `json:"updatedAt"`
}

// workflowSource indexes workflow snapshots by name, description, and
// step tool ids.
type workflowSource struct {
	store store.Store
}

func (s *workflowSource) Type() index.EntryType { return index.TypeWorkflow }

func (s *workflowSource) Entries(ctx context.Context) ([]index.Entry, error) {
	var workflows []workflowRecord
	ok, err := load(ctx, s.store, KeyWorkflows, &workflows)
	if err != nil || !ok {
		return nil, err
	}

	entries := make([]index.Entry, 0, len(workflows))
	for i, wf := range workflows {
		id := wf.ID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}
		parts := []string{wf.Name, wf.Description}
		for _, step := range wf.Steps {
			parts = append(parts, step.ToolID, step.Label)
		}
		content := joinNonEmpty(parts...)
		entries = append(entries, index.Entry{
			Type:      index.TypeWorkflow,
			ID:        "workflow:" + id,
			Content:   content,
			Preview:   index.Preview(content),
			Location:  "Workflows: " + nonEmpty(wf.Name, "unnamed"),
			Timestamp: wf.UpdatedAt,
		})
	}
	return entries, nil
}

// clipboardRecord is the stored shape of one clipboard history item.
type clipboardRecord struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// clipboardSource indexes the most recent clipboard items. The stored
// list is most-recent-first; everything past the cap is ignored.
type clipboardSource struct {
	store store.Store
	limit int
}

func (s *clipboardSource) Type() index.EntryType { return index.TypeClipboard }

func (s *clipboardSource) Entries(ctx context.Context) ([]index.Entry, error) {
	var items []clipboardRecord
	ok, err := load(ctx, s.store, KeyClipboardHistory, &items)
	if err != nil || !ok {
		return nil, err
	}
	if len(items) > s.limit {
		items = items[:s.limit]
	}

	entries := make([]index.Entry, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		entries = append(entries, index.Entry{
			Type:      index.TypeClipboard,
			ID:        fmt.Sprintf("clipboard:%d", i),
			Content:   item.Text,
			Preview:   index.Preview(item.Text),
			Location:  fmt.Sprintf("Clipboard history #%d", i+1),
			Timestamp: item.Timestamp,
		})
	}
	return entries, nil
}

// presetRecord is the stored shape of one saved tool preset.
type presetRecord struct {
	ID     string         `json:"id"`
	ToolID string         `json:"toolId"`
	Name   string         `json:"name"`
	Values map[string]any `json:"values"`
}

// presetSource indexes saved tool presets.
type presetSource struct {
	store store.Store
}

func (s *presetSource) Type() index.EntryType { return index.TypePreset }

func (s *presetSource) Entries(ctx context.Context) ([]index.Entry, error) {
	var presets []presetRecord
	ok, err := load(ctx, s.store, KeyToolPresets, &presets)
	if err != nil || !ok {
		return nil, err
	}

	entries := make([]index.Entry, 0, len(presets))
	for i, p := range presets {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}
		content := joinNonEmpty(p.Name, p.ToolID, extract.Text(p.Values, extract.DefaultMaxDepth))
		entries = append(entries, index.Entry{
			Type:     index.TypePreset,
			ID:       "preset:" + id,
			ToolID:   p.ToolID,
			Content:  content,
			Preview:  index.Preview(content),
			Location: "Presets: " + nonEmpty(p.Name, p.ToolID),
		})
	}
	return entries, nil
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
