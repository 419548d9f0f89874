package deepsearch

import (
	"testing"
	"time"

	"github.com/gdziedzic/toolsearch/internal/domain/index"
)

func testSnapshot(entries ...index.Entry) *index.Snapshot {
	return index.NewSnapshot(entries, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
}

func entry(typ index.EntryType, id, content string) index.Entry {
	return index.Entry{
		Type:     typ,
		ID:       id,
		Content:  content,
		Preview:  index.Preview(content),
		Location: "test",
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	e := New()
	e.Replace(testSnapshot(entry(index.TypeSnippet, "s1", "anything")))
	if got := e.Search("", Options{}); got != nil {
		t.Errorf("empty query returned %v, want nil", got)
	}
}

func TestSearchScoresAndSorts(t *testing.T) {
	e := New()
	e.Replace(testSnapshot(
		entry(index.TypeSnippet, "exact", "json"),
		entry(index.TypeSnippet, "contains", "some json helpers"),
		entry(index.TypeSnippet, "unrelated", "completely different"),
	))

	results := e.Search("json", Options{})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	if results[0].Entry.ID != "exact" {
		t.Errorf("first result = %s, want exact", results[0].Entry.ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by score descending")
	}
	for _, r := range results {
		if len(r.HighlightedPreview) == 0 {
			t.Errorf("result %s missing highlighted preview", r.Entry.ID)
		}
	}
}

func TestSearchTypeFilter(t *testing.T) {
	e := New()
	e.Replace(testSnapshot(
		entry(index.TypeSnippet, "s1", "json snippet"),
		entry(index.TypeClipboard, "c1", "json clip"),
	))

	results := e.Search("json", Options{Types: []index.EntryType{index.TypeClipboard}})
	if len(results) != 1 || results[0].Entry.Type != index.TypeClipboard {
		t.Errorf("type filter failed: %+v", results)
	}
}

func TestSearchMinScoreAndLimit(t *testing.T) {
	e := New()
	e.Replace(testSnapshot(
		entry(index.TypeSnippet, "s1", "json"),
		entry(index.TypeSnippet, "s2", "json again"),
		entry(index.TypeSnippet, "s3", "json thrice"),
	))

	results := e.Search("json", Options{MaxResults: 2})
	if len(results) != 2 {
		t.Errorf("maxResults not enforced: got %d", len(results))
	}

	strict := e.Search("json", Options{MinScore: 99})
	for _, r := range strict {
		if r.Score < 99 {
			t.Errorf("minScore not enforced: %v", r.Score)
		}
	}
}

func TestReplaceDropsStaleEntries(t *testing.T) {
	e := New()
	e.Replace(testSnapshot(entry(index.TypeSnippet, "old", "json old")))
	e.Replace(testSnapshot(entry(index.TypeSnippet, "new", "json new")))

	results := e.Search("json", Options{})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Entry.ID != "new" {
		t.Errorf("stale entry survived replace: %s", results[0].Entry.ID)
	}
}

func TestGroupByType(t *testing.T) {
	e := New()
	e.Replace(testSnapshot(
		entry(index.TypeSnippet, "s1", "json one"),
		entry(index.TypeSnippet, "s2", "json two"),
		entry(index.TypeClipboard, "c1", "json clip"),
	))

	grouped := GroupByType(e.Search("json", Options{}))
	if len(grouped[index.TypeSnippet]) != 2 {
		t.Errorf("snippet group = %d, want 2", len(grouped[index.TypeSnippet]))
	}
	if len(grouped[index.TypeClipboard]) != 1 {
		t.Errorf("clipboard group = %d, want 1", len(grouped[index.TypeClipboard]))
	}
}

func TestEmptyEngineStats(t *testing.T) {
	e := New()
	st := e.Snapshot().Stats(time.Now())
	if st.Total != 0 || st.LastIndexTime != 0 {
		t.Errorf("empty engine stats = %+v", st)
	}
}
