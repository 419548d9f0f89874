package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gdziedzic/toolsearch/internal/catalog"
	"github.com/gdziedzic/toolsearch/internal/deepsearch"
	"github.com/gdziedzic/toolsearch/internal/domain/tool"
	"github.com/gdziedzic/toolsearch/internal/indexer"
	"github.com/gdziedzic/toolsearch/internal/rank"
	"github.com/gdziedzic/toolsearch/internal/store"
	"github.com/gdziedzic/toolsearch/internal/store/memory"
)

// --- Mocks ---

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// manualScheduler queues callbacks and fires them on demand.
type manualScheduler struct {
	pending []*scheduledCall
}

type scheduledCall struct {
	fn       func()
	canceled bool
}

func (s *manualScheduler) Schedule(_ time.Duration, fn func()) func() {
	call := &scheduledCall{fn: fn}
	s.pending = append(s.pending, call)
	return func() { call.canceled = true }
}

// fire runs every pending callback that was not canceled.
func (s *manualScheduler) fire() {
	pending := s.pending
	s.pending = nil
	for _, call := range pending {
		if !call.canceled {
			call.fn()
		}
	}
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, &store.Error{Op: store.OpGet, Err: errors.New("quota exceeded")}
}

func (failingStore) Set(context.Context, string, []byte) error {
	return &store.Error{Op: store.OpSet, Err: errors.New("quota exceeded")}
}

func (failingStore) Delete(context.Context, string) error {
	return &store.Error{Op: store.OpDel, Err: errors.New("quota exceeded")}
}

func (failingStore) Close() {}

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testCatalog() catalog.Catalog {
	return catalog.NewStatic([]tool.Record{
		{ID: "json-formatter", Name: "JSON Formatter", Category: "Data"},
		{ID: "csv-tool", Name: "CSV Converter", Category: "Data"},
	})
}

func newTestManager(t *testing.T, st store.Store, sched Scheduler) *Manager {
	t.Helper()
	if st == nil {
		st = memory.NewStore()
	}
	builder := indexer.New(indexer.Config{
		Store:    st,
		Redactor: indexer.NewRedactor(indexer.DefaultSensitiveKeywords),
		Clock:    fixedClock{t: testTime},
	})
	return New(context.Background(), Config{
		Catalog:   testCatalog(),
		Store:     st,
		Builder:   builder,
		Clock:     fixedClock{t: testTime},
		Scheduler: sched,
	})
}

func seed(t *testing.T, st store.Store, key, raw string) {
	t.Helper()
	if err := st.Set(context.Background(), key, []byte(raw)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

// --- Debounce ---

func TestSearchDebounceOnlyLastFires(t *testing.T) {
	sched := &manualScheduler{}
	st := memory.NewStore()
	seed(t, st, indexer.KeySnippets, `[{"id": "s1", "title": "json helper", "code": "{}"}]`)
	m := newTestManager(t, st, sched)

	var calls []string
	cb := func(query string, _ []deepsearch.Result) {
		calls = append(calls, query)
	}

	ctx := context.Background()
	m.Search(ctx, "j", deepsearch.Options{}, cb)
	m.Search(ctx, "js", deepsearch.Options{}, cb)
	m.Search(ctx, "json", deepsearch.Options{}, cb)
	sched.fire()

	if len(calls) != 1 {
		t.Fatalf("callback fired %d times, want 1: %v", len(calls), calls)
	}
	if calls[0] != "json" {
		t.Errorf("fired query = %q, want the last one", calls[0])
	}
	if got := m.History(); len(got) != 1 || got[0] != "json" {
		t.Errorf("history = %v, want [json]", got)
	}
}

func TestSearchStaleTimerDoesNotFire(t *testing.T) {
	sched := &manualScheduler{}
	m := newTestManager(t, nil, sched)

	fired := 0
	m.Search(context.Background(), "one", deepsearch.Options{}, func(string, []deepsearch.Result) {
		fired++
	})
	// Simulate a scheduler that runs the callback even though a newer
	// query superseded it: the generation check must reject it.
	stale := sched.pending[0]
	stale.canceled = false
	m.Search(context.Background(), "two", deepsearch.Options{}, nil)
	stale.fn()

	if fired != 0 {
		t.Errorf("superseded query fired %d times", fired)
	}
}

// --- Index lifecycle ---

func TestSearchNowBuildsIndexLazily(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, indexer.KeySnippets, `[{"id": "s1", "title": "json helper", "code": "{}"}]`)
	m := newTestManager(t, st, &manualScheduler{})

	results := m.SearchNow(context.Background(), "json", deepsearch.Options{})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestRebuildIndexReplacesEntries(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, indexer.KeySnippets, `[{"id": "old", "title": "json old", "code": "{}"}]`)
	m := newTestManager(t, st, &manualScheduler{})

	ctx := context.Background()
	if got := m.SearchNow(ctx, "json", deepsearch.Options{}); len(got) != 1 {
		t.Fatalf("initial search got %d results", len(got))
	}

	seed(t, st, indexer.KeySnippets, `[
		{"id": "new1", "title": "json new", "code": "{}"},
		{"id": "new2", "title": "json newer", "code": "{}"}
	]`)
	m.RebuildIndex(ctx)

	results := m.SearchNow(ctx, "json", deepsearch.Options{})
	if len(results) != 2 {
		t.Fatalf("post-rebuild search got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Entry.ID == "snippet:old" {
			t.Error("stale entry survived rebuild")
		}
	}

	if st := m.Stats(); st.Total != 2 {
		t.Errorf("stats total = %d, want 2", st.Total)
	}
}

// --- Favorites / usage / recents ---

func TestToggleFavoriteRoundTrip(t *testing.T) {
	st := memory.NewStore()
	m := newTestManager(t, st, &manualScheduler{})
	ctx := context.Background()

	if !m.ToggleFavorite(ctx, "csv-tool") {
		t.Error("first toggle should favorite")
	}
	if !m.IsFavorite("csv-tool") {
		t.Error("csv-tool should be favorited")
	}
	if m.ToggleFavorite(ctx, "csv-tool") {
		t.Error("second toggle should unfavorite")
	}
	if m.IsFavorite("csv-tool") || len(m.Favorites()) != 0 {
		t.Error("favorites not back to original membership")
	}
}

func TestFavoritesPersistAcrossManagers(t *testing.T) {
	st := memory.NewStore()
	m := newTestManager(t, st, &manualScheduler{})
	m.ToggleFavorite(context.Background(), "csv-tool")

	reloaded := newTestManager(t, st, &manualScheduler{})
	if !reloaded.IsFavorite("csv-tool") {
		t.Error("favorite lost across manager restarts")
	}
}

func TestTrackUsageRecentsBoundedAndDeduped(t *testing.T) {
	m := newTestManager(t, nil, &manualScheduler{})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		m.TrackUsage(ctx, fmt.Sprintf("tool-%d", i))
	}
	recents := m.Recent()
	if len(recents) != RecentLimit {
		t.Fatalf("recents length = %d, want %d", len(recents), RecentLimit)
	}
	if recents[0].ToolID != "tool-11" {
		t.Errorf("most recent = %s, want tool-11", recents[0].ToolID)
	}

	m.TrackUsage(ctx, "tool-5")
	recents = m.Recent()
	if len(recents) != RecentLimit {
		t.Errorf("dedupe grew the list to %d", len(recents))
	}
	if recents[0].ToolID != "tool-5" {
		t.Errorf("re-used tool not moved to front: %s", recents[0].ToolID)
	}

	if got := m.UsageCount("tool-5"); got != 2 {
		t.Errorf("usage count = %d, want 2", got)
	}
}

// --- History ---

func TestHistoryDedupedAndBounded(t *testing.T) {
	m := newTestManager(t, nil, &manualScheduler{})
	ctx := context.Background()

	m.SearchNow(ctx, "json", deepsearch.Options{})
	m.SearchNow(ctx, "csv", deepsearch.Options{})
	m.SearchNow(ctx, "json", deepsearch.Options{})

	history := m.History()
	if len(history) != 2 {
		t.Fatalf("history = %v, want two entries", history)
	}
	if history[0] != "json" || history[1] != "csv" {
		t.Errorf("history order = %v, want [json csv]", history)
	}

	for i := 0; i < HistoryLimit+10; i++ {
		m.SearchNow(ctx, fmt.Sprintf("query-%d", i), deepsearch.Options{})
	}
	if got := len(m.History()); got != HistoryLimit {
		t.Errorf("history length = %d, want %d", got, HistoryLimit)
	}
}

func TestBlankQueryNotRecorded(t *testing.T) {
	m := newTestManager(t, nil, &manualScheduler{})
	m.SearchNow(context.Background(), "   ", deepsearch.Options{})
	if got := m.History(); len(got) != 0 {
		t.Errorf("blank query recorded: %v", got)
	}
}

// --- Store failure resilience ---

func TestStoreFailuresAreNotFatal(t *testing.T) {
	m := newTestManager(t, failingStore{}, &manualScheduler{})
	ctx := context.Background()

	m.ToggleFavorite(ctx, "csv-tool")
	if !m.IsFavorite("csv-tool") {
		t.Error("in-memory favorite lost on store failure")
	}

	m.TrackUsage(ctx, "csv-tool")
	if m.UsageCount("csv-tool") != 1 {
		t.Error("in-memory usage lost on store failure")
	}

	// Index build sees every source fail; the result is an empty but
	// valid index.
	if got := m.SearchNow(ctx, "anything", deepsearch.Options{}); len(got) != 0 {
		t.Errorf("search over failing store returned %v", got)
	}
}

// --- Ranking with session context ---

func TestRankToolsInjectsSessionState(t *testing.T) {
	m := newTestManager(t, nil, &manualScheduler{})
	m.ToggleFavorite(context.Background(), "csv-tool")

	results := m.RankTools(nil, "", rank.Options{})
	if len(results) != 2 {
		t.Fatalf("got %d results, want the whole catalog", len(results))
	}
	if results[0].Tool.ID != "csv-tool" || !results[0].IsFavorite {
		t.Errorf("favorited csv-tool should rank first: %+v", results[0])
	}
}

// --- Subscription ---

func TestSubscribeAndUnsubscribe(t *testing.T) {
	m := newTestManager(t, nil, &manualScheduler{})
	ctx := context.Background()

	notified := 0
	unsubscribe := m.Subscribe(func(string, []deepsearch.Result) {
		notified++
	})

	m.SearchNow(ctx, "json", deepsearch.Options{})
	if notified != 1 {
		t.Fatalf("subscriber notified %d times, want 1", notified)
	}

	unsubscribe()
	m.SearchNow(ctx, "csv", deepsearch.Options{})
	if notified != 1 {
		t.Errorf("unsubscribed listener still notified (%d)", notified)
	}
}

func TestCloseCancelsPending(t *testing.T) {
	sched := &manualScheduler{}
	m := newTestManager(t, nil, sched)

	fired := false
	m.Search(context.Background(), "json", deepsearch.Options{}, func(string, []deepsearch.Result) {
		fired = true
	})
	m.Close()
	sched.fire()

	if fired {
		t.Error("pending query fired after Close")
	}
}
