package indexer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/store/memory"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestBuilder(t *testing.T, st *memory.Store, keywords []string) *Builder {
	t.Helper()
	return New(Config{
		Store:    st,
		Redactor: NewRedactor(keywords),
		Clock:    fixedClock{t: testTime},
	})
}

func seed(t *testing.T, st *memory.Store, key, raw string) {
	t.Helper()
	if err := st.Set(context.Background(), key, []byte(raw)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func TestBuildAllSources(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, KeyToolStates, `{"json-formatter": {"input": "hello world", "indent": 2}}`)
	seed(t, st, KeySnippets, `[{"id": "s1", "title": "greeting", "language": "go", "code": "fmt.Println(42)"}]`)
	seed(t, st, KeyWorkflows, `[{"id": "w1", "name": "clean data", "steps": [{"toolId": "csv-tool"}]}]`)
	seed(t, st, KeyClipboardHistory, `[{"text": "copied text", "timestamp": 1700000000000}]`)
	seed(t, st, KeyToolPresets, `[{"id": "p1", "toolId": "json-formatter", "name": "compact", "values": {"indent": 0}}]`)

	snap := newTestBuilder(t, st, DefaultSensitiveKeywords).Build(context.Background())
	if snap.Len() != 5 {
		t.Fatalf("got %d entries, want 5: %+v", snap.Len(), snap.Entries())
	}

	stats := snap.Stats(testTime)
	for _, typ := range []index.EntryType{
		index.TypeToolState, index.TypeSnippet, index.TypeWorkflow,
		index.TypeClipboard, index.TypePreset,
	} {
		if stats.ByType[typ] != 1 {
			t.Errorf("byType[%s] = %d, want 1", typ, stats.ByType[typ])
		}
	}
	if stats.LastIndexTime != testTime.UnixMilli() {
		t.Errorf("lastIndexTime = %d, want %d", stats.LastIndexTime, testTime.UnixMilli())
	}
}

func TestBuildRedactsSensitiveEntries(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, KeySnippets, `[
		{"id": "safe", "title": "greeting", "code": "hello"},
		{"id": "leaky", "title": "note", "code": "my password is 1234"}
	]`)

	snap := newTestBuilder(t, st, DefaultSensitiveKeywords).Build(context.Background())
	if snap.Len() != 1 {
		t.Fatalf("got %d entries, want only the safe one", snap.Len())
	}
	if snap.Entries()[0].ID != "snippet:safe" {
		t.Errorf("surviving entry = %s, want snippet:safe", snap.Entries()[0].ID)
	}
	// Not even a preview of the redacted record may exist.
	for _, e := range snap.Entries() {
		if strings.Contains(e.Content, "1234") || strings.Contains(e.Preview, "1234") {
			t.Errorf("redacted content leaked into %+v", e)
		}
	}
}

func TestBuildFailsClosedWithoutKeywords(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, KeySnippets, `[{"id": "s1", "title": "anything", "code": "harmless"}]`)

	snap := newTestBuilder(t, st, nil).Build(context.Background())
	if snap.Len() != 0 {
		t.Errorf("builder without a denylist indexed %d entries, want 0", snap.Len())
	}
}

func TestBuildIsolatesMalformedSource(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, KeySnippets, `{not json`)
	seed(t, st, KeyClipboardHistory, `[{"text": "survivor", "timestamp": 1}]`)

	snap := newTestBuilder(t, st, DefaultSensitiveKeywords).Build(context.Background())
	if snap.Len() != 1 {
		t.Fatalf("got %d entries, want 1 from the healthy source", snap.Len())
	}
	if snap.Entries()[0].Type != index.TypeClipboard {
		t.Errorf("surviving entry type = %s, want clipboard", snap.Entries()[0].Type)
	}
}

func TestBuildEmptyStore(t *testing.T) {
	snap := newTestBuilder(t, memory.NewStore(), DefaultSensitiveKeywords).Build(context.Background())
	if snap.Len() != 0 {
		t.Errorf("empty store produced %d entries", snap.Len())
	}
}

func TestClipboardCap(t *testing.T) {
	var items []string
	for i := 0; i < 25; i++ {
		items = append(items, `{"text": "item", "timestamp": 1}`)
	}
	st := memory.NewStore()
	seed(t, st, KeyClipboardHistory, "["+strings.Join(items, ",")+"]")

	snap := newTestBuilder(t, st, DefaultSensitiveKeywords).Build(context.Background())
	if snap.Len() != DefaultClipboardLimit {
		t.Errorf("got %d clipboard entries, want cap %d", snap.Len(), DefaultClipboardLimit)
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	st := memory.NewStore()
	seed(t, st, KeyClipboardHistory, `[{"text": "`+long+`", "timestamp": 1}]`)

	snap := newTestBuilder(t, st, DefaultSensitiveKeywords).Build(context.Background())
	if snap.Len() != 1 {
		t.Fatal("missing clipboard entry")
	}
	e := snap.Entries()[0]
	if got := len([]rune(e.Preview)); got > 100 {
		t.Errorf("preview length = %d runes, want <= 100", got)
	}
	if !strings.HasSuffix(e.Preview, "...") {
		t.Errorf("preview %q lacks ellipsis", e.Preview)
	}
	if e.Content != long {
		t.Error("full content must not be truncated")
	}
}

func TestRedactor(t *testing.T) {
	r := NewRedactor([]string{"password", "AUTH"})
	tests := []struct {
		text    string
		blocked bool
	}{
		{"plain note", false},
		{"my PASSWORD here", true},
		{"authority record", true}, // substring match is intentionally coarse
		{"", false},
	}
	for _, tt := range tests {
		if got := r.Blocked(tt.text); got != tt.blocked {
			t.Errorf("Blocked(%q) = %v, want %v", tt.text, got, tt.blocked)
		}
	}

	empty := NewRedactor([]string{"  ", ""})
	if empty.Evaluable() {
		t.Error("redactor over blank keywords must not be evaluable")
	}
	if !empty.Blocked("anything") {
		t.Error("unevaluable redactor must fail closed")
	}
}
