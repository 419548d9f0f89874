// Package session orchestrates the search engine for a host application:
// debounced content queries, catalog ranking with favorite/recency
// context, usage tracking, bounded history, and subscriber notification.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gdziedzic/toolsearch/internal/catalog"
	"github.com/gdziedzic/toolsearch/internal/clock"
	"github.com/gdziedzic/toolsearch/internal/deepsearch"
	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/domain/tool"
	"github.com/gdziedzic/toolsearch/internal/indexer"
	"github.com/gdziedzic/toolsearch/internal/metrics"
	"github.com/gdziedzic/toolsearch/internal/rank"
	"github.com/gdziedzic/toolsearch/internal/store"
)

// Session bounds and the debounce default.
const (
	DefaultDebounce = 300 * time.Millisecond
	RecentLimit     = 10
	HistoryLimit    = 50
)

// Store keys for persisted session state.
const (
	KeyFavorites = "search:favorites"
	KeyRecent    = "search:recentTools"
	KeyUsage     = "search:usage"
	KeyHistory   = "search:history"
)

// Listener receives the results of an executed content search.
type Listener func(query string, results []deepsearch.Result)

// RecentTool is one entry of the bounded recent-tools list.
type RecentTool struct {
	ToolID    string `json:"toolId"`
	Timestamp int64  `json:"timestamp"`
}

// Config wires a Manager. Store and Catalog are required; everything
// else defaults.
type Config struct {
	Catalog   catalog.Catalog
	Store     store.Store
	Builder   *indexer.Builder
	Engine    *deepsearch.Engine
	Clock     clock.Clock
	Scheduler Scheduler
	Logger    *zap.Logger
	Debounce  time.Duration
}

// Manager is the session layer over the ranker, index builder, and deep
// search engine. All methods are safe for concurrent use.
type Manager struct {
	catalog  catalog.Catalog
	store    store.Store
	builder  *indexer.Builder
	engine   *deepsearch.Engine
	clock    clock.Clock
	sched    Scheduler
	logger   *zap.Logger
	debounce time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     func()
	built      bool

	favorites   []string // insertion order, call sites rely on it
	favSet      map[string]struct{}
	recents     []RecentTool
	usage       map[string]int
	history     []string
	subscribers map[string]Listener
}

// New creates a session manager and loads persisted state. Load failures
// are logged and ignored: the session starts empty and in-memory state
// stays authoritative from then on.
func New(ctx context.Context, cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Engine == nil {
		cfg.Engine = deepsearch.New()
	}

	m := &Manager{
		catalog:     cfg.Catalog,
		store:       cfg.Store,
		builder:     cfg.Builder,
		engine:      cfg.Engine,
		clock:       cfg.Clock,
		sched:       cfg.Scheduler,
		logger:      cfg.Logger,
		debounce:    cfg.Debounce,
		favSet:      make(map[string]struct{}),
		usage:       make(map[string]int),
		subscribers: make(map[string]Listener),
	}
	m.loadState(ctx)
	return m
}

// loadState restores favorites, recents, usage, and history from the
// persisted store.
func (m *Manager) loadState(ctx context.Context) {
	m.loadKey(ctx, KeyFavorites, &m.favorites)
	m.loadKey(ctx, KeyRecent, &m.recents)
	m.loadKey(ctx, KeyUsage, &m.usage)
	m.loadKey(ctx, KeyHistory, &m.history)

	for _, id := range m.favorites {
		m.favSet[id] = struct{}{}
	}
	if len(m.recents) > RecentLimit {
		m.recents = m.recents[:RecentLimit]
	}
	if len(m.history) > HistoryLimit {
		m.history = m.history[:HistoryLimit]
	}
}

func (m *Manager) loadKey(ctx context.Context, key string, v any) {
	data, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("failed to load session state",
				zap.String("key", key), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		m.logger.Warn("corrupt session state, starting empty",
			zap.String("key", key), zap.Error(err))
	}
}

// persist writes one session state key. Failures are logged and
// swallowed: in-memory state remains the source of truth.
func (m *Manager) persist(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("failed to encode session state",
			zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, key, data); err != nil {
		m.logger.Warn("failed to persist session state, keeping in-memory",
			zap.String("key", key), zap.Error(err))
	}
}

// Search schedules a debounced content search. Any pending query is
// superseded: only the most recently scheduled timer may fire, so at
// most one result set is delivered for a burst of keystrokes. The
// callback (may be nil) and all subscribers receive the results.
func (m *Manager) Search(ctx context.Context, query string, opts deepsearch.Options, cb Listener) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		metrics.AddDebouncedQuery()
	}
	m.generation++
	gen := m.generation
	m.cancel = m.sched.Schedule(m.debounce, func() {
		m.fire(ctx, gen, query, opts, cb)
	})
	m.mu.Unlock()
}

// fire runs a debounced query if it has not been superseded since it was
// scheduled.
func (m *Manager) fire(ctx context.Context, gen uint64, query string, opts deepsearch.Options, cb Listener) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.cancel = nil
	m.mu.Unlock()

	results := m.SearchNow(ctx, query, opts)
	if cb != nil {
		cb(query, results)
	}
}

// SearchNow executes a content search immediately, bypassing the
// debounce. It lazily builds the index on first use, records the query
// in history, and notifies subscribers.
func (m *Manager) SearchNow(ctx context.Context, query string, opts deepsearch.Options) []deepsearch.Result {
	m.ensureIndex(ctx)
	results := m.engine.Search(query, opts)
	if strings.TrimSpace(query) != "" {
		m.recordHistory(ctx, query)
	}
	m.notify(query, results)
	return results
}

// ensureIndex builds the content index once, lazily.
func (m *Manager) ensureIndex(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built || m.builder == nil {
		return
	}
	m.engine.Replace(m.builder.Build(ctx))
	m.built = true
}

// RebuildIndex forces a fresh index build, replacing the snapshot
// atomically: queries in flight see either the old or the new index.
func (m *Manager) RebuildIndex(ctx context.Context) {
	if m.builder == nil {
		return
	}
	snap := m.builder.Build(ctx)
	m.mu.Lock()
	m.engine.Replace(snap)
	m.built = true
	m.mu.Unlock()
}

// RankTools ranks tools against query, injecting the session's current
// favorites and recents. A nil tools slice ranks the whole catalog.
func (m *Manager) RankTools(tools []tool.Record, query string, opts rank.Options) []rank.Result {
	if tools == nil && m.catalog != nil {
		tools = m.catalog.All()
	}

	m.mu.Lock()
	opts.Favorites = append([]string(nil), m.favorites...)
	recents := make([]string, 0, len(m.recents))
	for _, r := range m.recents {
		recents = append(recents, r.ToolID)
	}
	opts.RecentTools = recents
	m.mu.Unlock()

	start := time.Now()
	results := rank.Rank(tools, query, opts)
	metrics.ObserveSearch(metrics.KindCatalog, time.Since(start).Seconds())
	return results
}

// ToggleFavorite flips a tool's favorite status and reports the new
// state.
func (m *Manager) ToggleFavorite(ctx context.Context, toolID string) bool {
	m.mu.Lock()
	var now bool
	if _, ok := m.favSet[toolID]; ok {
		delete(m.favSet, toolID)
		for i, id := range m.favorites {
			if id == toolID {
				m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
				break
			}
		}
	} else {
		m.favSet[toolID] = struct{}{}
		m.favorites = append(m.favorites, toolID)
		now = true
	}
	favorites := append([]string(nil), m.favorites...)
	m.mu.Unlock()

	m.persist(ctx, KeyFavorites, favorites)
	return now
}

// TrackUsage increments a tool's usage counter and moves it to the front
// of the bounded recent list.
func (m *Manager) TrackUsage(ctx context.Context, toolID string) {
	m.mu.Lock()
	m.usage[toolID]++
	for i, r := range m.recents {
		if r.ToolID == toolID {
			m.recents = append(m.recents[:i], m.recents[i+1:]...)
			break
		}
	}
	m.recents = append([]RecentTool{{
		ToolID:    toolID,
		Timestamp: m.clock.Now().UnixMilli(),
	}}, m.recents...)
	if len(m.recents) > RecentLimit {
		m.recents = m.recents[:RecentLimit]
	}
	usage := make(map[string]int, len(m.usage))
	for k, v := range m.usage {
		usage[k] = v
	}
	recents := append([]RecentTool(nil), m.recents...)
	m.mu.Unlock()

	m.persist(ctx, KeyUsage, usage)
	m.persist(ctx, KeyRecent, recents)
}

// recordHistory prepends query to the deduplicated, bounded history.
func (m *Manager) recordHistory(ctx context.Context, query string) {
	m.mu.Lock()
	for i, q := range m.history {
		if q == query {
			m.history = append(m.history[:i], m.history[i+1:]...)
			break
		}
	}
	m.history = append([]string{query}, m.history...)
	if len(m.history) > HistoryLimit {
		m.history = m.history[:HistoryLimit]
	}
	history := append([]string(nil), m.history...)
	m.mu.Unlock()

	m.persist(ctx, KeyHistory, history)
}

// notify fans results out to subscribers, outside the state lock.
func (m *Manager) notify(query string, results []deepsearch.Result) {
	m.mu.Lock()
	listeners := make([]Listener, 0, len(m.subscribers))
	for _, l := range m.subscribers {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(query, results)
	}
}

// Subscribe registers a listener for every executed content search and
// returns its unsubscribe func.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	id := uuid.NewString()
	m.mu.Lock()
	m.subscribers[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Favorites returns favorite tool ids in insertion order.
func (m *Manager) Favorites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.favorites...)
}

// IsFavorite reports whether a tool is favorited.
func (m *Manager) IsFavorite(toolID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.favSet[toolID]
	return ok
}

// Recent returns the recent-tools list, most recent first.
func (m *Manager) Recent() []RecentTool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecentTool(nil), m.recents...)
}

// UsageCount returns how many times a tool was used this session scope.
func (m *Manager) UsageCount(toolID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[toolID]
}

// History returns the search history, most recent first.
func (m *Manager) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// Stats reports the current index snapshot statistics.
func (m *Manager) Stats() index.Stats {
	return m.engine.Snapshot().Stats(m.clock.Now())
}

// Close cancels any pending debounced query.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.generation++
}
