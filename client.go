package toolsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gdziedzic/toolsearch/internal/catalog"
	"github.com/gdziedzic/toolsearch/internal/deepsearch"
	"github.com/gdziedzic/toolsearch/internal/indexer"
	"github.com/gdziedzic/toolsearch/internal/session"
	"github.com/gdziedzic/toolsearch/internal/store"
	storememory "github.com/gdziedzic/toolsearch/internal/store/memory"
	storeredis "github.com/gdziedzic/toolsearch/internal/store/redis"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the toolsearch entry point: catalog ranking, deep-content
// search, and session state over one persisted store.
type Client struct {
	store     store.Store
	ownsStore bool
	manager   *session.Manager
}

// New creates a toolsearch Client. With no options it ranks an empty
// catalog over an in-memory store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:   "memory",
		keywords: indexer.DefaultSensitiveKeywords,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	st, owns, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	builder := indexer.New(indexer.Config{
		Store:          st,
		Redactor:       indexer.NewRedactor(cfg.keywords),
		Clock:          cfg.clock,
		Logger:         cfg.logger,
		ClipboardLimit: cfg.clipboardLimit,
	})

	manager := session.New(context.Background(), session.Config{
		Catalog:   catalog.NewStatic(toInternalTools(cfg.tools)),
		Store:     st,
		Builder:   builder,
		Engine:    deepsearch.New(),
		Clock:     cfg.clock,
		Scheduler: cfg.scheduler,
		Logger:    cfg.logger,
		Debounce:  cfg.debounce,
	})

	return &Client{store: st, ownsStore: owns, manager: manager}, nil
}

func createStore(cfg *clientConfig) (store.Store, bool, error) {
	if cfg.customStore != nil {
		return cfg.customStore, false, nil
	}
	switch cfg.driver {
	case "memory":
		return storememory.NewStore(), true, nil
	case "redis":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:     cfg.addrs,
			Username:  cfg.username,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, false, fmt.Errorf("toolsearch: create redis store: %w", err)
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, false, fmt.Errorf("toolsearch: store not ready: %w", err)
		}
		return s, true, nil
	default:
		return nil, false, errors.New("toolsearch: unknown store driver " + cfg.driver)
	}
}

// RankTools ranks the registered catalog against query, favorites and
// recency included. Synchronous.
func (c *Client) RankTools(query string, opts *RankOptions) []ToolResult {
	results := c.manager.RankTools(nil, query, toInternalRankOptions(opts))
	return fromToolResults(results)
}

// Search schedules a debounced content search. When the quiet period
// elapses, cb and all subscribers receive the results; a newer Search
// call before then supersedes this one entirely.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions, cb func(query string, results []ContentResult)) {
	var inner session.Listener
	if cb != nil {
		inner = func(q string, results []deepsearch.Result) {
			cb(q, fromContentResults(results))
		}
	}
	c.manager.Search(ctx, query, toInternalSearchOptions(opts), inner)
}

// SearchNow executes a content search immediately, without debouncing.
func (c *Client) SearchNow(ctx context.Context, query string, opts *SearchOptions) []ContentResult {
	return fromContentResults(c.manager.SearchNow(ctx, query, toInternalSearchOptions(opts)))
}

// Subscribe registers a listener for every executed content search and
// returns its unsubscribe func.
func (c *Client) Subscribe(fn func(query string, results []ContentResult)) (unsubscribe func()) {
	return c.manager.Subscribe(func(q string, results []deepsearch.Result) {
		fn(q, fromContentResults(results))
	})
}

// ToggleFavorite flips a tool's favorite status and reports the new
// state.
func (c *Client) ToggleFavorite(ctx context.Context, toolID string) bool {
	return c.manager.ToggleFavorite(ctx, toolID)
}

// TrackUsage records one use of a tool: its usage counter increments and
// it moves to the front of the recent list.
func (c *Client) TrackUsage(ctx context.Context, toolID string) {
	c.manager.TrackUsage(ctx, toolID)
}

// RebuildIndex rebuilds the content index from the store, replacing the
// previous snapshot atomically.
func (c *Client) RebuildIndex(ctx context.Context) {
	c.manager.RebuildIndex(ctx)
}

// Favorites returns favorite tool ids in the order they were favorited.
func (c *Client) Favorites() []string {
	return c.manager.Favorites()
}

// Recent returns recently used tools, most recent first.
func (c *Client) Recent() []RecentTool {
	return fromRecents(c.manager.Recent())
}

// History returns the search history, most recent first.
func (c *Client) History() []string {
	return c.manager.History()
}

// Stats reports current index statistics.
func (c *Client) Stats() Stats {
	return fromStats(c.manager.Stats())
}

// Close cancels pending queries and releases the store if this client
// created it.
func (c *Client) Close() {
	c.manager.Close()
	if c.ownsStore {
		c.store.Close()
	}
}
