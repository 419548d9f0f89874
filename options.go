package toolsearch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gdziedzic/toolsearch/internal/store"
)

// ErrNotFound is returned by Store implementations for missing keys.
var ErrNotFound = store.ErrNotFound

// Store is the persisted key-value store the engine keeps session state
// in and reads raw content records from. Implementations return
// ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close()
}

// Clock supplies the current time. Inject a fixed clock for
// deterministic tests.
type Clock interface {
	Now() time.Time
}

// Scheduler abstracts the debounce timer so tests can drive time
// instead of sleeping.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver         string
	addrs          []string
	username       string
	password       string
	keyPrefix      string
	customStore    Store
	tools          []Tool
	keywords       []string
	debounce       time.Duration
	clipboardLimit int
	clock          Clock
	scheduler      Scheduler
	logger         *zap.Logger
}

// WithMemoryStore backs the client with an in-process store. This is the
// default.
func WithMemoryStore() Option {
	return func(c *clientConfig) { c.driver = "memory" }
}

// WithRedis backs the client with Redis at the given addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = addrs
	}
}

// WithRedisAuth sets Redis credentials.
func WithRedisAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithKeyPrefix namespaces all store keys (redis driver only).
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithStore supplies a custom store implementation. The client does not
// close a store it did not create.
func WithStore(s Store) Option {
	return func(c *clientConfig) { c.customStore = s }
}

// WithTools registers the tool catalog to rank against.
func WithTools(tools ...Tool) Option {
	return func(c *clientConfig) { c.tools = tools }
}

// WithSensitiveKeywords replaces the stock redaction denylist. Passing
// an empty list fails closed: no content is indexed at all.
func WithSensitiveKeywords(keywords ...string) Option {
	return func(c *clientConfig) { c.keywords = keywords }
}

// WithDebounce sets the debounce delay for Search.
func WithDebounce(d time.Duration) Option {
	return func(c *clientConfig) { c.debounce = d }
}

// WithClipboardLimit caps how many clipboard items are indexed.
func WithClipboardLimit(n int) Option {
	return func(c *clientConfig) { c.clipboardLimit = n }
}

// WithClock injects a clock, for deterministic tests.
func WithClock(clk Clock) Option {
	return func(c *clientConfig) { c.clock = clk }
}

// WithScheduler injects a debounce scheduler, for deterministic tests.
func WithScheduler(s Scheduler) Option {
	return func(c *clientConfig) { c.scheduler = s }
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
