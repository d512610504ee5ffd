package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Mr-7mdan/PG/logger"
)

// Cache is the public facade over the durable store, codec, and expiry
// policy. Construct one with New at startup, share it by reference, and
// Close it at shutdown. All methods are safe for concurrent use; conflicting
// writes on the same key are last-writer-wins.
type Cache struct {
	store      *sqliteStore
	log        logger.Logger
	now        func() time.Time
	defaultTTL time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for swallowed write failures and eviction
// diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithDefaultTTL overrides the TTL applied when a write carries no explicit
// WithTTL option. Defaults to DefaultTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// New opens (or creates) the cache database under dir. An empty dir or
// ":memory:" yields a non-persistent database, which the tests use. Any
// failure here is ErrStorageUnavailable and should abort startup.
func New(ctx context.Context, dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		now:        time.Now,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewConsoleLogger(logger.LevelInfo)
	}
	store, err := openStore(dir)
	if err != nil {
		return nil, err
	}
	c.store = store
	c.log.Debug("cache opened at %s", store.path)
	return c, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.store.close()
}

type writeConfig struct {
	ttl    time.Duration
	hasTTL bool
}

// WriteOption adjusts a single Set or Update call.
type WriteOption func(*writeConfig)

// WithTTL sets the time-to-live for the written entry. A zero TTL produces
// an entry that is already expired on the next read; this is distinct from
// the never-expire sentinel, which Set never produces.
func WithTTL(ttl time.Duration) WriteOption {
	return func(w *writeConfig) {
		w.ttl = ttl
		w.hasTTL = true
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(key)
}

// Get returns the fresh value stored under key, if any. Keys are
// case-insensitive. A stale or undecodable entry is deleted as a side
// effect and reported as a miss; a poisoned row must never break reads.
// Unexpected storage errors propagate.
func (c *Cache) Get(ctx context.Context, key string) (Value, bool, error) {
	key = normalizeKey(key)

	raw, rawExp, err := c.store.read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Value{}, false, nil
	}
	if err != nil {
		return Value{}, false, err
	}

	deadline, err := decodeDeadline(rawExp)
	if err != nil {
		c.log.Warn("dropping cache entry %s with unreadable expiry: %s", key, err)
		c.evict(ctx, key)
		return Value{}, false, nil
	}
	if !fresh(deadline, c.now()) {
		c.log.Debug("cache entry %s expired, evicting", key)
		c.evict(ctx, key)
		return Value{}, false, nil
	}

	v, err := Decode(raw)
	if err != nil {
		c.log.Warn("dropping corrupt cache entry %s: %s", key, err)
		c.evict(ctx, key)
		return Value{}, false, nil
	}
	return v, true, nil
}

func (c *Cache) evict(ctx context.Context, key string) {
	if err := c.store.delete(ctx, key); err != nil {
		c.log.Warn("failed to evict cache entry %s: %s", key, err)
	}
}

// Set stores val under key. It first attempts an insert; when the key is
// already present it falls back to a full replace, so Set is idempotent
// regardless of prior state and never leaves two rows for one key.
//
// Storage failures are logged and swallowed: a cache write must never abort
// the caller's primary workflow. Only context cancellation is returned.
func (c *Cache) Set(ctx context.Context, key string, val Value, opts ...WriteOption) error {
	key = normalizeKey(key)
	raw, rawExp, err := c.encode(val, opts)
	if err != nil {
		c.log.Warn("failed to encode value for %s: %s", key, err)
		return nil
	}

	err = c.store.insert(ctx, key, raw, rawExp)
	if errors.Is(err, ErrDuplicateKey) {
		c.log.Debug("key %s already cached, replacing", key)
		err = c.store.write(ctx, key, raw, rawExp)
	}
	return c.finishWrite(ctx, key, err)
}

// Update stores val under key with unconditional replace semantics. Same
// swallow policy as Set.
func (c *Cache) Update(ctx context.Context, key string, val Value, opts ...WriteOption) error {
	key = normalizeKey(key)
	raw, rawExp, err := c.encode(val, opts)
	if err != nil {
		c.log.Warn("failed to encode value for %s: %s", key, err)
		return nil
	}
	return c.finishWrite(ctx, key, c.store.write(ctx, key, raw, rawExp))
}

func (c *Cache) finishWrite(ctx context.Context, key string, err error) error {
	if err != nil {
		c.log.Warn("failed to cache %s: %s", key, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return nil
	}
	c.log.Debug("cached %s", key)
	return nil
}

func (c *Cache) encode(val Value, opts []WriteOption) (raw, rawExp []byte, err error) {
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	ttl := cfg.ttl
	hasTTL := cfg.hasTTL
	if !hasTTL && c.defaultTTL != DefaultTTL {
		ttl = c.defaultTTL
		hasTTL = true
	}
	raw, err = Encode(val)
	if err != nil {
		return nil, nil, err
	}
	rawExp, err = encodeDeadline(deadlineFor(c.now(), ttl, hasTTL))
	if err != nil {
		return nil, nil, err
	}
	return raw, rawExp, nil
}

// Delete removes the entry for key. Deleting an absent key is success.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.delete(ctx, normalizeKey(key))
}

// Count returns the total number of stored entries, including stale ones
// that have not yet been lazily evicted.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	return c.store.count(ctx)
}

// Clear removes every entry. Used by the standalone CLI clear mode.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.clear(ctx)
}
