// Package cache implements the time-bounded confidence cache.
//
// Entries live in a concurrent in-memory index and are mirrored to a durable
// Store. Expiry is judged on read from each entry's creation time; there is no
// background eviction unless a cleanup interval is configured. Snapshots are
// written after every PersistEvery-th insertion and on Clear, so a crash may
// lose up to PersistEvery-1 recent entries.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/okian/tourcheck/internal/adapters/repository"
	"github.com/okian/tourcheck/pkg/logger"
	"github.com/okian/tourcheck/pkg/metrics"
)

// Defaults.
const (
	DefaultMaxAge       = 24 * time.Hour
	DefaultPersistEvery = 10
)

// Eviction reasons reported to metrics.
const (
	evictExpired = "expired"
	evictRemoved = "removed"
	evictCleared = "cleared"
)

// Stats summarizes the index.
type Stats struct {
	TotalEntries   int           `json:"totalEntries"`
	ValidEntries   int           `json:"validEntries"`
	ExpiredEntries int           `json:"expiredEntries"`
	MaxAge         time.Duration `json:"-"`
	MaxAgeMs       int64         `json:"maxAge"`
}

// Cache is an opaque key/value store with per-entry expiry. Keys are never
// interpreted; callers derive them through the names package.
type Cache struct {
	index        *gocache.Cache
	store        repository.Store
	maxAge       time.Duration
	persistEvery int
	sweep        time.Duration
	now          func() time.Time
	log          logger.Logger

	loadOnce sync.Once

	// mu serializes the insertion counter and snapshot writes.
	mu      sync.Mutex
	inserts int

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// closeErr is the store's Close result; the store is closed at most once.
	closeOnce sync.Once
	closeErr  error
}

// New builds a cache. Without WithStore it is memory-only.
func New(opts ...Option) *Cache {
	c := &Cache{
		// Entry lifetime is tracked by createdAt, not by go-cache's own expiry.
		index:        gocache.New(gocache.NoExpiration, 0),
		maxAge:       DefaultMaxAge,
		persistEvery: DefaultPersistEvery,
		now:          time.Now,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = repository.NewMemoryStore()
	}
	if c.log == nil {
		c.log = logger.GetOr(logger.Discard()).Named("cache")
	}
	if c.sweep > 0 {
		c.wg.Add(1)
		go c.sweeper()
	}
	return c
}

// Get decodes the live value for key into dst. Expired entries are evicted
// and reported absent. dst may be nil to test presence only.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	e, ok := c.lookup(ctx, key)
	if !ok {
		metrics.RecordCacheMiss()
		return false
	}
	if dst != nil {
		if err := json.Unmarshal(e.Value, dst); err != nil {
			c.log.Warn(ctx, "discarding undecodable cache entry", logger.String("key", key), logger.Error(err))
			c.index.Delete(key)
			metrics.RecordCacheMiss()
			return false
		}
	}
	metrics.RecordCacheHit()
	return true
}

// Has reports whether key holds a live entry, evicting it if expired.
func (c *Cache) Has(ctx context.Context, key string) bool {
	_, ok := c.lookup(ctx, key)
	return ok
}

// Set stores v under key, overwriting any previous entry.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.ensureLoaded(ctx)
	c.index.Set(key, repository.Entry{Value: raw, CreatedAt: c.now()}, gocache.NoExpiration)
	metrics.UpdateCacheEntries(c.index.ItemCount())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserts++
	if c.persistEvery > 0 && c.inserts%c.persistEvery == 0 {
		_ = c.persistLocked(ctx)
	}
	return nil
}

// Remove deletes key if present.
func (c *Cache) Remove(ctx context.Context, key string) {
	c.ensureLoaded(ctx)
	if _, ok := c.index.Get(key); ok {
		c.index.Delete(key)
		metrics.RecordCacheEviction(evictRemoved, 1)
		metrics.UpdateCacheEntries(c.index.ItemCount())
	}
}

// Clear drops every entry and persists the empty snapshot.
func (c *Cache) Clear(ctx context.Context) {
	c.ensureLoaded(ctx)
	n := c.index.ItemCount()
	c.index.Flush()
	metrics.RecordCacheEviction(evictCleared, n)
	metrics.UpdateCacheEntries(0)

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.persistLocked(ctx)
	c.log.Info(ctx, "cache cleared", logger.Int("removed", n))
}

// Stats counts live and expired entries without evicting anything.
func (c *Cache) Stats(ctx context.Context) Stats {
	c.ensureLoaded(ctx)
	now := c.now()
	s := Stats{MaxAge: c.maxAge, MaxAgeMs: c.maxAge.Milliseconds()}
	for _, it := range c.index.Items() {
		s.TotalEntries++
		if c.expired(it.Object.(repository.Entry), now) {
			s.ExpiredEntries++
		} else {
			s.ValidEntries++
		}
	}
	return s
}

// Cleanup removes expired entries and returns how many were removed. A
// snapshot is persisted only when something was removed.
func (c *Cache) Cleanup(ctx context.Context) int {
	c.ensureLoaded(ctx)
	now := c.now()
	removed := 0
	for key, it := range c.index.Items() {
		if c.expired(it.Object.(repository.Entry), now) {
			c.index.Delete(key)
			removed++
		}
	}
	if removed == 0 {
		return 0
	}
	metrics.RecordCacheEviction(evictExpired, removed)
	metrics.UpdateCacheEntries(c.index.ItemCount())

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.persistLocked(ctx)
	c.log.Debug(ctx, "expired entries removed", logger.Int("removed", removed))
	return removed
}

// Flush persists the current index regardless of the insertion counter.
func (c *Cache) Flush(ctx context.Context) error {
	c.ensureLoaded(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked(ctx)
}

// Close stops the sweeper and releases the store. It does not flush.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	c.closeOnce.Do(func() { c.closeErr = c.store.Close() })
	return c.closeErr
}

// MaxAge returns the configured entry lifetime.
func (c *Cache) MaxAge() time.Duration { return c.maxAge }

func (c *Cache) lookup(ctx context.Context, key string) (repository.Entry, bool) {
	c.ensureLoaded(ctx)
	obj, ok := c.index.Get(key)
	if !ok {
		return repository.Entry{}, false
	}
	e := obj.(repository.Entry)
	if c.expired(e, c.now()) {
		c.index.Delete(key)
		metrics.RecordCacheEviction(evictExpired, 1)
		metrics.UpdateCacheEntries(c.index.ItemCount())
		return repository.Entry{}, false
	}
	return e, true
}

func (c *Cache) expired(e repository.Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) > c.maxAge
}

// ensureLoaded pulls the durable snapshot into the index once. Entries that
// are already expired never enter the index.
func (c *Cache) ensureLoaded(ctx context.Context) {
	c.loadOnce.Do(func() {
		entries, err := c.store.Load(ctx)
		if err != nil {
			metrics.RecordCacheLoadError()
			c.log.Warn(ctx, "cache snapshot unreadable, starting empty", logger.Error(err))
			return
		}
		now := c.now()
		loaded, dropped := 0, 0
		for k, e := range entries {
			if c.expired(e, now) {
				dropped++
				continue
			}
			c.index.Set(k, e, gocache.NoExpiration)
			loaded++
		}
		metrics.UpdateCacheEntries(c.index.ItemCount())
		c.log.Info(ctx, "cache snapshot loaded", logger.Int("loaded", loaded), logger.Int("expired", dropped))
	})
}

// persistLocked writes the index to the store. Failures are logged and
// counted; the cache keeps serving from memory. Callers hold c.mu.
func (c *Cache) persistLocked(ctx context.Context) error {
	items := c.index.Items()
	snapshot := make(map[string]repository.Entry, len(items))
	for k, it := range items {
		snapshot[k] = it.Object.(repository.Entry)
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		metrics.RecordCachePersist(metrics.ResultFailure)
		c.log.Warn(ctx, "cache snapshot not persisted, continuing in memory",
			logger.Int("entries", len(snapshot)), logger.Error(err))
		return err
	}
	metrics.RecordCachePersist(metrics.ResultSuccess)
	return nil
}

func (c *Cache) sweeper() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Cleanup(context.Background())
		}
	}
}
