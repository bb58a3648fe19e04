// Package query caches keyed fetches with staleness, retry and pagination
// semantics for the diary reader.
package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Options configures a Cache.
type Options struct {
	// Name labels log lines and metrics.
	Name string
	// StaleTime is how long a value is served without refetching.
	StaleTime time.Duration
	// GCTime is how long a value is kept as a fallback after it goes stale.
	GCTime  time.Duration
	Retry   RetryPolicy
	Logger  *slog.Logger
	Metrics *Metrics
}

type entry[T any] struct {
	value   T
	fetched time.Time
}

// Cache is a keyed request cache. Identical concurrent Gets share one fetch.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	group   singleflight.Group
	opts    Options
	now     func() time.Time
}

// New creates an empty cache.
func New[T any](opts Options) *Cache[T] {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.GCTime < opts.StaleTime {
		opts.GCTime = opts.StaleTime
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		opts:    opts,
		now:     time.Now,
	}
}

func (c *Cache[T]) lookup(key string) (entry[T], bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetched) >= c.opts.GCTime {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return entry[T]{}, false
	}
	return e, ok
}

func (c *Cache[T]) fresh(e entry[T]) bool {
	return c.now().Sub(e.fetched) < c.opts.StaleTime
}

// Get returns the cached value for key when fresh, otherwise fetches it with
// fn under the retry policy. When the refetch fails with a transient error
// and a stale value is still held, the stale value is returned instead.
func (c *Cache[T]) Get(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	e, ok := c.lookup(key)
	if ok && c.fresh(e) {
		c.opts.Metrics.inc(c.opts.Name, "hit")
		return e.value, nil
	}
	c.opts.Metrics.inc(c.opts.Name, "miss")

	v, err, shared := c.group.Do(key, func() (any, error) {
		val, err := Retry(ctx, c.opts.Retry, c.opts.Logger.With("cache", c.opts.Name, "key", key), fn)
		if err != nil {
			return nil, err
		}
		c.set(key, val)
		return val, nil
	})
	if err != nil {
		if ok && c.opts.Retry.retryable(err) {
			if e, still := c.lookup(key); still {
				c.opts.Metrics.inc(c.opts.Name, "stale")
				c.opts.Logger.Warn("serving stale value",
					"cache", c.opts.Name,
					"key", key,
					"age", c.now().Sub(e.fetched),
					"error", err,
				)
				return e.value, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.opts.Name, key, err)
	}
	if shared {
		c.opts.Logger.Debug("shared in-flight fetch", "cache", c.opts.Name, "key", key)
	}
	return v.(T), nil
}

// Peek returns the held value for key regardless of staleness.
func (c *Cache[T]) Peek(key string) (T, bool) {
	e, ok := c.lookup(key)
	return e.value, ok
}

// Prefetch warms key in the background if it is not already fresh.
func (c *Cache[T]) Prefetch(ctx context.Context, key string, fn func(context.Context) (T, error)) {
	if e, ok := c.lookup(key); ok && c.fresh(e) {
		return
	}
	go func() {
		if _, err := c.Get(ctx, key, fn); err != nil {
			c.opts.Logger.Debug("prefetch failed", "cache", c.opts.Name, "key", key, "error", err)
		}
	}()
}

// Set stores value under key as freshly fetched.
func (c *Cache[T]) Set(key string, value T) {
	c.set(key, value)
}

func (c *Cache[T]) set(key string, value T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, fetched: c.now()}
	c.mu.Unlock()
}

// Invalidate drops key so the next Get refetches.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Sweep removes entries older than GCTime and returns how many were dropped.
func (c *Cache[T]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.fetched) >= c.opts.GCTime {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of held entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Metrics counts cache outcomes. A nil *Metrics records nothing.
type Metrics struct {
	lookups *prometheus.CounterVec
}

// NewMetrics registers cache collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diaryengine",
			Subsystem: "query",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result (hit, miss, stale).",
		}, []string{"cache", "result"}),
	}
	reg.MustRegister(m.lookups)
	return m
}

func (m *Metrics) inc(cache, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(cache, result).Inc()
}
