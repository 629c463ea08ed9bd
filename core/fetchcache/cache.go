// Package fetchcache memoizes keyed fetches for the lifetime of a session.
//
// A key is fetched at most once: successes and "no data" answers are stored,
// any other failure is reported and left uncached so the next Load retries.
// Concurrent loads of the same key share one fetch, and results that settle
// after the key was invalidated (or the cache cleared) are dropped.
package fetchcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves the value of one key.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Entry is a stored result. A non-empty Missing marks a negative result.
type Entry[V any] struct {
	Value     V
	Missing   string
	FetchedAt time.Time
}

func (e Entry[V]) IsMissing() bool {
	return e.Missing != ""
}

type Status string

const (
	StatusAbsent   Status = "absent"
	StatusFetching Status = "fetching"
	StatusCached   Status = "cached"
	StatusMissing  Status = "missing"
)

type Stats struct {
	Hits        int
	Misses      int
	Fetches     int
	Shared      int
	StaleWrites int
}

type options struct {
	isNoData func(error) bool
	onError  func(cache, key string, err error)
	metrics  *Metrics
	now      func() time.Time
}

type Option func(*options)

// WithNoData sets the predicate deciding which fetch errors are stored as negative results.
func WithNoData(fn func(error) bool) Option {
	return func(o *options) { o.isNoData = fn }
}

// WithErrorHook is called for every fetch error that is not cached.
// The hook runs under the cache lock and must not call back into the cache.
func WithErrorHook(fn func(cache, key string, err error)) Option {
	return func(o *options) { o.onError = fn }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now for FetchedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// token identifies the generation a fetch was started in.
type token struct {
	epoch uint64
	gen   uint64
}

type Cache[V any] struct {
	name string
	opts options

	mu       sync.Mutex
	entries  map[string]Entry[V]
	gens     map[string]uint64
	fetching map[string]token
	epoch    uint64
	selected string
	stats    Stats

	flights singleflight.Group
}

func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{
		isNoData: func(error) bool { return false },
		onError:  func(string, string, error) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		name:     name,
		opts:     o,
		entries:  make(map[string]Entry[V]),
		gens:     make(map[string]uint64),
		fetching: make(map[string]token),
	}
}

func (c *Cache[V]) Name() string {
	return c.name
}

// Load returns the entry of key, calling fetch on a miss.
// A caller whose ctx ends stops waiting; the shared fetch still settles the entry.
func (c *Cache[V]) Load(ctx context.Context, key string, fetch Fetcher[V]) (Entry[V], error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.stats.Hits++
		c.mu.Unlock()
		c.opts.metrics.inc(hits, c.name)
		return e, nil
	}
	c.stats.Misses++
	c.mu.Unlock()
	c.opts.metrics.inc(misses, c.name)

	ch := c.flights.DoChan(key, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), key, fetch)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.mu.Lock()
			c.stats.Shared++
			c.mu.Unlock()
		}
		if res.Err != nil {
			return Entry[V]{}, res.Err
		}
		return res.Val.(Entry[V]), nil
	case <-ctx.Done():
		return Entry[V]{}, ctx.Err()
	}
}

func (c *Cache[V]) fetch(ctx context.Context, key string, fetch Fetcher[V]) (interface{}, error) {
	c.mu.Lock()
	// a flight for key may have settled between the miss and this call
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e, nil
	}
	tok := c.tokenLocked(key)
	c.fetching[key] = tok
	c.stats.Fetches++
	c.mu.Unlock()

	val, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.fetching[key]; ok && cur == tok {
		delete(c.fetching, key)
	}
	stale := c.tokenLocked(key) != tok

	var e Entry[V]
	switch {
	case err == nil:
		e = Entry[V]{Value: val, FetchedAt: c.opts.now()}
	case c.opts.isNoData(err):
		e = Entry[V]{Missing: err.Error(), FetchedAt: c.opts.now()}
		if !stale {
			c.opts.metrics.inc(noData, c.name)
		}
	default:
		c.opts.metrics.inc(fetchErrors, c.name)
		c.opts.onError(c.name, key, err)
		return nil, err
	}

	if stale {
		c.stats.StaleWrites++
		c.opts.metrics.inc(staleWrites, c.name)
		return e, nil
	}
	c.entries[key] = e
	return e, nil
}

func (c *Cache[V]) tokenLocked(key string) token {
	return token{epoch: c.epoch, gen: c.gens[key]}
}

// Get returns the stored entry of key without fetching.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache[V]) Status(key string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		if e.IsMissing() {
			return StatusMissing
		}
		return StatusCached
	}
	// a flight started before Clear or Invalidate will not be stored
	if tok, ok := c.fetching[key]; ok && tok == c.tokenLocked(key) {
		return StatusFetching
	}
	return StatusAbsent
}

// Select records key as the current selection. Selecting does not fetch.
func (c *Cache[V]) Select(key string) {
	c.mu.Lock()
	c.selected = key
	c.mu.Unlock()
}

func (c *Cache[V]) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys in ascending order.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Invalidate drops key; a fetch of key still in flight will not be stored.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.flights.Forget(key)
}

// Clear drops every entry and the selection; fetches in flight will not be stored.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.fetching))
	for k := range c.fetching {
		keys = append(keys, k)
	}
	c.entries = make(map[string]Entry[V])
	c.gens = make(map[string]uint64)
	c.epoch++
	c.selected = ""
	c.mu.Unlock()

	for _, k := range keys {
		c.flights.Forget(k)
	}
}
