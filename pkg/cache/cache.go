// Package cache is the process-wide query cache shared by every resource
// fetcher. Entries are keyed by (resource, canonical filter key); two reads
// with structurally equal filters share one cached result and one in-flight
// backend request.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	data      any
	updatedAt time.Time
}

// Cache holds cached query results per resource. All methods are safe for
// concurrent use. Cached values are treated as immutable: fetch functions
// and patch functions must return fresh values, never mutate stored ones.
// That discipline is what makes Snapshot/Restore exact.
type Cache struct {
	mu        sync.Mutex
	resources map[string]map[string]entry
	inflight  map[string]map[string]context.CancelFunc
	group     singleflight.Group

	hits          prometheus.Counter
	misses        prometheus.Counter
	invalidations prometheus.Counter
	rollbacks     prometheus.Counter
}

// New creates an empty cache. Metrics are registered on reg; pass nil to
// keep them unregistered (tests).
func New(reg prometheus.Registerer) *Cache {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Cache{
		resources: make(map[string]map[string]entry),
		inflight:  make(map[string]map[string]context.CancelFunc),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Reads served from a fresh cache entry.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Reads that required a backend fetch.",
		}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Cache entries dropped by mutation invalidation.",
		}),
		rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_optimistic_rollbacks_total",
			Help: "Optimistic patches rolled back after a failed write.",
		}),
	}
}

// Fetch returns the cached value for (resource, key) when it is younger than
// staleTTL, and otherwise executes fn and caches its result. Concurrent
// fetches for the same (resource, key) are de-duplicated into a single
// backend call whose result all callers share.
//
// When fn fails and a previous value exists, that previous value is returned
// alongside the error so callers can keep rendering stale data.
func Fetch[T any](ctx context.Context, c *Cache, resource, key string, staleTTL time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if data, ok := c.fresh(resource, key, staleTTL); ok {
		c.hits.Inc()
		return data.(T), nil
	}
	c.misses.Inc()

	flightKey := resource + "\x00" + key
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		fctx, cancel := context.WithCancel(ctx)
		c.trackInflight(resource, key, cancel)
		defer func() {
			cancel()
			c.untrackInflight(resource, key)
			c.group.Forget(flightKey)
		}()

		data, err := fn(fctx)
		if err != nil {
			return nil, err
		}
		// A fetch canceled by an optimistic patch must not overwrite the
		// patched entry with its stale result. commitFetched re-checks the
		// cancellation under the cache lock so a cancel landing between the
		// fetch returning and the write cannot slip through.
		if !c.commitFetched(fctx, resource, key, data) {
			return nil, fctx.Err()
		}
		return data, nil
	})
	if err != nil {
		if prev, ok := c.peek(resource, key); ok {
			return prev.(T), err
		}
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops all cached entries for the given resources so the next
// read refetches from the backend.
func (c *Cache) Invalidate(resources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, resource := range resources {
		if n := len(c.resources[resource]); n > 0 {
			c.invalidations.Add(float64(n))
		}
		delete(c.resources, resource)
	}
}

// PatchFunc transforms one cached value. It must return a fresh value and
// report whether anything changed; returning changed=false leaves the entry
// untouched.
type PatchFunc func(data any) (any, bool)

// Patch applies fn to every cached entry of a resource, synchronously. Used
// for optimistic counter updates ahead of the authoritative refetch.
func (c *Cache) Patch(resource string, fn PatchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.resources[resource] {
		if next, changed := fn(e.data); changed {
			e.data = next
			c.resources[resource][key] = e
		}
	}
}

// Snapshot captures the current entries of the given resources. Because
// cached values are immutable, the snapshot shares them safely.
type Snapshot map[string]map[string]entry

// Snapshot returns a restorable copy of the given resources' cache state.
func (c *Cache) Snapshot(resources ...string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := make(Snapshot, len(resources))
	for _, resource := range resources {
		entries := make(map[string]entry, len(c.resources[resource]))
		for key, e := range c.resources[resource] {
			entries[key] = e
		}
		snap[resource] = entries
	}
	return snap
}

// Restore puts the snapshotted resources back exactly as captured.
func (c *Cache) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for resource, entries := range snap {
		restored := make(map[string]entry, len(entries))
		for key, e := range entries {
			restored[key] = e
		}
		c.resources[resource] = restored
	}
}

// CancelInflight aborts in-flight fetches for the given resources so a stale
// read resolving late cannot overwrite an optimistic patch.
func (c *Cache) CancelInflight(resources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, resource := range resources {
		for key, cancel := range c.inflight[resource] {
			cancel()
			c.group.Forget(resource + "\x00" + key)
		}
		delete(c.inflight, resource)
	}
}

// Len reports the number of cached entries for a resource.
func (c *Cache) Len(resource string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resources[resource])
}

func (c *Cache) fresh(resource, key string, staleTTL time.Duration) (any, bool) {
	if staleTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.resources[resource][key]
	if !ok || time.Since(e.updatedAt) > staleTTL {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) peek(resource, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.resources[resource][key]
	if !ok {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) store(resource, key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(resource, key, data)
}

// commitFetched stores a fetch result unless fctx was cancelled first.
// CancelInflight cancels while holding the cache lock, so checking the
// context and writing the entry under that same lock leaves no window where
// a cancelled fetch can land on top of an optimistic patch.
func (c *Cache) commitFetched(fctx context.Context, resource, key string, data any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fctx.Err() != nil {
		return false
	}
	c.storeLocked(resource, key, data)
	return true
}

func (c *Cache) storeLocked(resource, key string, data any) {
	if c.resources[resource] == nil {
		c.resources[resource] = make(map[string]entry)
	}
	c.resources[resource][key] = entry{data: data, updatedAt: time.Now()}
}

func (c *Cache) trackInflight(resource, key string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[resource] == nil {
		c.inflight[resource] = make(map[string]context.CancelFunc)
	}
	c.inflight[resource][key] = cancel
}

func (c *Cache) untrackInflight(resource, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight[resource], key)
}
