package stac

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/paulmach/orb/encoding/wkt"
)

// Searcher is the catalog search capability.
type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Item, error)
}

// CachedCatalog wraps a Searcher with an in-memory LRU cache.
type CachedCatalog struct {
	inner   Searcher
	cache   *lruCache[[]domain.Item]
	metrics *observability.Metrics
}

// NewCachedCatalog creates a cache decorator around a catalog.
func NewCachedCatalog(inner Searcher, maxEntries int, metrics *observability.Metrics) *CachedCatalog {
	return &CachedCatalog{
		inner:   inner,
		cache:   newLRUCache[[]domain.Item](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedCatalog) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Item, error) {
	key := queryKey(q)
	if items, ok := c.cache.get(key); ok {
		c.metrics.SearchCache.WithLabelValues("hit").Inc()
		return items, nil
	}
	c.metrics.SearchCache.WithLabelValues("miss").Inc()

	items, err := c.inner.Search(ctx, q)
	if err != nil {
		return items, err
	}
	// Only cache non-empty results so scenes published later are still found.
	if len(items) > 0 {
		c.cache.put(key, items)
	}
	return items, nil
}

func queryKey(q domain.SearchQuery) string {
	geom := ""
	if q.Geometry != nil {
		geom = wkt.MarshalString(q.Geometry)
	}
	return fmt.Sprintf("%s|%s|%s|%g|%d", geom, q.Window.Interval(), strings.Join(q.Collections, ","), q.MaxCloudCover, q.Limit)
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
