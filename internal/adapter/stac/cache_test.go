package stac

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingSearcher struct {
	calls int
	items []domain.Item
	err   error
}

func (m *countingSearcher) Search(_ context.Context, _ domain.SearchQuery) ([]domain.Item, error) {
	m.calls++
	return m.items, m.err
}

// --- CachedCatalog tests ---

func TestCachedCatalog_CacheHit(t *testing.T) {
	inner := &countingSearcher{items: []domain.Item{{ID: "scene-1"}}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedCatalog(inner, 10, metrics)
	q := testQuery(t)

	r1, err := cached.Search(context.Background(), q)
	require.NoError(t, err)
	r2, err := cached.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SearchCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SearchCache.WithLabelValues("miss")), 0)
}

func TestCachedCatalog_DifferentWindowsMiss(t *testing.T) {
	inner := &countingSearcher{items: []domain.Item{{ID: "scene-1"}}}
	cached := NewCachedCatalog(inner, 10, observability.NewMetricsForTesting())

	pre := testQuery(t)
	post := pre
	var err error
	post.Window, err = domain.ParseTimeWindow("2023-08-01/2023-08-15")
	require.NoError(t, err)

	_, _ = cached.Search(context.Background(), pre)
	_, _ = cached.Search(context.Background(), post)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedCatalog_EmptyNotCached(t *testing.T) {
	inner := &countingSearcher{}
	cached := NewCachedCatalog(inner, 10, observability.NewMetricsForTesting())
	q := testQuery(t)

	_, _ = cached.Search(context.Background(), q)
	_, _ = cached.Search(context.Background(), q)

	assert.Equal(t, 2, inner.calls, "empty results should not be cached")
}

func TestCachedCatalog_ErrorNotCached(t *testing.T) {
	inner := &countingSearcher{err: errors.New("boom")}
	cached := NewCachedCatalog(inner, 10, observability.NewMetricsForTesting())
	q := testQuery(t)

	_, err := cached.Search(context.Background(), q)
	require.Error(t, err)
	_, err = cached.Search(context.Background(), q)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedCatalog_ZeroSizeDisablesCaching(t *testing.T) {
	inner := &countingSearcher{items: []domain.Item{{ID: "scene-1"}}}
	cached := NewCachedCatalog(inner, 0, observability.NewMetricsForTesting())
	q := testQuery(t)

	_, _ = cached.Search(context.Background(), q)
	_, _ = cached.Search(context.Background(), q)

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[string](3)

	c.put("a", "A")
	c.put("b", "B")

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A")
	c.put("b", "B")
	c.put("c", "C") // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	v, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", v)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A")
	c.put("b", "B")
	c.get("a")
	c.put("c", "C") // evicts "b", the least recently used

	_, ok := c.get("b")
	assert.False(t, ok)
	_, ok = c.get("a")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "old")
	c.put("a", "new")

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.size())
}

func TestQueryKey_DistinguishesCloudCover(t *testing.T) {
	q := testQuery(t)
	other := q
	other.MaxCloudCover = 20
	assert.NotEqual(t, queryKey(q), queryKey(other))
	assert.Equal(t, queryKey(q), queryKey(testQuery(t)))
}
