package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"spotfinder/models"
	"spotfinder/services/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache, err := NewMemoryCache(time.Hour, 10, WithClock(clock.Now))
	require.NoError(t, err)

	loc := &models.LatLng{Latitude: 37.7749, Longitude: -122.4194}
	cache.Put(ctx, "coffee", loc, spread(models.SourceMapbox, "mbx", 2))

	clock.Advance(59 * time.Minute)
	got, ok := cache.Get(ctx, "coffee", loc)
	require.True(t, ok)
	assert.Len(t, got, 2)

	clock.Advance(time.Minute)
	_, ok = cache.Get(ctx, "coffee", loc)
	assert.False(t, ok)
}

func TestMemoryCache_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(time.Hour, 10)
	require.NoError(t, err)

	cache.Put(ctx, "coffee", nil, spread(models.SourceMapbox, "mbx", 3))
	cache.Put(ctx, "coffee", nil, spread(models.SourceMapbox, "mbx", 1))

	got, ok := cache.Get(ctx, "coffee", nil)
	require.True(t, ok)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheKey_DistinguishesMissingLocation(t *testing.T) {
	zero := &models.LatLng{}
	assert.NotEqual(t, CacheKey("coffee", nil), CacheKey("coffee", zero))
	assert.Equal(t, CacheKey("Coffee ", nil), CacheKey("coffee", nil))
	assert.Equal(t,
		CacheKey("coffee", &models.LatLng{Latitude: 37.77491, Longitude: -122.41941}),
		CacheKey("coffee", &models.LatLng{Latitude: 37.77494, Longitude: -122.41939}))
}

func TestSessionTokens_Rotation(t *testing.T) {
	clock := newFakeClock()
	tokens := NewSessionTokens(5*time.Minute, clock.Now)

	first := tokens.Token()
	assert.NotEmpty(t, first)

	clock.Advance(299 * time.Second)
	assert.Equal(t, first, tokens.Token())

	clock.Advance(time.Second)
	second := tokens.Token()
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, tokens.Token())
}

func TestCachedProvider_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(time.Hour, 10)
	require.NoError(t, err)
	inner := &fakeProvider{name: models.SourceGoogle, results: spread(models.SourceGoogle, "ggl", 4)}
	p := NewCachedProvider(inner, cache, zaptest.NewLogger(t))

	first, err := p.Search(ctx, "pizza", 4, nil)
	require.NoError(t, err)
	second, err := p.Search(ctx, "pizza", 2, nil)
	require.NoError(t, err)

	assert.Len(t, first, 4)
	assert.Len(t, second, 2)
	assert.Equal(t, 1, inner.callCount())
	assert.Equal(t, models.SourceGoogle, p.Name())
	assert.Equal(t, cache.SessionToken(), inner.tokens[0])
}

func TestCachedProvider_DoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(time.Hour, 10)
	require.NoError(t, err)
	inner := &fakeProvider{name: models.SourceMapbox, err: assert.AnError}
	p := NewCachedProvider(inner, cache, nil)

	_, err = p.Search(ctx, "pizza", 4, nil)
	assert.ErrorIs(t, err, assert.AnError)
	_, err = p.Search(ctx, "pizza", 4, nil)
	assert.Error(t, err)
	assert.Equal(t, 2, inner.callCount())
	assert.Zero(t, cache.Len())
}

func TestCachedProvider_DetailsCarrySessionToken(t *testing.T) {
	cache, err := NewMemoryCache(time.Hour, 10)
	require.NoError(t, err)
	inner := &fakeProvider{name: models.SourceGoogle, details: map[string]models.Candidate{
		"ChIJ1": candidate(models.SourceGoogle, "ChIJ1", "Tartine", 37.76, -122.42),
	}}
	p := NewCachedProvider(inner, cache, nil)

	c, err := p.Details(context.Background(), "ChIJ1")
	require.NoError(t, err)
	assert.Equal(t, "Tartine", c.Name)

	_, err = p.Details(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedProvider_ShortCascadeRequestDoesNotShrinkLaterResults(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(time.Hour, 10)
	require.NoError(t, err)
	local := &fakeProvider{name: models.SourceLocal, results: spread(models.SourceLocal, "local", 4)}
	inner := &fakeProvider{name: models.SourceMapbox, results: spread(models.SourceMapbox, "mbx", 8)}
	mapbox := NewCachedProvider(inner, cache, zaptest.NewLogger(t))

	got := NewCascade(local, []providers.Provider{mapbox}, sameAt30m).Search(ctx, "cafe", 5, nil)
	require.Len(t, got, 5)
	assert.Equal(t, []int{DefaultFetchSize}, inner.limits)

	more, err := mapbox.Search(ctx, "cafe", 8, nil)
	require.NoError(t, err)
	assert.Len(t, more, 8)
	assert.Equal(t, 1, inner.callCount())
}

func TestCachedProvider_FullPageRefetchesForLargerLimit(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryCache(time.Hour, 10)
	require.NoError(t, err)
	inner := &fakeProvider{name: models.SourceGoogle, results: spread(models.SourceGoogle, "ggl", 8)}
	p := NewCachedProvider(inner, cache, nil, WithFetchSize(3))

	first, err := p.Search(ctx, "tacos", 2, nil)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := p.Search(ctx, "tacos", 5, nil)
	require.NoError(t, err)
	assert.Len(t, second, 5)
	assert.Equal(t, []int{3, 5}, inner.limits)

	third, err := p.Search(ctx, "tacos", 4, nil)
	require.NoError(t, err)
	assert.Len(t, third, 4)
	assert.Equal(t, 2, inner.callCount())
}
