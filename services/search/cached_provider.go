package search

import (
	"context"
	"fmt"

	"spotfinder/models"
	"spotfinder/services/providers"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchSize is the page requested from a provider on a cache miss,
// independent of how many results the caller wants. It matches the largest
// page the remote providers return.
const DefaultFetchSize = 10

// CachedProvider puts a ResultCache in front of a remote provider. Concurrent
// misses for the same key share one upstream call.
//
// The cache key does not include the limit, so misses always fetch at least
// fetchSize results and every caller truncates its own copy.
type CachedProvider struct {
	inner     providers.Provider
	cache     ResultCache
	group     singleflight.Group
	fetchSize int
	logger    *zap.Logger
}

// CachedOption configures a CachedProvider.
type CachedOption func(*CachedProvider)

// WithFetchSize sets the page size requested on a miss.
func WithFetchSize(n int) CachedOption {
	return func(c *CachedProvider) {
		if n > 0 {
			c.fetchSize = n
		}
	}
}

// NewCachedProvider wraps p with cache.
func NewCachedProvider(p providers.Provider, cache ResultCache, logger *zap.Logger, opts ...CachedOption) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CachedProvider{inner: p, cache: cache, fetchSize: DefaultFetchSize, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

// Search serves from the cache when fresh, otherwise calls the provider with
// the current session token and stores a successful response.
func (c *CachedProvider) Search(ctx context.Context, query string, limit int, loc *models.LatLng) ([]models.Candidate, error) {
	if cached, ok := c.cache.Get(ctx, query, loc); ok && !c.mayHaveMore(cached, limit) {
		c.logger.Debug("result cache hit", zap.String("provider", c.inner.Name()), zap.String("query", query))
		return truncate(cached, limit), nil
	}

	fetch := max(limit, c.fetchSize)
	key := fmt.Sprintf("%s#%d", CacheKey(query, loc), fetch)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Detached so one caller giving up does not fail the others; the provider timeout still applies.
		callCtx := providers.WithSessionToken(context.WithoutCancel(ctx), c.cache.SessionToken())
		candidates, err := c.inner.Search(callCtx, query, fetch, loc)
		if err != nil {
			return nil, err
		}
		c.cache.Put(callCtx, query, loc, candidates)
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	return truncate(cloneCandidates(v.([]models.Candidate)), limit), nil
}

// Details always reaches the provider.
func (c *CachedProvider) Details(ctx context.Context, id string) (*models.Candidate, error) {
	return c.inner.Details(providers.WithSessionToken(ctx, c.cache.SessionToken()), id)
}

// Nearby passes through when the wrapped provider supports it.
func (c *CachedProvider) Nearby(ctx context.Context, q providers.NearbyQuery) ([]models.Candidate, error) {
	np, ok := c.inner.(providers.NearbyProvider)
	if !ok {
		return nil, providers.ErrProviderUnavailable
	}
	return np.Nearby(ctx, q)
}

// mayHaveMore reports whether a cached list is too short for limit only
// because an earlier fetch stopped at its page size. A list shorter than the
// fetch size is everything the provider had.
func (c *CachedProvider) mayHaveMore(cached []models.Candidate, limit int) bool {
	return len(cached) < limit && len(cached) >= c.fetchSize
}

func truncate(c []models.Candidate, limit int) []models.Candidate {
	if limit >= 0 && len(c) > limit {
		return c[:limit]
	}
	return c
}
