package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"spotfinder/models"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheTTL        = time.Hour
	DefaultSessionTokenTTL = 5 * time.Minute
	defaultCacheEntries    = 1000
	noLocationKey          = "no-loc"
)

// ResultCache stores remote search responses and hands out billing session tokens.
type ResultCache interface {
	Get(ctx context.Context, query string, loc *models.LatLng) ([]models.Candidate, bool)
	Put(ctx context.Context, query string, loc *models.LatLng, candidates []models.Candidate)
	SessionToken() string
}

// CacheKey builds the lookup key. Location is rounded to four decimals
// (about 11 m) and an absent location has its own key.
func CacheKey(query string, loc *models.LatLng) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if loc == nil {
		return q + ":" + noLocationKey
	}
	return fmt.Sprintf("%s:%.4f,%.4f", q, loc.Latitude, loc.Longitude)
}

// SessionTokens rotates an opaque token once it is older than ttl.
type SessionTokens struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	token    string
	issuedAt time.Time
}

// NewSessionTokens creates a token source; now may be nil.
func NewSessionTokens(ttl time.Duration, now func() time.Time) *SessionTokens {
	if ttl <= 0 {
		ttl = DefaultSessionTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionTokens{ttl: ttl, now: now}
}

// Token returns the current token, minting a new one when the old one expired.
func (s *SessionTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token == "" || now.Sub(s.issuedAt) >= s.ttl {
		s.token = uuid.NewString()
		s.issuedAt = now
	}
	return s.token
}

type cacheEntry struct {
	candidates []models.Candidate
	createdAt  time.Time
}

// MemoryCache is an in-process LRU result cache with a fixed TTL.
type MemoryCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
	tokens  *SessionTokens
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) { c.now = now }
}

// WithSessionTokens shares a token source between caches.
func WithSessionTokens(t *SessionTokens) MemoryCacheOption {
	return func(c *MemoryCache) { c.tokens = t }
}

// NewMemoryCache creates a cache holding at most maxEntries responses.
func NewMemoryCache(ttl time.Duration, maxEntries int, opts ...MemoryCacheOption) (*MemoryCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	entries, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	c := &MemoryCache{entries: entries, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = NewSessionTokens(DefaultSessionTokenTTL, c.now)
	}
	return c, nil
}

func (c *MemoryCache) Get(_ context.Context, query string, loc *models.LatLng) ([]models.Candidate, bool) {
	key := CacheKey(query, loc)
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return cloneCandidates(e.candidates), true
}

func (c *MemoryCache) Put(_ context.Context, query string, loc *models.LatLng, candidates []models.Candidate) {
	c.entries.Add(CacheKey(query, loc), cacheEntry{candidates: cloneCandidates(candidates), createdAt: c.now()})
}

func (c *MemoryCache) SessionToken() string { return c.tokens.Token() }

// Len returns the number of stored responses, expired ones included.
func (c *MemoryCache) Len() int { return c.entries.Len() }

func cloneCandidates(in []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, len(in))
	copy(out, in)
	return out
}
