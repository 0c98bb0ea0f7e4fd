package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"spotfinder/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisCacheKeyPrefix = "places:search:"

type redisEntry struct {
	Candidates []models.Candidate `json:"candidates"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// RedisCache keeps search responses in Redis so they survive restarts and are
// shared between instances. Redis expiry enforces the TTL.
type RedisCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	tokens    *SessionTokens
	logger    *zap.Logger
}

// NewRedisCache creates a cache whose keys are scoped by namespace (usually the provider name).
func NewRedisCache(client *redis.Client, namespace string, ttl time.Duration, tokens *SessionTokens, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if tokens == nil {
		tokens = NewSessionTokens(DefaultSessionTokenTTL, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, namespace: namespace, ttl: ttl, tokens: tokens, logger: logger}
}

func (c *RedisCache) key(query string, loc *models.LatLng) string {
	return redisCacheKeyPrefix + c.namespace + ":" + CacheKey(query, loc)
}

// Get treats every Redis failure as a miss.
func (c *RedisCache) Get(ctx context.Context, query string, loc *models.LatLng) ([]models.Candidate, bool) {
	val, err := c.client.Get(ctx, c.key(query, loc)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("result cache read failed", zap.String("namespace", c.namespace), zap.Error(err))
		return nil, false
	}
	var e redisEntry
	if err := json.Unmarshal(val, &e); err != nil {
		c.logger.Warn("dropping corrupt cache entry", zap.String("namespace", c.namespace), zap.Error(err))
		return nil, false
	}
	if time.Since(e.CreatedAt) >= c.ttl {
		return nil, false
	}
	return e.Candidates, true
}

func (c *RedisCache) Put(ctx context.Context, query string, loc *models.LatLng, candidates []models.Candidate) {
	data, err := json.Marshal(redisEntry{Candidates: candidates, CreatedAt: time.Now()})
	if err != nil {
		c.logger.Warn("failed to encode cache entry", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(query, loc), data, c.ttl).Err(); err != nil {
		c.logger.Warn("result cache write failed", zap.String("namespace", c.namespace), zap.Error(err))
	}
}

func (c *RedisCache) SessionToken() string { return c.tokens.Token() }
