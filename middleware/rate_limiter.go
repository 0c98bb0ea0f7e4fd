package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds how many per-IP limiters are kept. The least
// recently seen client is evicted first and starts with a full bucket if it returns.
const maxTrackedClients = 10000

// rateLimiterStore holds the limiters of recently seen client IPs.
type rateLimiterStore struct {
	limiters  *lru.Cache[string, *rate.Limiter]
	mu        sync.Mutex
	perMinute int
}

func newRateLimiterStore(perMinute, maxClients int) *rateLimiterStore {
	if perMinute <= 0 {
		perMinute = 100
	}
	if maxClients <= 0 {
		maxClients = maxTrackedClients
	}
	// Only fails on a non-positive size.
	limiters, _ := lru.New[string, *rate.Limiter](maxClients)
	return &rateLimiterStore{limiters: limiters, perMinute: perMinute}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters.Get(ip)
	if !exists {
		// perMinute requests per minute, all of them available as an initial burst.
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)
		s.limiters.Add(ip, limiter)
	}
	return limiter
}

// RateLimitMiddleware limits requests per IP address to perMinute.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	store := newRateLimiterStore(perMinute, maxTrackedClients)
	return func(c *gin.Context) {
		ip := clientIP(c)
		if !store.getLimiter(ip).Allow() {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
