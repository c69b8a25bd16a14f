package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/shared/server/respond"
)

// RateLimiter is a token-bucket limiter keyed by client IP. It throttles the
// OCR-backed digitize endpoints, which are orders of magnitude more expensive
// than the rest of the API.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	rate    float64 // tokens per second
	burst   float64
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter builds a limiter allowing ratePerMinute requests per minute
// with a burst of the same size. A nil now falls back to time.Now.
func NewRateLimiter(ratePerMinute int, now func() time.Time) *RateLimiter {
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		rate:    float64(ratePerMinute) / 60.0,
		burst:   float64(ratePerMinute),
		now:     now,
	}
}

// Allow consumes a token for the given key if one is available.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{tokens: l.burst, last: now}
		l.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens += elapsed * l.rate
		if bucket.tokens > l.burst {
			bucket.tokens = l.burst
		}
		bucket.last = now
	}

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// RateLimit rejects requests once the caller's bucket is drained.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many digitize requests", nil)
			return
		}
		c.Next()
	}
}
