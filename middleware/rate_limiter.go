package middleware

import (
	"net/http"
	"sync"
	"time"

	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiter is how long an unused per-IP limiter is kept.
const idleLimiter = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	every time.Duration
	burst int
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
}

// NewRateLimiter allows n requests per period with a burst of burst.
func NewRateLimiter(n int, period time.Duration, burst int) *RateLimiter {
	if n <= 0 {
		n = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		every:    period / time.Duration(n),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// Allow reports whether ip may make another request now.
func (s *RateLimiter) Allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > idleLimiter {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > idleLimiter {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimitMiddleware limits requests per IP address.
func RateLimitMiddleware(s *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ClientIP(c)
		if !s.Allow(ip) {
			utils.LoggerFrom(c).Warn("Rate limit exceeded", zap.String("ip", ip))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{Message: "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
