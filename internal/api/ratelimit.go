package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleEviction = 10 * time.Minute
	limiterSweepEvery   = 5 * time.Minute
)

// visitorLimiters tracks one token bucket per client IP. Stale buckets
// are swept on the request path, so the map cannot grow without bound
// and no background goroutine outlives the middleware.
type visitorLimiters struct {
	mu        sync.Mutex
	rps       float64
	burst     int
	seen      map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (v *visitorLimiters) allow(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	if now.Sub(v.lastSweep) > limiterSweepEvery {
		v.lastSweep = now
		for addr, vis := range v.seen {
			if now.Sub(vis.lastSeen) > limiterIdleEviction {
				delete(v.seen, addr)
			}
		}
	}

	vis, ok := v.seen[ip]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(rate.Limit(v.rps), v.burst)}
		v.seen[ip] = vis
	}
	vis.lastSeen = now
	return vis.limiter.Allow()
}

// RateLimiter returns a Gin middleware enforcing per-IP token-bucket rate
// limiting. rps is the steady-state rate; burst the maximum burst size.
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	v := &visitorLimiters{
		rps:       rps,
		burst:     burst,
		seen:      make(map[string]*visitor),
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		if !v.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
