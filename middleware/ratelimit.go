package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"socialnet/apperr"
)

var errTooManyRequests = apperr.ResourceExhausted("request rate limit exceeded")

// clientLimiter is one caller's token bucket plus the last time it was used,
// so idle buckets can be swept.
type clientLimiter struct {
	bucket *rate.Limiter
	seen   time.Time
}

// RateLimit applies a per-client-IP token bucket of r requests per second
// with burst b, sweeping idle buckets on the default cadence.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	return RateLimitWithSweep(r, b, 5*time.Minute, 10*time.Minute)
}

// RateLimitWithSweep is RateLimit with an explicit sweep: every `every`,
// buckets idle for longer than `idle` are dropped.
func RateLimitWithSweep(r rate.Limit, b int, every, idle time.Duration) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
	)

	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for range t.C {
			cutoff := time.Now().Add(-idle)
			mu.Lock()
			for ip, cl := range clients {
				if cl.seen.Before(cutoff) {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	take := func(ip string) bool {
		mu.Lock()
		cl, ok := clients[ip]
		if !ok {
			cl = &clientLimiter{bucket: rate.NewLimiter(r, b)}
			clients[ip] = cl
		}
		cl.seen = time.Now()
		mu.Unlock()
		return cl.bucket.Allow()
	}

	return func(c *gin.Context) {
		if !take(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errTooManyRequests.Error()})
			return
		}
		c.Next()
	}
}
