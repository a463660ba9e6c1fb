package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func rateLimitedRouter(mw gin.HandlerFunc) *gin.Engine {
	eng := gin.New()
	eng.Use(mw)
	eng.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return eng
}

func hitFrom(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	// Refill is effectively zero, so only the burst is available.
	r := rateLimitedRouter(RateLimit(rate.Limit(0.001), 3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hitFrom(r, "10.0.1.1").Code, "request %d within burst", i+1)
	}

	w := hitFrom(r, "10.0.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "request rate limit exceeded")
}

func TestRateLimit_BucketsArePerIP(t *testing.T) {
	r := rateLimitedRouter(RateLimit(rate.Limit(0.001), 1))

	assert.Equal(t, http.StatusOK, hitFrom(r, "10.1.1.1").Code)
	assert.Equal(t, http.StatusOK, hitFrom(r, "10.1.1.2").Code, "a second caller has its own bucket")
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(r, "10.1.1.1").Code)
}

func TestRateLimitWithSweep_IdleBucketEvicted(t *testing.T) {
	r := rateLimitedRouter(RateLimitWithSweep(rate.Limit(0.001), 1, 10*time.Millisecond, time.Millisecond))

	assert.Equal(t, http.StatusOK, hitFrom(r, "10.2.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(r, "10.2.0.1").Code)

	// After the sweep the caller starts over with a fresh bucket.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hitFrom(r, "10.2.0.1").Code)
}
