// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiter hands out one token bucket per client IP and evicts buckets
// that have been idle longer than the eviction window.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    rate.Limit
	burst   int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const evictAfter = 3 * time.Minute

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	l := &ipLimiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   burst,
	}
	go l.evictLoop()
	return l
}

func (l *ipLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for ip, b := range l.buckets {
			if time.Since(b.lastSeen) > evictAfter {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

func (l *ipLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

var (
	generalLimiter = newIPLimiter(rate.Every(time.Second), 10)
	authLimiter    = newIPLimiter(rate.Every(time.Minute), 5)
	uploadLimiter  = newIPLimiter(rate.Every(time.Minute), 10)
)

// GeneralRateLimit guards the whole API surface.
func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.handler()
}

// AuthRateLimit keeps credential endpoints slow enough to blunt guessing.
func AuthRateLimit() gin.HandlerFunc {
	return authLimiter.handler()
}

// UploadRateLimit bounds image uploads per client.
func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.handler()
}
