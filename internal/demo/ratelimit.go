package demo

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const bucketIdle = 10 * time.Minute

// rateLimiter is a per-client token bucket. Idle buckets are dropped on the
// next call after bucketIdle has passed.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64 // tokens per second
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

func newRateLimiter(rate float64, burst int) *rateLimiter {
	return &rateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

// allow reports whether key may make another request now.
func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > bucketIdle {
		for k, b := range rl.buckets {
			if now.Sub(b.lastTime) > bucketIdle {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[key] = b
	}
	b.tokens = min(b.tokens+now.Sub(b.lastTime).Seconds()*rl.rate, float64(rl.burst))
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// rateLimit rejects requests beyond the limiter's rate with a 429 detail.
// The client key is RemoteAddr, which chi's RealIP has already rewritten.
func rateLimit(rl *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientKey(r.RemoteAddr)) {
				writeDetail(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
