package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepTick = 5 * time.Minute
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests/sec per key with the given burst. Idle keys
// are swept until ctx is done.
func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
	go rl.sweep(ctx)
	return rl
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-limiterIdleTTL)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// RateLimit rejects requests over the per-IP limit with 429. It expects chi's
// RealIP middleware to have normalized RemoteAddr.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	retryAfter := "1"
	if limiter.limit > 0 && limiter.limit < 1 {
		retryAfter = strconv.Itoa(int(1/float64(limiter.limit)) + 1)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				writeDetail(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr, the key RateLimit buckets by.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
