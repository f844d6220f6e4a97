package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is an in-process token bucket per client address.
// Use RedisRateLimiter when several replicas must share one budget.
type RateLimiter struct {
	mu       sync.Mutex
	every    rate.Limit
	burst    int
	visitors map[string]*rate.Limiter
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		visitors: map[string]*rate.Limiter{},
	}
}

func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.limiter(clientKey(r)).Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.visitors[key]
	if !ok {
		l = rate.NewLimiter(rl.every, rl.burst)
		rl.visitors[key] = l
	}
	return l
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
