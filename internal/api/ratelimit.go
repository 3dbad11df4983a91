package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP for endpoints that call
// out to text generation.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows n requests per window per IP, with a burst of n.
func NewRateLimiter(n int, window time.Duration) *RateLimiter {
	if n <= 0 {
		n = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(n)),
		burst:   n,
	}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.get(ip).Allow()
}

// RetryAfter returns the whole seconds until ip earns its next token.
func (rl *RateLimiter) RetryAfter(ip string) int {
	r := rl.get(ip).Reserve()
	delay := r.Delay()
	r.Cancel()
	return int(delay.Seconds()) + 1
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now

	// Drop clients idle long enough to have refilled completely.
	if len(rl.clients) > 1024 {
		idle := time.Duration(float64(rl.burst) / float64(rl.limit) * float64(time.Second))
		for k, v := range rl.clients {
			if now.Sub(v.lastSeen) > idle {
				delete(rl.clients, k)
			}
		}
	}
	return c.limiter
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
