package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// Defaults used when the configured limits are not positive.
const (
	DefaultLimitPerMinute = 30
	DefaultBurst          = 10

	// pruneThreshold is the bucket count above which idle buckets are dropped.
	pruneThreshold = 4096
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket.
type Limiter struct {
	mu      sync.Mutex
	rate    float64 // tokens per second
	burst   float64
	buckets map[string]bucket
}

// NewLimiter creates a limiter that refills limitPerMinute tokens per minute
// up to burst.
func NewLimiter(limitPerMinute, burst int) *Limiter {
	if limitPerMinute <= 0 {
		limitPerMinute = DefaultLimitPerMinute
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Limiter{
		rate:    float64(limitPerMinute) / 60.0,
		burst:   float64(burst),
		buckets: make(map[string]bucket),
	}
}

// Allow takes one token from key's bucket at now.
func (l *Limiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = bucket{tokens: l.burst, last: now}
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.rate
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.last = now
	}

	if b.tokens < 1 {
		l.buckets[key] = b
		return false
	}

	b.tokens--
	l.buckets[key] = b

	if len(l.buckets) > pruneThreshold {
		l.pruneLocked(now)
	}
	return true
}

// pruneLocked drops buckets that would have refilled completely by now.
func (l *Limiter) pruneLocked(now time.Time) {
	for k, b := range l.buckets {
		if b.tokens+now.Sub(b.last).Seconds()*l.rate >= l.burst {
			delete(l.buckets, k)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimitMiddleware rejects sessions from remote addresses that exceed the
// limiter.
func RateLimitMiddleware(l *Limiter, logger *slog.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			ip := remoteIP(s.RemoteAddr())
			if !l.Allow(ip, time.Now()) {
				logger.Warn("rate limit exceeded", "remote_ip", ip)
				_, _ = s.Write([]byte("rate limit exceeded\n"))
				_ = s.Exit(1)
				return
			}
			next(s)
		}
	}
}
