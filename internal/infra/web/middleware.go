// internal/infra/web/middleware.go
package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"seller_escalation_bot/internal/infra/logger"
)

type contextKey string

const requestLogKey contextKey = "request_log"

// RequestLogger tags every request with an ID, stores a request-scoped entry
// in the context and logs the outcome.
func RequestLogger(base *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if r.Header.Get(logger.RequestIDHeader) == "" {
				r.Header.Set(logger.RequestIDHeader, uuid.NewString())
			}
			w.Header().Set(logger.RequestIDHeader, r.Header.Get(logger.RequestIDHeader))

			entry := logger.WithRequest(base, r)
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), requestLogKey, entry)))

			entry = entry.WithFields(logrus.Fields{
				"status":      wrapped.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			switch {
			case wrapped.status >= 500:
				entry.Error("http request")
			case wrapped.status >= 400:
				entry.Warn("http request")
			default:
				entry.Debug("http request")
			}
		})
	}
}

// requestLog returns the entry stored by RequestLogger, or fallback.
func requestLog(r *http.Request, fallback *logrus.Entry) *logrus.Entry {
	if e, ok := r.Context().Value(requestLogKey).(*logrus.Entry); ok {
		return e
	}
	return fallback
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RateLimiter limits requests per client IP. Status links are public, so a
// single client must not be able to hammer the database through them.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		ttl:      visitorTTL,
	}
}

// RunCleanup drops idle visitors every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.prune(now)
		}
	}
}

func (rl *RateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Middleware returns an HTTP middleware that rate limits requests
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
