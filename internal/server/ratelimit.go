package server

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/vigil-io/vigil/internal/requestctx"
)

// RateLimiter enforces per-caller and global request rate limits.
// Uses token bucket algorithm via golang.org/x/time/rate.
type RateLimiter struct {
	mu        sync.Mutex
	global    *rate.Limiter
	callers   map[string]*rate.Limiter
	perCaller rate.Limit
	burst     int
}

// NewRateLimiter creates a rate limiter. globalRPM is the total
// requests/minute across all callers; perCallerRPM is per caller.
func NewRateLimiter(globalRPM, perCallerRPM int) *RateLimiter {
	globalRate := rate.Limit(float64(globalRPM) / 60.0)
	callerRate := rate.Limit(float64(perCallerRPM) / 60.0)
	globalBurst := globalRPM
	if globalBurst < 1 {
		globalBurst = 1
	}
	callerBurst := perCallerRPM
	if callerBurst < 1 {
		callerBurst = 1
	}
	return &RateLimiter{
		global:    rate.NewLimiter(globalRate, globalBurst),
		callers:   make(map[string]*rate.Limiter),
		perCaller: callerRate,
		burst:     callerBurst,
	}
}

// Allow checks whether a request from the given caller is allowed.
func (rl *RateLimiter) Allow(callerID string) bool {
	if !rl.global.Allow() {
		return false
	}
	rl.mu.Lock()
	limiter, ok := rl.callers[callerID]
	if !ok {
		limiter = rate.NewLimiter(rl.perCaller, rl.burst)
		rl.callers[callerID] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// CallerMiddleware stores the caller identity in the request context.
// Callers identify via the X-Caller-ID header; otherwise the client IP
// (already resolved by middleware.RealIP) is used.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callerID := strings.TrimSpace(r.Header.Get("X-Caller-ID"))
		if callerID == "" {
			callerID = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(requestctx.SetCallerID(r.Context(), callerID)))
	})
}

// RateLimitMiddleware rejects requests exceeding the limiter's budget with
// 429. A nil limiter disables limiting.
func RateLimitMiddleware(rl *RateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl != nil && !rl.Allow(requestctx.CallerID(r.Context())) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "request rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
