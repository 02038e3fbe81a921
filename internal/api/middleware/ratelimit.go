// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting parameters.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests per window.
	RequestLimit int

	// WindowSize is the sliding window duration.
	WindowSize time.Duration

	// KeyFunc extracts the limit key. Nil means per client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit limits requests per key using httprate's sliding window
// counter. Song processing is expensive, so the default limits are low.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(cfg.WindowSize.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
		}),
	)
}
