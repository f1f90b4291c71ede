package middleware

import (
	"fmt"
	"net/http"
)

// DefaultMaxRequestSize is the default maximum request body size (10MB)
const DefaultMaxRequestSize = 10 * 1024 * 1024

// MaxRequestSizeHeader advertises the enforced limit to clients.
const MaxRequestSizeHeader = "X-Max-Request-Size"

// RequestSizeLimiter caps request body sizes.
type RequestSizeLimiter struct {
	maxSize int64
}

// NewRequestSizeLimiter creates a limiter for maxSize bytes. A zero or
// negative size falls back to DefaultMaxRequestSize.
func NewRequestSizeLimiter(maxSize int64) *RequestSizeLimiter {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}
	return &RequestSizeLimiter{maxSize: maxSize}
}

// Middleware enforces the limit via http.MaxBytesReader so oversized
// bodies fail on read rather than buffering.
func (rsl *RequestSizeLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, rsl.maxSize)
		w.Header().Set(MaxRequestSizeHeader, fmt.Sprintf("%d", rsl.maxSize))
		next.ServeHTTP(w, r)
	})
}
