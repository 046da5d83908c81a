package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"citylog/internal/common"
)

// Counter counts hits per key within a fixed window. Backed by redis in
// production; tests swap in an in-memory fake.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit rejects clients that exceed max requests per window, keyed by
// client IP. It is the only admission-control mechanism in the service.
func RateLimit(counter Counter, max int64, window time.Duration, rp *common.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, err := counter.Incr(r.Context(), "ratelimit:"+clientIP(r), window)
			if err != nil {
				// Admission control must not take the API down with it.
				log.Printf("rate limiter unavailable: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if count > max {
				rp.JSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"success": false,
					"message": "Too many requests from your IP, please try again in an hour.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr; it may or may not carry
	// a port at this point.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
