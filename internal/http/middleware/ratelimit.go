package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"frankiemoji/backend/internal/rate"
)

// RateLimit limits requests per client address. Limiter failures let the
// request through so a cache outage never blocks checkout.
func RateLimit(limiter rate.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r.RemoteAddr)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate_limit", "status", "limiter_error", "ip", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Warn("rate_limit", "status", "limited", "ip", key, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
