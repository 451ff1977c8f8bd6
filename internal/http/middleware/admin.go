package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the pre-shared operator key.
const AdminKeyHeader = "x-admin-key"

type contextKey string

const adminKey contextKey = "admin"

func IsAdmin(ctx context.Context) bool {
	val, _ := ctx.Value(adminKey).(bool)
	return val
}

// AdminKey admits requests whose x-admin-key matches key byte for byte, or
// matches keyHash when a bcrypt hash is configured instead. With neither
// configured every request is refused.
func AdminKey(key, keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(AdminKeyHeader)
			if !adminKeyMatches(provided, key, keyHash) {
				status := "invalid_key"
				if provided == "" {
					status = "missing_key"
				}
				logger.Warn("admin_auth", "status", status, "path", r.URL.Path, "ip", r.RemoteAddr)
				writeUnauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), adminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminKeyMatches(provided, key, keyHash string) bool {
	if provided == "" {
		return false
	}
	if keyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(keyHash)), []byte(provided)) == nil
	}
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "unauthorized"})
}
