package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKeyHeader is the header carrying the admin API key
const APIKeyHeader = "X-API-Key"

// RequireAPIKey guards admin routes. The key may be sent as X-API-Key or as a
// Bearer token. An empty key disables the guarded routes entirely.
func RequireAPIKey(key string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeJSONError(w, http.StatusForbidden, "forbidden", "Admin API is disabled")
				return
			}

			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					presented = strings.TrimSpace(token)
				}
			}

			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				logger.Warn("Rejected admin request",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", ClientIP(r)),
					zap.Bool("key_present", presented != ""),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errType + `","message":"` + message + `"}`))
}
