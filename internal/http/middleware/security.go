package middleware

import (
	"fmt"
	"net/http"

	"github.com/seatemp/sea-temperature/internal/config"
)

// SecurityHeaders sets the configured browser security headers on every
// response. Empty values are skipped.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	headers := securityHeaderValues(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range headers {
				h.Set(kv[0], kv[1])
			}
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func securityHeaderValues(cfg *config.SecurityConfig) [][2]string {
	var out [][2]string
	add := func(name, value string) {
		if value != "" {
			out = append(out, [2]string{name, value})
		}
	}

	if cfg.ContentTypeNosniff {
		add("X-Content-Type-Options", "nosniff")
	}
	add("X-Frame-Options", cfg.FrameOptions)
	add("X-XSS-Protection", cfg.XSSProtection)
	add("Content-Security-Policy", cfg.ContentSecurityPolicy)
	add("Referrer-Policy", cfg.ReferrerPolicy)
	add("Permissions-Policy", cfg.PermissionsPolicy)

	if cfg.EnableHSTS {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		add("Strict-Transport-Security", hsts)
	}
	return out
}
