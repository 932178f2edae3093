package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/seatemp/sea-temperature/internal/config"
	"go.uber.org/zap"
)

// RateLimiter limits requests per client IP with go-chi/httprate
type RateLimiter struct {
	cfg            *config.RateLimitConfig
	logger         *zap.Logger
	limit          func(http.Handler) http.Handler
	whitelistIPs   map[string]bool
	whitelistPaths []string
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:          cfg,
		logger:       logger,
		whitelistIPs: make(map[string]bool, len(cfg.WhitelistIPs)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.whitelistIPs[ip] = true
	}
	rl.whitelistPaths = append(rl.whitelistPaths, cfg.WhitelistPaths...)

	rl.limit = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return ClientIP(r), nil
		}),
		httprate.WithLimitHandler(rl.rateLimitExceededHandler),
	)

	if cfg.Enabled {
		logger.Info("Rate limiter initialized",
			zap.Int("requests_per_minute", cfg.RequestsPerMinute),
			zap.Strings("whitelist_ips", cfg.WhitelistIPs),
			zap.Strings("whitelist_paths", cfg.WhitelistPaths),
		)
	}
	return rl
}

// LimitByIP returns the IP-keyed rate limiting middleware
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	limited := rl.limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.isPathWhitelisted(r.URL.Path) || rl.whitelistIPs[ClientIP(r)] {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP, preferring proxy headers
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// isPathWhitelisted matches exact paths and "/prefix/*" patterns
func (rl *RateLimiter) isPathWhitelisted(path string) bool {
	for _, wp := range rl.whitelistPaths {
		if wp == path {
			return true
		}
		if prefix, ok := strings.CutSuffix(wp, "/*"); ok && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	rl.logger.Warn("Rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("client_ip", ClientIP(r)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate_limited","message":"Too many requests. Please try again later."}`))
}
