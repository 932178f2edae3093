package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func createTestRateLimiter(cfg *config.RateLimitConfig) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg, zap.NewNop())
}

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           false,
		RequestsPerMinute: 5,
	})
	handlerCalled := 0
	handler := rl.LimitByIP(okHandler(&handlerCalled))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/point", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 100, handlerCalled)
}

func TestRateLimiter_WhitelistedIP(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistIPs:      []string{"127.0.0.1"},
	})
	handlerCalled := 0
	handler := rl.LimitByIP(okHandler(&handlerCalled))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/point", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 50, handlerCalled)
}

func TestRateLimiter_WhitelistedPath(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistPaths:    []string{"/health"},
	})
	handlerCalled := 0
	handler := rl.LimitByIP(okHandler(&handlerCalled))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 50, handlerCalled)
}

func TestRateLimiter_WhitelistedPathPrefix(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistPaths:    []string{"/static/*"},
	})
	handlerCalled := 0
	handler := rl.LimitByIP(okHandler(&handlerCalled))

	paths := []string{"/static/map.js", "/static/style.css", "/static/leaflet/marker.png"}
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodGet, paths[i%len(paths)], nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 30, handlerCalled)
}

func TestRateLimiter_LimitExceeded(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 5,
	})
	handler := rl.LimitByIP(okHandler(nil))

	okCount := 0
	rateLimitedCount := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/point", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		switch w.Code {
		case http.StatusOK:
			okCount++
		case http.StatusTooManyRequests:
			rateLimitedCount++
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "rate_limited")
		}
	}

	assert.Greater(t, okCount, 0, "Some requests should succeed")
	assert.LessOrEqual(t, okCount, 5)
	assert.Equal(t, 20, okCount+rateLimitedCount)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 3,
	})
	handler := rl.LimitByIP(okHandler(nil))

	ips := []string{"192.168.1.1:12345", "192.168.1.2:12345", "192.168.1.3:12345"}
	for _, ip := range ips {
		okCount := 0
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/point", nil)
			req.RemoteAddr = ip
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code == http.StatusOK {
				okCount++
			}
		}
		assert.Equal(t, 3, okCount, "IP %s should get its own budget", ip)
	}
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 3,
		WhitelistIPs:      []string{"10.0.0.1"},
	})
	handlerCalled := 0
	handler := rl.LimitByIP(okHandler(&handlerCalled))

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/point", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 20, handlerCalled)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.1:12345", nil, "192.168.1.1"},
		{"remote addr without port", "192.168.1.1", nil, "192.168.1.1"},
		{"x-forwarded-for first hop", "10.0.0.9:1", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "203.0.113.7"},
		{"x-real-ip", "10.0.0.9:1", map[string]string{"X-Real-IP": "203.0.113.8"}, "203.0.113.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, middleware.ClientIP(req))
		})
	}
}
