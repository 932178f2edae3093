package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/http/middleware"
	"github.com/stretchr/testify/assert"
)

func serveWithSecurity(cfg *config.SecurityConfig) *httptest.ResponseRecorder {
	handler := middleware.SecurityHeaders(cfg)(okHandler(nil))
	req := httptest.NewRequest(http.MethodGet, "/map", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_DefaultConfig(t *testing.T) {
	w := serveWithSecurity(&config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		XSSProtection:         "1; mode=block",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' https://unpkg.com",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(self), microphone=(), camera=()",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "default-src 'self'; script-src 'self' https://unpkg.com", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(self), microphone=(), camera=()", w.Header().Get("Permissions-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS should not be set when disabled")
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SecurityConfig
		want string
	}{
		{"max-age only", config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 31536000}, "max-age=31536000"},
		{"with subdomains", config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 31536000, HSTSIncludeSubdomains: true}, "max-age=31536000; includeSubDomains"},
		{"with preload", config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 63072000, HSTSIncludeSubdomains: true, HSTSPreload: true}, "max-age=63072000; includeSubDomains; preload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			w := serveWithSecurity(&cfg)
			assert.Equal(t, tt.want, w.Header().Get("Strict-Transport-Security"))
		})
	}
}

func TestSecurityHeaders_EmptyValuesSkipped(t *testing.T) {
	w := serveWithSecurity(&config.SecurityConfig{})

	for _, name := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"X-XSS-Protection",
		"Content-Security-Policy",
		"Referrer-Policy",
		"Permissions-Policy",
	} {
		_, present := w.Header()[name]
		assert.False(t, present, "%s should not be set", name)
	}
}
