package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/seatemp/sea-temperature/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_GeneratesRequestID(t *testing.T) {
	var seen string
	handler := middleware.Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/point", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
}

func TestLogging_ReusesIncomingRequestID(t *testing.T) {
	var seen string
	handler := middleware.Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/point", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusBadGateway} {
		status := status
		handler := middleware.Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("{}"))
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/point?lat=1&lon=2", nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.EqualValues(t, 502, entries[2].ContextMap()["status_code"])
	assert.Equal(t, "lat=1&lon=2", entries[0].ContextMap()["query"])
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, middleware.RequestIDFromContext(context.Background()))
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := middleware.Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestTimeout_Disabled(t *testing.T) {
	var ok bool
	handler := middleware.Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, ok)
}

func TestLogging_ResponseControllerReachesConnection(t *testing.T) {
	var deadlineErr error
	handler := middleware.Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadlineErr = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(time.Minute))
		w.WriteHeader(http.StatusNoContent)
	}))

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NoError(t, deadlineErr)
}
