package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/seatemp/sea-temperature/internal/logger"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the request id set by Logging
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying connection
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging assigns a request id (reusing an incoming one) and logs each request
// with its status, size and duration
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			reqLog := logger.WithRequest(log, r.Method, r.URL.Path, requestID)
			fields := []zap.Field{
				zap.String("query", r.URL.RawQuery),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status_code", rw.statusCode),
				zap.Int64("response_size", rw.written),
				zap.Duration("duration", duration),
			}

			msg := fmt.Sprintf("%s %-24s -> %3d (%s)",
				r.Method, r.URL.Path, rw.statusCode, duration.Truncate(time.Microsecond))
			if rw.statusCode >= http.StatusInternalServerError {
				reqLog.Warn(msg, fields...)
				return
			}
			reqLog.Info(msg, fields...)
		})
	}
}
