// Package middleware contains HTTP middleware functions.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture the status code and
// bytes written. http.ResponseWriter doesn't expose the status code after
// WriteHeader is called, so we track it ourselves.
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

// Logger returns an HTTP middleware that logs each completed request using
// slog. Each log line includes the request ID assigned by chi's RequestID
// middleware (empty if that middleware isn't mounted), so a log line can be
// correlated with the X-Request-ID header the client received.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Echo the request ID so clients can quote it when reporting
			// a failure.
			reqID := chimiddleware.GetReqID(r.Context())
			if reqID != "" {
				w.Header().Set("X-Request-Id", reqID)
			}

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // default if WriteHeader is never called
			}

			next.ServeHTTP(wrapped, r)

			logger.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}
