// Package middleware provides HTTP middleware for the admin server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/objmap/internal/logging"
)

// Logger logs one structured entry per request, after the handler returns.
//
// Log fields:
//   - method, path: the request line
//   - status: response status code
//   - duration_ms: handler time in milliseconds
//   - ip: client IP (RemoteAddr after TrustedRealIP)
//
// request_id is added by logging.FromContext when chi's RequestID runs
// first.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		logger := logging.FromContext(r.Context())
		level := logger.Info
		if ww.status >= http.StatusInternalServerError {
			level = logger.Warn
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying ResponseWriter to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
