// ABOUTME: HTTP middleware: panic recovery and request instrumentation.
// ABOUTME: The status recorder must keep http.Flusher visible or SSE streaming breaks.

package server

import (
	"fmt"
	"net/http"
)

// statusRecorder captures the response status for instrumentation while
// passing Flush through to the underlying writer.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrumentMiddleware counts every request by path, method, and status.
func (s *Server) instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, fmt.Sprintf("%d", rec.status)).Inc()
	})
}

// recoverMiddleware converts handler panics into a 500 response. The panic
// value is only echoed to the client in debug mode; it always hits the log.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panicked",
					"panic", rec,
					"path", r.URL.Path,
					"method", r.Method,
				)
				message := "internal server error"
				if s.cfg.Debug {
					message = fmt.Sprintf("internal server error: %v", rec)
				}
				s.writeError(w, http.StatusInternalServerError, message)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
