package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
	"github.com/Mindburn-Labs/pact-conformance/pkg/auth"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// recoverMiddleware turns handler panics into a JSON 500. The panic value
// and stack are logged only.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.ErrorContext(r.Context(), "panic recovered",
				"panic", rec, "path", r.URL.Path, "request_id", auth.GetRequestID(r.Context()),
				"stack", string(debug.Stack()))
			api.WriteError(w, http.StatusInternalServerError, pact.CodeInternalError, "An unexpected error occurred. Please try again later.")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", auth.GetRequestID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}
