package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tally/internal/log"
)

type contextKey string

// RequestIDKey is the context key for the request ID.
const RequestIDKey contextKey = "request_id"

// GetRequestID extracts the request ID from ctx.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// trace assigns a request ID, puts a request-scoped logger in the context and
// logs completion. An incoming X-Request-ID is reused.
func (s *Server) trace(next http.Handler) http.Handler {
	withLogger := log.Middleware(s.logger)(log.RequestIDMiddleware(func(r *http.Request) string {
		return GetRequestID(r.Context())
	})(next))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		withLogger.ServeHTTP(rw, r)

		s.access.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), extractClientIP(r))
	})
}

// limitWrites rejects POST requests from clients over the per-minute budget.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			clientIP := extractClientIP(r)
			if !s.limiter.allow(clientIP) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{
					Kind:    "RATE_LIMITED",
					Code:    "RATE_LIMITED",
					Message: "Rate limit exceeded. Please try again later.",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
