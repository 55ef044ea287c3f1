package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kotche/ledger/infrastructure/metrics"
	"github.com/kotche/ledger/internal/identity"
	"github.com/sirupsen/logrus"
)

type logKey struct{}

// responseWriter captures the status code for logs and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrument assigns a request id, applies the request timeout and records
// one log line plus metrics per request.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		entry := s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		ctx = context.WithValue(ctx, logKey{}, entry)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		elapsed := time.Since(start)
		metrics.ObserveRequest(r.Method, route, rw.statusCode, elapsed)
		entry.WithFields(logrus.Fields{
			"status":      rw.statusCode,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("request completed")
	})
}

// authenticate resolves the bearer credential and attaches the trusted user
// id to the request context.
func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := identity.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, message{Message: "Not authorized, no token"})
			return
		}

		userID, err := s.resolver.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthenticated) {
				writeJSON(w, http.StatusUnauthorized, message{Message: "Not authorized, token failed"})
				return
			}
			requestLog(r).WithError(err).Error("identity lookup failed")
			writeJSON(w, http.StatusInternalServerError, message{Message: "Server error"})
			return
		}

		next(w, r.WithContext(identity.WithUser(r.Context(), userID)))
	}
}

func requestLog(r *http.Request) *logrus.Entry {
	if entry, ok := r.Context().Value(logKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func generateRequestID() string {
	return "req_" + uuid.NewString()
}
