package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// APIKeyHeader is the authentication header checked on every /api/v1 route
const APIKeyHeader = "X-API-KEY"

// requireAPIKey rejects requests whose API key does not match the configured one
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) != s.apiKey {
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"detail": "Invalid API Key",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogging tags each request with an id and logs its outcome
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     recorder.status,
			"duration":   time.Since(start).String(),
		}).Info("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
