package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ita004/analytics-engine/pkg/contextkeys"
)

// requestIDHeader echoes the request id back to the client
const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a UUID, honoring one supplied by an
// upstream proxy
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(contextkeys.WithRequestID(r.Context(), requestID)))
	})
}
