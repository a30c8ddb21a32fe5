package util

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type requestIDContextKey struct{}

const requestIDHeader = "X-Request-Id"

// maxRequestIDLength bounds ids accepted from clients.
const maxRequestIDLength = 128

// acceptableRequestID rejects ids that would break a log line: empty,
// oversized, or carrying anything outside printable ASCII.
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// WithRequestID propagates an incoming request id or generates one, sets it
// on the response and stores both the id and a logger carrying it in the context.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if !acceptableRequestID(requestID) {
			requestID = NewID()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDContextKey{}, requestID)
		ctx = ContextWithLogger(ctx, slog.Default().With("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
