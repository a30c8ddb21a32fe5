package util

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseMeter captures what the handler wrote so the access line can carry it.
type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (m *responseMeter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(p)
	m.bytes += int64(n)
	return n, err
}

func (m *responseMeter) code() int {
	if m.status == 0 {
		return http.StatusOK
	}
	return m.status
}

// accessLevel maps a response status onto a log level: server faults are
// errors, rejected client requests are warnings.
func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// WithRequestLog writes one "http_request" line per request through the
// request-scoped logger.
func WithRequestLog(service string, next http.Handler) http.Handler {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "kitapsever"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		meter := &responseMeter{ResponseWriter: w}
		next.ServeHTTP(meter, r)

		status := meter.code()
		LoggerFromContext(r.Context()).Log(r.Context(), accessLevel(status), "http_request",
			"service", service,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", meter.bytes,
			"duration_ms", time.Since(began).Milliseconds(),
		)
	})
}
