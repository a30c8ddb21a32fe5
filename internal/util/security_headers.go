package util

import (
	"net/http"
	"strings"
)

// apiHeaders are set on every account API response. Nothing served here is
// meant to be framed, cached or rendered as a document.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
}

func servedOverTLS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range apiHeaders {
			h.Set(kv[0], kv[1])
		}
		if servedOverTLS(r) {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
