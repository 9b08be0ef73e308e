// Package middleware injects request-scoped metadata into the context so
// handlers and services read it through pkg/requestcontext instead of
// net/http directly.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fedgate/pkg/requestcontext"
)

// RequestMetadata assigns a request ID and records client IP, User-Agent,
// inbound scheme, and request time for the rest of the pipeline.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithClientMetadata(ctx, clientIP(r), r.UserAgent())
		ctx = requestcontext.WithScheme(ctx, requestScheme(r))

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestScheme reports the scheme the gateway was reached on, honoring a
// terminating proxy's X-Forwarded-Proto.
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
