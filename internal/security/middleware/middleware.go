package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/yourorg/drukstay/internal/security/auth"
	"github.com/yourorg/drukstay/internal/security/ratelimit"
)

type CallerContextKey struct{}

// SessionMiddleware resolves the session cookie into a caller identity on the
// request context. Requests without a valid cookie pass through anonymously;
// handlers that require authentication check CallerFromContext themselves,
// since the listing route serves both authenticated and public traffic.
func SessionMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.ValidateToken(token)
			if err != nil {
				log.Debug("session token rejected", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CallerContextKey{}, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the authenticated user id, or "" for anonymous
func CallerFromContext(ctx context.Context) string {
	if v := ctx.Value(CallerContextKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// RateLimitMiddleware limits requests per caller: the authenticated user id
// when present, otherwise the client IP.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := CallerFromContext(r.Context())
			if key == "" {
				key = ClientIP(r)
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded",
					slog.String("caller", key),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, `{"message":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the remote address, honoring X-Forwarded-For from proxies
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ValidateJSONContentType ensures POST/PUT/PATCH requests carry JSON bodies.
// Multipart uploads are exempt.
func ValidateJSONContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if strings.Contains(contentType, "multipart/form-data") {
				next.ServeHTTP(w, r)
				return
			}

			if !strings.Contains(contentType, "application/json") {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				http.Error(w, `{"message":"Content-Type must be application/json"}`, http.StatusUnsupportedMediaType)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
