package auth

import (
	"net/http"

	"go.uber.org/zap"
)

// RoleMiddleware attaches the caller's decoded role to the request context.
// Decoding failure is not an error: the role degrades to DefaultRole.
func RoleMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromAuthHeader(r.Header.Get("Authorization"))
			if logger != nil && role == DefaultRole && r.Header.Get("Authorization") != "" {
				logger.Debug("token did not yield a role, using default",
					zap.String("path", r.URL.Path))
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}
