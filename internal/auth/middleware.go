package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/acctlock/internal/models"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// SessionChecker reports whether a login session is still active
type SessionChecker interface {
	IsActive(ctx context.Context, userID, sessionID string) (bool, error)
}

// CapabilityChecker answers whether an actor holds a capability
type CapabilityChecker interface {
	HasCapability(ctx context.Context, actorID, capability string) (bool, error)
}

// AuthMiddleware validates the bearer access token and requires its session to
// be active, then injects the claims into the request context. Session
// lookups that fail deny access.
func AuthMiddleware(tm *TokenManager, sessions SessionChecker, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(r.Context(), tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			// refresh tokens are only accepted by /auth/refresh
			if claims.Type != models.TokenTypeAccess {
				pkghttp.WriteUnauthorized(w, "refresh tokens cannot be used for API access")
				return
			}

			active, err := sessions.IsActive(r.Context(), claims.UserID, claims.SessionID)
			if err != nil {
				logger.Error("session lookup failed", slog.String("user_id", claims.UserID), slog.Any("error", err))
				pkghttp.WriteServiceUnavailable(w, "unable to verify session")
				return
			}
			if !active {
				pkghttp.WriteUnauthorized(w, "session has ended")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability rejects requests whose user lacks capability. Must run
// after AuthMiddleware.
func RequireCapability(caps CapabilityChecker, capability string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			ok, err := caps.HasCapability(r.Context(), claims.UserID, capability)
			if err != nil {
				logger.Error("capability check failed", slog.String("user_id", claims.UserID), slog.Any("error", err))
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}
			if !ok {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
