package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/acctlock/internal/auth"
	pkghttp "github.com/BradenHooton/acctlock/pkg/http"
	"github.com/go-chi/httprate"
)

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "rate limit exceeded, try again later")
}

// RateLimitByIP limits requests per client IP per minute
func RateLimitByIP(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(writeRateLimited),
	)
}

// RateLimitByUser limits requests per authenticated user per minute, falling
// back to the client IP when no user is attached. Must run after
// AuthMiddleware.
func RateLimitByUser(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if claims := auth.GetUserFromContext(r); claims != nil {
				return "user:" + claims.UserID, nil
			}
			return httprate.KeyByRealIP(r)
		}),
		httprate.WithLimitHandler(writeRateLimited),
	)
}
