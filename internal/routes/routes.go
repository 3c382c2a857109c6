package routes

import (
	"log/slog"
	"net/http"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/handlers"
	"github.com/BradenHooton/acctlock/internal/middleware"
	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/go-chi/chi/v5"
)

// writeRequestsPerMinute caps state-changing admin requests per user
const writeRequestsPerMinute = 60

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Locks       *handlers.LockHandler
	Activity    *handlers.ActivityHandler
	Settings    *handlers.SettingsHandler
	Maintenance *handlers.MaintenanceHandler
	Health      *handlers.HealthHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	sessions auth.SessionChecker,
	caps auth.CapabilityChecker,
	loginRequestsPerMinute int,
	metricsHandler http.Handler,
	logger *slog.Logger,
) {
	router.Get("/health", h.Health.Health)
	router.Handle("/metrics", metricsHandler)

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(loginRequestsPerMinute)).Post("/auth/login", h.Auth.Login)
	router.With(middleware.RateLimitByIP(loginRequestsPerMinute)).Post("/auth/refresh", h.Auth.Refresh)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager, sessions, logger))

		r.Post("/auth/logout", h.Auth.Logout)

		// Account lock management
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireCapability(caps, models.CapabilityEditUsers, logger))
			r.Get("/users", h.Users.ListUsers)
			r.Get("/users/counts", h.Users.StatusCounts)
			r.Get("/users/{id}/lock", h.Locks.GetLock)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(writeRequestsPerMinute))
				r.Put("/users/{id}/lock", h.Locks.SetLock)
				r.Post("/users/bulk-lock", h.Locks.BulkLock)
			})
		})

		// Site settings and activity
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireCapability(caps, models.CapabilityManageOptions, logger))
			r.Get("/activity", h.Activity.List)
			r.Get("/settings/lock-message", h.Settings.GetLockMessage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(writeRequestsPerMinute))
				r.Put("/settings/lock-message", h.Settings.UpdateLockMessage)
				r.Delete("/data", h.Maintenance.PurgeData)
			})
		})
	})
}
