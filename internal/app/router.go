package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/acctlock/internal/config"
	"github.com/BradenHooton/acctlock/internal/handlers"
	middlewareCustom "github.com/BradenHooton/acctlock/internal/middleware"
	"github.com/BradenHooton/acctlock/internal/routes"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the HTTP handler of the API server. metricsHandler serves
// /metrics.
func (a *App) Router(cfg *config.Config, metricsHandler http.Handler, logger *slog.Logger) http.Handler {
	// Initialize handlers
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(a.AuthService, logger),
		Users:       handlers.NewUserHandler(a.UserService, logger),
		Locks:       handlers.NewLockHandler(a.Locks, logger),
		Activity:    handlers.NewActivityHandler(a.Activity, logger),
		Settings:    handlers.NewSettingsHandler(a.Settings, logger),
		Maintenance: handlers.NewMaintenanceHandler(a.Maintenance, logger),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"postgres": a.DB,
			"redis": handlers.HealthCheckFunc(func(ctx context.Context) error {
				return a.Redis.Ping(ctx).Err()
			}),
		}, logger),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(cfg.Server.Env))
	router.Use(middlewareCustom.CORS(cfg.Server.AllowedOrigins))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, h, a.Tokens, a.Sessions, a.Capabilities, cfg.Auth.LoginRequestsPerMinute, metricsHandler, logger)
	return router
}
