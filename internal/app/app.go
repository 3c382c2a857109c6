package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/config"
	"github.com/BradenHooton/acctlock/internal/database"
	"github.com/BradenHooton/acctlock/internal/metrics"
	"github.com/BradenHooton/acctlock/internal/repositories"
	"github.com/BradenHooton/acctlock/internal/services"
	"github.com/BradenHooton/acctlock/internal/sessions"
	pkglogger "github.com/BradenHooton/acctlock/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Failed logins are padded to at least this long, plus up to loginJitter.
const (
	loginMinDuration = 300 * time.Millisecond
	loginJitter      = 100 * time.Millisecond
)

// App holds the wired service graph shared by the API server and the CLI
type App struct {
	DB    *database.DB
	Redis *redis.Client

	Users    *repositories.UserRepository
	Meta     *repositories.MetaRepository
	Options  *repositories.OptionRepository
	Sessions *sessions.RedisStore

	Metrics      *metrics.LockMetrics
	Tokens       *auth.TokenManager
	Capabilities *services.RoleCapabilityChecker

	Activity    *services.ActivityLog
	Settings    *services.SettingsService
	Locks       *services.LockService
	Maintenance *services.MaintenanceService
	UserService *services.UserService
	AuthService *services.AuthService
}

// New connects to Postgres and Redis, applies migrations and wires every
// service. Metrics register with reg.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*App, error) {
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	rdb, err := sessions.NewRedisClient(ctx, &cfg.Redis, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClients(db, rdb, cfg, reg, logger), nil
}

// NewWithClients wires the service graph over already connected clients
func NewWithClients(db *database.DB, rdb *redis.Client, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) *App {
	a := &App{DB: db, Redis: rdb}
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize repositories
	a.Users = repositories.NewUserRepository(a.DB)
	a.Meta = repositories.NewMetaRepository(a.DB)
	a.Options = repositories.NewOptionRepository(a.DB)
	a.Sessions = sessions.NewRedisStore(a.Redis, logger)

	a.Metrics = metrics.NewLockMetrics(reg)

	// Enable composite signing with per-user TokenKey
	a.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)
	a.Tokens.SetUserRepo(a.Users)

	a.Capabilities = services.NewRoleCapabilityChecker(a.Users)

	// Initialize services
	a.Activity = services.NewActivityLog(a.Meta, a.Users, cfg.Lock.ActivityTimezone, cfg.Lock.ActivityPageSize, logger)
	a.Settings = services.NewSettingsService(a.Options, a.Capabilities, cfg.Lock.DefaultMessage, auditLogger, logger)
	a.Locks = services.NewLockService(
		a.Meta,
		a.Activity,
		a.Users,
		a.Sessions,
		a.Capabilities,
		a.Settings,
		a.Metrics,
		auditLogger,
		logger,
	)
	a.Maintenance = services.NewMaintenanceService(a.Meta, a.Options, a.Capabilities, auditLogger, logger)
	a.UserService = services.NewUserService(a.Users, logger)
	a.AuthService = services.NewAuthService(
		a.Users,
		a.Locks,
		a.Sessions,
		a.Tokens,
		auth.NewFailurePacer(loginMinDuration, loginJitter),
		a.Metrics,
		logger,
		auditLogger,
	)
	return a
}

// Close releases the database pool and the redis client
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		slog.Default().Warn("failed to close redis client", slog.Any("error", err))
	}
	a.DB.Close()
}
