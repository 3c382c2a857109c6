package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/BradenHooton/acctlock/internal/models"
	pkglogger "github.com/BradenHooton/acctlock/pkg/logger"
)

// MetaPurger removes a meta key from every account
type MetaPurger interface {
	DeleteKey(ctx context.Context, key string) (int64, error)
}

// OptionDeleter removes a named option
type OptionDeleter interface {
	Delete(ctx context.Context, name string) (bool, error)
}

// PurgeResult reports what a data removal deleted
type PurgeResult struct {
	LockFlags     int64 `json:"lock_flags"`
	ActivityLogs  int64 `json:"activity_logs"`
	OptionRemoved bool  `json:"option_removed"`
}

// MaintenanceService removes all stored lock data
type MaintenanceService struct {
	meta        MetaPurger
	options     OptionDeleter
	caps        CapabilityChecker
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

func NewMaintenanceService(meta MetaPurger, options OptionDeleter, caps CapabilityChecker, auditLogger *pkglogger.AuditLogger, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		meta:        meta,
		options:     options,
		caps:        caps,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// PurgeData deletes every lock flag, every activity history and the denial
// message. All accounts read as unlocked afterwards.
func (s *MaintenanceService) PurgeData(ctx context.Context, actorID string) (*PurgeResult, error) {
	if err := authorize(ctx, s.caps, actorID, models.CapabilityManageOptions); err != nil {
		s.logger.Warn("data removal denied", slog.String("actor_id", actorID))
		return nil, err
	}

	var result PurgeResult
	var err error

	if result.LockFlags, err = s.meta.DeleteKey(ctx, models.MetaKeyLockFlag); err != nil {
		return nil, fmt.Errorf("failed to delete lock flags: %w", err)
	}
	if result.ActivityLogs, err = s.meta.DeleteKey(ctx, models.MetaKeyActivityLog); err != nil {
		return nil, fmt.Errorf("failed to delete activity logs: %w", err)
	}
	if result.OptionRemoved, err = s.options.Delete(ctx, models.OptionDenialMessage); err != nil {
		return nil, fmt.Errorf("failed to delete denial message: %w", err)
	}

	s.logger.Info("lock data removed",
		slog.String("actor_id", actorID),
		slog.Int64("lock_flags", result.LockFlags),
		slog.Int64("activity_logs", result.ActivityLogs))
	s.auditLogger.LogAccountAction(ctx, "lock_data_purged", actorID, map[string]string{
		"lock_flags":    strconv.FormatInt(result.LockFlags, 10),
		"activity_logs": strconv.FormatInt(result.ActivityLogs, 10),
	})

	return &result, nil
}
