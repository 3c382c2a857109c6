package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/acctlock/internal/metrics"
	"github.com/BradenHooton/acctlock/internal/models"
	pkglogger "github.com/BradenHooton/acctlock/pkg/logger"
)

// LockFlagStore persists the per-account lock flag
type LockFlagStore interface {
	GetLockFlag(ctx context.Context, userID string) (models.LockFlag, error)
	SetLockFlag(ctx context.Context, userID string, flag models.LockFlag) error
}

// AccountDirectory looks up accounts
type AccountDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionManager terminates login sessions
type SessionManager interface {
	DestroyAll(ctx context.Context, userID string) error
}

// CapabilityChecker answers whether an actor may perform a class of action
type CapabilityChecker interface {
	HasCapability(ctx context.Context, actorID, capability string) (bool, error)
}

// DenialMessageSource provides the message shown to locked accounts
type DenialMessageSource interface {
	DenialMessage(ctx context.Context) (string, error)
}

// AuthenticationGate decides whether an account may authenticate
type AuthenticationGate interface {
	CheckAuthenticationAllowed(ctx context.Context, userID string) (*models.AuthDecision, error)
}

// LockService owns the lock state machine of accounts
type LockService struct {
	flags       LockFlagStore
	activity    *ActivityLog
	accounts    AccountDirectory
	sessions    SessionManager
	caps        CapabilityChecker
	messages    DenialMessageSource
	metrics     *metrics.LockMetrics
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

// NewLockService creates a new LockService
func NewLockService(
	flags LockFlagStore,
	activity *ActivityLog,
	accounts AccountDirectory,
	sessions SessionManager,
	caps CapabilityChecker,
	messages DenialMessageSource,
	lockMetrics *metrics.LockMetrics,
	auditLogger *pkglogger.AuditLogger,
	logger *slog.Logger,
) *LockService {
	return &LockService{
		flags:       flags,
		activity:    activity,
		accounts:    accounts,
		sessions:    sessions,
		caps:        caps,
		messages:    messages,
		metrics:     lockMetrics,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// authorize returns ErrUnauthorized unless actor holds capability
func authorize(ctx context.Context, caps CapabilityChecker, actorID, capability string) error {
	ok, err := caps.HasCapability(ctx, actorID, capability)
	if err != nil {
		return fmt.Errorf("failed to check capability: %w", err)
	}
	if !ok {
		return models.ErrUnauthorized
	}
	return nil
}

// SetLock locks or unlocks a single account on behalf of actor.
// Requesting the state the account is already in changes nothing.
func (s *LockService) SetLock(ctx context.Context, userID string, locked bool, actorID string) (*models.LockResult, error) {
	if err := authorize(ctx, s.caps, actorID, models.CapabilityEditUsers); err != nil {
		s.logger.Warn("lock change denied", slog.String("actor_id", actorID), slog.String("user_id", userID))
		return nil, err
	}

	if userID == actorID {
		s.logger.Info("self lock change rejected", slog.String("user_id", userID))
		return nil, models.ErrSelfActionForbidden
	}

	if _, err := s.accounts.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	changed, err := s.apply(ctx, userID, locked, actorID, false)
	if err != nil {
		s.logger.Error("failed to change lock state", slog.String("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	return &models.LockResult{UserID: userID, Locked: locked, Changed: changed}, nil
}

// SetLockBulk applies the requested state to each target in order. The actor's
// own account and accounts already in the requested state are skipped.
func (s *LockService) SetLockBulk(ctx context.Context, userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error) {
	if err := authorize(ctx, s.caps, actorID, models.CapabilityEditUsers); err != nil {
		s.logger.Warn("bulk lock change denied", slog.String("actor_id", actorID), slog.Int("users", len(userIDs)))
		return nil, err
	}

	result := &models.BulkLockResult{Users: len(userIDs)}

	for _, userID := range userIDs {
		if userID == actorID {
			result.Skipped++
			if locked {
				result.SelfAttempted = true
			}
			s.metrics.RecordBulkSkipped(metrics.SkipReasonSelf)
			continue
		}

		if _, err := s.accounts.GetByID(ctx, userID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				result.Skipped++
				s.metrics.RecordBulkSkipped(metrics.SkipReasonNotFound)
				continue
			}
			return result, fmt.Errorf("failed to get user %s: %w", userID, err)
		}

		changed, err := s.apply(ctx, userID, locked, actorID, true)
		if err != nil {
			s.logger.Error("bulk lock change failed",
				slog.String("user_id", userID),
				slog.Int("processed", result.Processed),
				slog.Any("error", err))
			return result, err
		}

		if changed {
			result.Processed++
		} else {
			result.Skipped++
			s.metrics.RecordBulkSkipped(metrics.SkipReasonUnchanged)
		}
	}

	s.logger.Info("bulk lock change completed",
		slog.String("actor_id", actorID),
		slog.Bool("locked", locked),
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// apply performs the transition if the effective state differs and reports
// whether anything changed.
func (s *LockService) apply(ctx context.Context, userID string, locked bool, actorID string, bulk bool) (bool, error) {
	current, err := s.flags.GetLockFlag(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read lock flag: %w", err)
	}
	if current.Locked() == locked {
		return false, nil
	}

	if err := s.flags.SetLockFlag(ctx, userID, models.LockFlagFor(locked)); err != nil {
		return false, fmt.Errorf("failed to write lock flag: %w", err)
	}

	if err := s.activity.Append(ctx, userID, models.ActionLabel(locked, bulk), actorID); err != nil {
		return false, err
	}

	if locked {
		s.destroySessions(ctx, userID)
	}

	s.metrics.RecordLockTransition(locked, bulk)
	s.auditLogger.LogLockTransition(ctx, pkglogger.LockTransition{
		TargetID: userID,
		ActorID:  actorID,
		Locked:   locked,
		Bulk:     bulk,
	})

	return true, nil
}

// destroySessions never fails the transition; the flag is authoritative.
func (s *LockService) destroySessions(ctx context.Context, userID string) {
	if err := s.sessions.DestroyAll(ctx, userID); err != nil {
		s.metrics.RecordSessionDestroyFailed()
		s.logger.Error("failed to destroy sessions of locked account",
			slog.String("user_id", userID),
			slog.Any("error", err))
	}
}

// CheckAuthenticationAllowed denies authentication to locked accounts. It
// only reads state.
func (s *LockService) CheckAuthenticationAllowed(ctx context.Context, userID string) (*models.AuthDecision, error) {
	flag, err := s.flags.GetLockFlag(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock flag: %w", err)
	}

	if !flag.Locked() {
		return &models.AuthDecision{Allowed: true}, nil
	}

	message, err := s.messages.DenialMessage(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AuthDecision{Allowed: false, Message: message}, nil
}

// IsLocked reports the effective lock state of an account.
func (s *LockService) IsLocked(ctx context.Context, userID string) (bool, error) {
	flag, err := s.flags.GetLockFlag(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read lock flag: %w", err)
	}
	return flag.Locked(), nil
}

// Status returns the lock state and history of an account.
func (s *LockService) Status(ctx context.Context, userID string) (*models.LockStatus, error) {
	if _, err := s.accounts.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	flag, err := s.flags.GetLockFlag(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock flag: %w", err)
	}

	history, err := s.activity.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.LockStatus{
		UserID:  userID,
		Locked:  flag.Locked(),
		Flag:    flag.String(),
		History: history,
	}, nil
}
