package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/acctlock/internal/auth"
	"github.com/BradenHooton/acctlock/internal/models"
	pkgauth "github.com/BradenHooton/acctlock/pkg/auth"
	pkglogger "github.com/BradenHooton/acctlock/pkg/logger"
)

// SessionStore tracks login sessions
type SessionStore interface {
	Register(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	IsActive(ctx context.Context, userID, sessionID string) (bool, error)
	Revoke(ctx context.Context, userID, sessionID string) error
}

// LoginDenialRecorder counts logins vetoed by the lock gate
type LoginDenialRecorder interface {
	RecordLoginDenied()
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	gate        AuthenticationGate
	sessions    SessionStore
	tm          *auth.TokenManager
	pacer       *auth.FailurePacer
	denials     LoginDenialRecorder
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, gate AuthenticationGate, sessions SessionStore, tm *auth.TokenManager, pacer *auth.FailurePacer, denials LoginDenialRecorder, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		gate:        gate,
		sessions:    sessions,
		tm:          tm,
		pacer:       pacer,
		denials:     denials,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

func (s *AuthService) loginFailed(ctx context.Context, start time.Time, userID, reason string) {
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		FailureReason: reason,
		Success:       false,
	})
	s.pacer.Pad(ctx, start)
}

// loginDenied records a lock veto and passes err through
func (s *AuthService) loginDenied(ctx context.Context, start time.Time, userID string, err error) error {
	if _, locked := models.IsAccountLocked(err); !locked {
		return err
	}
	s.logger.Info("login blocked: account locked", slog.String("user_id", userID))
	if s.denials != nil {
		s.denials.RecordLoginDenied()
	}
	s.loginFailed(ctx, start, userID, "account_locked")
	return err
}

// checkGate runs the lock gate and converts a denial into an AccountLockedError
func (s *AuthService) checkGate(ctx context.Context, userID string) error {
	decision, err := s.gate.CheckAuthenticationAllowed(ctx, userID)
	if err != nil {
		s.logger.Error("lock check failed", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !decision.Allowed {
		return &models.AccountLockedError{UserID: userID, Message: decision.Message}
	}
	return nil
}

// issue creates a token pair and registers its session. The gate runs again
// once the session exists: a lock that destroyed sessions between the first
// check and Register would otherwise leave this one alive.
func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	pair, err := s.tm.GenerateTokenPair(ctx, user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.sessions.Register(ctx, user.ID, pair.SessionID, s.tm.RefreshTokenExpiry()); err != nil {
		s.logger.Error("failed to register session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.checkGate(ctx, user.ID); err != nil {
		if revokeErr := s.sessions.Revoke(ctx, user.ID, pair.SessionID); revokeErr != nil {
			s.logger.Error("failed to end session of locked account",
				slog.String("user_id", user.ID),
				slog.Any("error", revokeErr),
			)
		}
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// Login authenticates a user and returns tokens. A correct password for a
// locked account yields an *models.AccountLockedError.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	start := time.Now()

	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials", slog.String("email", pkglogger.SanitizedEmail(email)))
			s.loginFailed(ctx, start, "", "invalid_credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials", slog.String("user_id", user.ID))
		s.loginFailed(ctx, start, user.ID, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	if err := s.checkGate(ctx, user.ID); err != nil {
		return nil, s.loginDenied(ctx, start, user.ID, err)
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, s.loginDenied(ctx, start, user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return resp, nil
}

// RefreshToken exchanges a refresh token for a new token pair. The old
// session ends and a new one begins.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(ctx, refreshToken)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}
	if claims.Type != models.TokenTypeRefresh {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	active, err := s.sessions.IsActive(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		s.logger.Error("session lookup failed", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !active {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.checkGate(ctx, user.ID); err != nil {
		return nil, err
	}

	if err := s.sessions.Revoke(ctx, user.ID, claims.SessionID); err != nil {
		s.logger.Error("failed to end refreshed session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.issue(ctx, user)
}

// Logout ends the session the claims belong to.
func (s *AuthService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	if err := s.sessions.Revoke(ctx, claims.UserID, claims.SessionID); err != nil {
		s.logger.Error("failed to end session", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    claims.UserID,
		Success:   true,
	})
	return nil
}
