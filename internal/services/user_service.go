package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/BradenHooton/acctlock/pkg/auth"
)

const (
	defaultUserListLimit = 20
	maxUserListLimit     = 100
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ListWithLock(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error)
	CountByStatus(ctx context.Context) (*models.UserStatusCounts, error)
}

// UserService handles user business logic
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// ListUsers lists users with their lock state, optionally restricted to
// active or locked accounts.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error) {
	switch filter.Status {
	case "", models.UserStatusActive, models.UserStatusLocked:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrBadRequest, filter.Status)
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultUserListLimit
	}
	filter.Limit = min(filter.Limit, maxUserListLimit)
	filter.Offset = max(filter.Offset, 0)

	users, err := s.repo.ListWithLock(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users",
			slog.String("status", filter.Status),
			slog.Int("limit", filter.Limit),
			slog.Int("offset", filter.Offset),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// StatusCounts returns the number of accounts per effective lock state.
func (s *UserService) StatusCounts(ctx context.Context) (*models.UserStatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return counts, nil
}

// CreateUser creates a new user with the given password
func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.PasswordHash = hashedPassword

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("user_id", createdUser.ID), slog.String("role", createdUser.Role))
	return createdUser, nil
}
