package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BradenHooton/acctlock/internal/models"
	pkglogger "github.com/BradenHooton/acctlock/pkg/logger"
)

// MaxDenialMessageLength bounds the denial message in characters
const MaxDenialMessageLength = 500

// SettingsStore persists named options
type SettingsStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
	Add(ctx context.Context, name, value string) (bool, error)
}

// SettingsService manages the denial message shown to locked accounts
type SettingsService struct {
	store          SettingsStore
	caps           CapabilityChecker
	defaultMessage string
	auditLogger    *pkglogger.AuditLogger
	logger         *slog.Logger
}

func NewSettingsService(store SettingsStore, caps CapabilityChecker, defaultMessage string, auditLogger *pkglogger.AuditLogger, logger *slog.Logger) *SettingsService {
	if defaultMessage = SanitizeMessage(defaultMessage); defaultMessage == "" {
		defaultMessage = models.DefaultDenialMessage
	}
	return &SettingsService{
		store:          store,
		caps:           caps,
		defaultMessage: defaultMessage,
		auditLogger:    auditLogger,
		logger:         logger,
	}
}

// SanitizeMessage strips control characters, collapses runs of whitespace
// and trims the result.
func SanitizeMessage(message string) string {
	message = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, message)
	return strings.Join(strings.Fields(message), " ")
}

// EnsureDefaults seeds the denial message if none is stored.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	added, err := s.store.Add(ctx, models.OptionDenialMessage, s.defaultMessage)
	if err != nil {
		return fmt.Errorf("failed to seed denial message: %w", err)
	}
	if added {
		s.logger.Info("seeded default denial message")
	}
	return nil
}

// DenialMessage returns the configured message, falling back to the default
// when none is stored.
func (s *SettingsService) DenialMessage(ctx context.Context) (string, error) {
	message, ok, err := s.store.Get(ctx, models.OptionDenialMessage)
	if err != nil {
		return "", fmt.Errorf("failed to read denial message: %w", err)
	}
	if !ok || message == "" {
		return s.defaultMessage, nil
	}
	return message, nil
}

// SetDenialMessage stores a new denial message on behalf of actor and returns
// the sanitized value.
func (s *SettingsService) SetDenialMessage(ctx context.Context, message, actorID string) (string, error) {
	if err := authorize(ctx, s.caps, actorID, models.CapabilityManageOptions); err != nil {
		return "", err
	}

	message = SanitizeMessage(message)
	if message == "" {
		return "", fmt.Errorf("%w: message must not be empty", models.ErrInvalidSetting)
	}
	if utf8.RuneCountInString(message) > MaxDenialMessageLength {
		return "", fmt.Errorf("%w: message exceeds %d characters", models.ErrInvalidSetting, MaxDenialMessageLength)
	}

	if err := s.store.Set(ctx, models.OptionDenialMessage, message); err != nil {
		return "", fmt.Errorf("failed to store denial message: %w", err)
	}

	s.auditLogger.LogAccountAction(ctx, "denial_message_updated", actorID, nil)
	return message, nil
}
