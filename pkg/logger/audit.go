package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// LockTransition describes a lock flag change for the audit stream
type LockTransition struct {
	TargetID string
	ActorID  string
	Locked   bool
	Bulk     bool
}

// AuditLogger writes structured audit records to slog
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		now:    time.Now,
	}
}

func (al *AuditLogger) timestamp() slog.Attr {
	return slog.String("timestamp", al.now().UTC().Format(time.RFC3339))
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		al.timestamp(),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogLockTransition logs a change of an account's lock flag
func (al *AuditLogger) LogLockTransition(ctx context.Context, tr LockTransition) {
	eventType := "account_unlocked"
	if tr.Locked {
		eventType = "account_locked"
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_type", "lock"),
		slog.String("event_type", eventType),
		slog.String("user_id", tr.TargetID),
		slog.String("actor_id", tr.ActorID),
		slog.Bool("bulk", tr.Bulk),
		al.timestamp(),
	)
}

// LogAccountAction logs general administrative actions
func (al *AuditLogger) LogAccountAction(ctx context.Context, eventType, actorID string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", eventType),
		slog.String("actor_id", actorID),
		al.timestamp(),
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}
