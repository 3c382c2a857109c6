package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionPruner removes index entries that point at expired sessions
type SessionPruner interface {
	PruneIndexes(ctx context.Context) (int64, error)
}

// PruneRecorder counts pruned index entries
type PruneRecorder interface {
	RecordSessionsPruned(n int64)
}

// CleanupManager periodically prunes stale per-user session indexes
type CleanupManager struct {
	pruner   SessionPruner
	recorder PruneRecorder
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	pruner SessionPruner,
	recorder PruneRecorder,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		pruner:   pruner,
		recorder: recorder,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task and blocks until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pruned, err := cm.pruner.PruneIndexes(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to prune session indexes", slog.Any("error", err))
		return
	}

	cm.recorder.RecordSessionsPruned(pruned)
	if pruned > 0 {
		cm.logger.Info("session index cleanup completed", slog.Int64("entries_removed", pruned))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
