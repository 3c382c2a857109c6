// Package sessions tracks issued login sessions in Redis so that they can be
// terminated server-side before their tokens expire.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	indexKeyPrefix   = "user_sessions:"
	scanBatch        = 100
)

func sessionKey(sessionID string) string { return sessionKeyPrefix + sessionID }
func indexKey(userID string) string      { return indexKeyPrefix + userID }

// RedisStore keeps one key per session, holding the owning user id and
// expiring with the session, plus a per-user set indexing those keys.
type RedisStore struct {
	client redis.Cmdable
	logger *slog.Logger
}

func NewRedisStore(client redis.Cmdable, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// Register records a new session that stays active for ttl.
func (s *RedisStore) Register(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID), userID, ttl)
		pipe.SAdd(ctx, indexKey(userID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	return nil
}

// IsActive reports whether the session exists and belongs to userID.
func (s *RedisStore) IsActive(ctx context.Context, userID, sessionID string) (bool, error) {
	owner, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	return owner == userID, nil
}

// Revoke ends a single session.
func (s *RedisStore) Revoke(ctx context.Context, userID, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		pipe.SRem(ctx, indexKey(userID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// DestroyAll ends every session of the user.
func (s *RedisStore) DestroyAll(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, indexKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, indexKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to destroy sessions: %w", err)
	}

	s.logger.Debug("destroyed all sessions", slog.String("user_id", userID), slog.Int("count", len(ids)))
	return nil
}

// PruneIndexes removes index entries whose session key has expired and
// returns how many were removed.
func (s *RedisStore) PruneIndexes(ctx context.Context) (int64, error) {
	var pruned int64

	iter := s.client.Scan(ctx, 0, indexKeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		index := iter.Val()

		ids, err := s.client.SMembers(ctx, index).Result()
		if err != nil {
			return pruned, fmt.Errorf("failed to list sessions: %w", err)
		}

		var stale []any
		for _, id := range ids {
			n, err := s.client.Exists(ctx, sessionKey(id)).Result()
			if err != nil {
				return pruned, fmt.Errorf("failed to check session: %w", err)
			}
			if n == 0 {
				stale = append(stale, id)
			}
		}

		if len(stale) == 0 {
			continue
		}
		removed, err := s.client.SRem(ctx, index, stale...).Result()
		if err != nil {
			return pruned, fmt.Errorf("failed to prune session index: %w", err)
		}
		pruned += removed
	}

	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("failed to scan session indexes: %w", err)
	}
	return pruned, nil
}
