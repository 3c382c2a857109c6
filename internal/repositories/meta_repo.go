package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BradenHooton/acctlock/internal/database"
	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MetaRepository stores per-account key/value metadata in user_meta.
// The lock flag and the activity history are both kept here.
type MetaRepository struct {
	pool *pgxpool.Pool
}

func NewMetaRepository(db *database.DB) *MetaRepository {
	return &MetaRepository{pool: db.Pool}
}

func (r *MetaRepository) get(ctx context.Context, userID, key string) (string, bool, error) {
	query := `SELECT meta_value FROM user_meta WHERE user_id = $1 AND meta_key = $2`

	var value string
	err := r.pool.QueryRow(ctx, query, userID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.MapPostgresError(err)
	}
	return value, true, nil
}

func (r *MetaRepository) set(ctx context.Context, userID, key, value string) error {
	query := `
		INSERT INTO user_meta (user_id, meta_key, meta_value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, meta_key)
		DO UPDATE SET meta_value = EXCLUDED.meta_value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, userID, key, value); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *MetaRepository) GetLockFlag(ctx context.Context, userID string) (models.LockFlag, error) {
	value, ok, err := r.get(ctx, userID, models.MetaKeyLockFlag)
	if err != nil {
		return models.LockFlagUnset, err
	}
	return models.ParseLockFlag(value, ok), nil
}

func (r *MetaRepository) SetLockFlag(ctx context.Context, userID string, flag models.LockFlag) error {
	value, err := flag.Value()
	if err != nil {
		return err
	}
	return r.set(ctx, userID, models.MetaKeyLockFlag, value)
}

// decodeActivity parses a stored history. A value that does not decode as a
// list reads as an empty history.
func decodeActivity(raw string) []models.ActivityEntry {
	var entries []models.ActivityEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

func (r *MetaRepository) GetActivity(ctx context.Context, userID string) ([]models.ActivityEntry, error) {
	value, ok, err := r.get(ctx, userID, models.MetaKeyActivityLog)
	if err != nil || !ok {
		return nil, err
	}
	return decodeActivity(value), nil
}

func (r *MetaRepository) SaveActivity(ctx context.Context, userID string, entries []models.ActivityEntry) error {
	if entries == nil {
		entries = []models.ActivityEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	return r.set(ctx, userID, models.MetaKeyActivityLog, string(data))
}

// ListActivity returns the stored history of every account that has one.
func (r *MetaRepository) ListActivity(ctx context.Context) ([]models.AccountActivity, error) {
	query := `SELECT user_id::text, meta_value FROM user_meta WHERE meta_key = $1 ORDER BY user_id`

	rows, err := r.pool.Query(ctx, query, models.MetaKeyActivityLog)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}

	var userID, raw string
	result := make([]models.AccountActivity, 0)
	_, err = pgx.ForEachRow(rows, []any{&userID, &raw}, func() error {
		if entries := decodeActivity(raw); len(entries) > 0 {
			result = append(result, models.AccountActivity{UserID: userID, Entries: entries})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}

	return result, nil
}

// DeleteKey removes a meta key from every account and returns the number of
// rows removed.
func (r *MetaRepository) DeleteKey(ctx context.Context, key string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM user_meta WHERE meta_key = $1`, key)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
