package repositories

import (
	"context"
	"errors"

	"github.com/BradenHooton/acctlock/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OptionRepository stores process-wide named settings.
type OptionRepository struct {
	pool *pgxpool.Pool
}

func NewOptionRepository(db *database.DB) *OptionRepository {
	return &OptionRepository{pool: db.Pool}
}

// Get returns the option value and whether it is set.
func (r *OptionRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT option_value FROM options WHERE option_name = $1`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.MapPostgresError(err)
	}
	return value, true, nil
}

func (r *OptionRepository) Set(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO options (option_name, option_value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (option_name)
		DO UPDATE SET option_value = EXCLUDED.option_value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query, name, value)
	return database.MapPostgresError(err)
}

// Add stores the option only if it is not already set.
func (r *OptionRepository) Add(ctx context.Context, name, value string) (bool, error) {
	query := `INSERT INTO options (option_name, option_value) VALUES ($1, $2) ON CONFLICT (option_name) DO NOTHING`

	result, err := r.pool.Exec(ctx, query, name, value)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() == 1, nil
}

// Delete removes the option and reports whether it existed.
func (r *OptionRepository) Delete(ctx context.Context, name string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM options WHERE option_name = $1`, name)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() == 1, nil
}
