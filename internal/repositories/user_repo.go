package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/acctlock/internal/database"
	"github.com/BradenHooton/acctlock/internal/models"
	"github.com/BradenHooton/acctlock/pkg/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `u.id, u.email, u.password_hash, u.name, u.token_key, u.role, u.created_at, u.updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner rowScanner, extra ...any) (*models.User, error) {
	var user models.User
	var passwordHash *string

	dest := []any{
		&user.ID, &user.Email, &passwordHash, &user.Name,
		&user.TokenKey, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	tokenKey, err := auth.GenerateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token key: %w", err)
	}
	user.TokenKey = tokenKey

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users AS u (id, email, password_hash, name, token_key, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	var passwordHash *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}

	return scanUser(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, passwordHash, user.Name,
		user.TokenKey, user.Role, user.CreatedAt, user.UpdatedAt,
	))
}

// lockJoin exposes the stored lock flag of each user as m.meta_value.
const lockJoin = `LEFT JOIN user_meta m ON m.user_id = u.id AND m.meta_key = '` + models.MetaKeyLockFlag + `'`

// statusCondition restricts a listing to an effective lock state.
func statusCondition(status string) (string, error) {
	switch status {
	case "":
		return "TRUE", nil
	case models.UserStatusLocked:
		return "m.meta_value = '1'", nil
	case models.UserStatusActive:
		return "m.meta_value IS DISTINCT FROM '1'", nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", models.ErrBadRequest, status)
	}
}

// ListWithLock returns users together with their stored lock flag.
func (r *UserRepository) ListWithLock(ctx context.Context, filter models.UserListFilter) ([]*models.UserWithLock, error) {
	cond, err := statusCondition(filter.Status)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + userColumns + `, m.meta_value
		FROM users u ` + lockJoin + `
		WHERE ` + cond + `
		ORDER BY u.created_at DESC, u.id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.UserWithLock, 0)
	for rows.Next() {
		var flag *string
		user, err := scanUser(rows, &flag)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		entry := &models.UserWithLock{User: *user}
		if flag != nil {
			entry.LockFlag = models.ParseLockFlag(*flag, true)
		}
		users = append(users, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// CountByStatus counts all users and those whose effective state is locked.
func (r *UserRepository) CountByStatus(ctx context.Context) (*models.UserStatusCounts, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE m.meta_value = '1')
		FROM users u ` + lockJoin

	var counts models.UserStatusCounts
	if err := r.pool.QueryRow(ctx, query).Scan(&counts.Total, &counts.Locked); err != nil {
		return nil, database.MapPostgresError(err)
	}
	counts.Active = counts.Total - counts.Locked

	return &counts, nil
}

// DisplayNames resolves user ids to display names. Unknown ids are absent
// from the result.
func (r *UserRepository) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM users WHERE id::text = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query display names: %w", err)
	}

	var id, name string
	_, err = pgx.ForEachRow(rows, []any{&id, &name}, func() error {
		names[id] = name
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan display names: %w", err)
	}

	return names, nil
}
