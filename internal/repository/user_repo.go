package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gn-registry/internal/model"
	"gn-registry/internal/query"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, password_hash, role, jurisdiction_id, is_active,
	failed_login_attempts, locked_until, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var jurisdictionID *string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &jurisdictionID,
		&u.IsActive, &u.FailedLoginAttempts, &u.LockedUntil, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if jurisdictionID != nil {
		u.JurisdictionID = *jurisdictionID
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	var jurisdictionID *string
	if u.JurisdictionID != "" {
		jurisdictionID = &u.JurisdictionID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, role, jurisdiction_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.PasswordHash, u.Role, jurisdictionID, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update changes role and home jurisdiction assignment.
func (r *UserRepository) Update(ctx context.Context, u model.User) error {
	var jurisdictionID *string
	if u.JurisdictionID != "" {
		jurisdictionID = &u.JurisdictionID
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, jurisdiction_id = $3, updated_at = $4 WHERE id = $1`,
		u.ID, u.Role, jurisdictionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET failed_login_attempts = failed_login_attempts + 1, updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment failed attempts: %w", err)
	}
	return nil
}

func (r *UserRepository) LockAccount(ctx context.Context, userID string, until time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET locked_until = $2, updated_at = $3 WHERE id = $1`,
		userID, until, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

func (r *UserRepository) ResetFailedAttempts(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL, updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}

var userFilterSchema = query.Schema{
	"search":       {Columns: []string{"username"}, Op: query.OpSearch, Kind: query.KindText},
	"role":         {Column: "role", Op: query.OpEqualFold, Kind: query.KindText},
	"jurisdiction": {Column: "jurisdiction_id", Op: query.OpEqual, Kind: query.KindUUID},
	"active":       {Column: "is_active", Op: query.OpEqual, Kind: query.KindBool},
}

var userSortColumns = map[string]string{
	"username":   "username",
	"role":       "role",
	"created_at": "created_at",
}

func (r *UserRepository) List(ctx context.Context, q model.UserQuery) ([]model.User, model.Meta, error) {
	f := query.Compile(userFilterSchema, map[string]string{
		"search":       q.Search,
		"role":         q.Role,
		"jurisdiction": q.JurisdictionID,
		"active":       q.Active,
	})

	spec := query.PageSpec{
		Select: `SELECT ` + userColumns + ` FROM users`,
		Count:  `SELECT COUNT(*) FROM users`,
		Sort: query.ResolveSort(userSortColumns, q.Sort, q.Direction,
			query.Sort{Column: "username", Direction: "ASC"}),
		Page:  q.Page,
		Limit: q.Limit,
	}

	return query.Paginate(ctx, r.pool, spec, f, func(rows pgx.Rows) (model.User, error) {
		return scanUser(rows)
	})
}
