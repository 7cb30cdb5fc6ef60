package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gn-registry/internal/model"
)

// TokenRepository persists refresh tokens. Revocation is deletion; a token
// absent from the table is not redeemable, which is what makes single-use
// rotation enforceable.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Store(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
	           VALUES ($1, $2, $3, $4)`
	if _, err := r.pool.Exec(ctx, q, token, userID, time.Now().UTC(), expiresAt); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Validate returns the owning user id for a live, unrevoked refresh token.
func (r *TokenRepository) Validate(ctx context.Context, token string) (string, error) {
	const q = `SELECT user_id FROM refresh_tokens WHERE token = $1 AND expires_at > now()`

	var userID string
	switch err := r.pool.QueryRow(ctx, q, token).Scan(&userID); {
	case errors.Is(err, pgx.ErrNoRows):
		return "", model.ErrTokenNotFound
	case err != nil:
		return "", fmt.Errorf("validate refresh token: %w", err)
	}
	return userID, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser invalidates every session of one account, used when the
// account is deactivated, reassigned or has its password reset.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CleanExpired removes tokens past their expiry and reports how many went.
func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
