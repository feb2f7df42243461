package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists refresh tokens for dashboard operators.  Only the
// SHA-256 hash of a token ever reaches the table; revocation and expiry
// are both checked on validation so a revoked or stale token behaves
// exactly like an unknown one.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a hashed refresh token with its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, operatorID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		operatorID, tokenHash, expiresAt)
	return err
}

// ValidateRefresh resolves a hashed token to its operator id.  Revoked
// and expired tokens return sql.ErrNoRows, indistinguishable from tokens
// that never existed.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		operatorID uint64
		expiresAt  time.Time
		revokedAt  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1",
		tokenHash).Scan(&operatorID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return operatorID, nil
}

// RevokeByHash revokes a single token; rows already revoked are left
// untouched so the first revocation timestamp survives.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active token of an operator.  Used on
// logout so no session survives.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, operatorID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = ? AND revoked_at IS NULL",
		operatorID)
	return err
}
