package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shutterbloom/booking-api/internal/utils"
)

// refreshTokenBytes is the amount of random data behind each opaque token
// (96 hex characters on the wire).
const refreshTokenBytes = 48

// RefreshTokenRepo persists single-use refresh tokens. Rows are inserted at
// login/refresh and only ever deleted: on rotation, on logout, or when they
// turn up expired. Nothing updates a token in place.
type RefreshTokenRepo struct {
	DB  *sql.DB
	TTL time.Duration // refresh token lifetime (7 days by default)
}

func NewRefreshTokenRepo(db *sql.DB, ttlDays int) *RefreshTokenRepo {
	return &RefreshTokenRepo{DB: db, TTL: time.Duration(ttlDays) * 24 * time.Hour}
}

// Issue creates a new refresh token for the user and returns the raw value
// with its expiry. Expired rows belonging to the same user are removed first;
// this inline sweep keeps the table bounded without a background job.
func (r *RefreshTokenRepo) Issue(ctx context.Context, userID uint64) (string, time.Time, error) {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=? AND expires_at <= UTC_TIMESTAMP()",
		userID); err != nil {
		return "", time.Time{}, fmt.Errorf("sweep expired tokens: %w", err)
	}

	token, err := utils.NewOpaqueToken(refreshTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	exp := time.Now().UTC().Add(r.TTL)
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES (?,?,?)",
		token, userID, exp); err != nil {
		return "", time.Time{}, fmt.Errorf("insert refresh token: %w", err)
	}
	return token, exp, nil
}

// Consume looks up an unexpired token and deletes it in the same logical
// operation. The conditional DELETE checked via RowsAffected is what makes
// the token single-use: when two requests race on the same value, exactly
// one delete reports an affected row and the loser gets ErrTokenConsumed.
func (r *RefreshTokenRepo) Consume(ctx context.Context, token string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token=? AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select refresh token: %w", err)
	}

	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token=? AND expires_at > UTC_TIMESTAMP()",
		token)
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, ErrTokenConsumed
	}
	return userID, nil
}

// RevokeAllForUser deletes every refresh token the user holds.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
