package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RevocationRepo persists logged-out tokens in `token_blacklist`, keyed by
// the SHA-256 hex of the raw token.
type RevocationRepo struct{ DB *sql.DB }

func NewRevocationRepo(db *sql.DB) *RevocationRepo { return &RevocationRepo{DB: db} }

// Revoke records tokenHash until exp. Repeated calls keep a single row.
func (r *RevocationRepo) Revoke(ctx context.Context, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO token_blacklist (token_hash, expires_at) VALUES (?,?) ON DUPLICATE KEY UPDATE expires_at=VALUES(expires_at)",
		tokenHash, exp.UTC())
	return err
}

// Exists reports whether tokenHash has a revocation row, stale or not.
func (r *RevocationRepo) Exists(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM token_blacklist WHERE token_hash=? LIMIT 1", tokenHash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteExpired removes rows whose expiry is strictly before now and returns
// how many were deleted.
func (r *RevocationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM token_blacklist WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
