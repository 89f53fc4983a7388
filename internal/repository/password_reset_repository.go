package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/devscout-auth/internal/models"
)

// PasswordResetRepository stores one-time reset codes.
type PasswordResetRepository struct {
	db *sqlx.DB
}

// NewPasswordResetRepository creates a new instance of PasswordResetRepository.
func NewPasswordResetRepository(db *sqlx.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Issue invalidates the user's outstanding codes and stores code, under the
// user row lock so that at most one unused code exists afterwards.
func (r *PasswordResetRepository) Issue(ctx context.Context, code *models.PasswordResetCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}

	return withTx(ctx, r.db, "issue reset code", func(tx *sqlx.Tx) error {
		if err := lockUser(ctx, tx, code.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("lock user: %w", err)
		}
		const invalidate = `UPDATE password_reset_codes SET used = TRUE, used_at = $2 WHERE user_id = $1 AND used = FALSE`
		if _, err := tx.ExecContext(ctx, invalidate, code.UserID, code.CreatedAt); err != nil {
			return fmt.Errorf("invalidate reset codes: %w", err)
		}
		const insert = `INSERT INTO password_reset_codes (id, user_id, token, expires_at, used, created_at) VALUES ($1, $2, $3, $4, FALSE, $5)`
		if _, err := tx.ExecContext(ctx, insert, code.ID, code.UserID, code.Token, code.ExpiresAt, code.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert reset code: %w", err)
		}
		return nil
	})
}

// Redeem consumes the code, replaces the password and revokes every session of
// the user in one transaction.
func (r *PasswordResetRepository) Redeem(ctx context.Context, red models.ResetRedemption) error {
	return withTx(ctx, r.db, "redeem reset code", func(tx *sqlx.Tx) error {
		const consume = `UPDATE password_reset_codes SET used = TRUE, used_at = $3 WHERE user_id = $1 AND token = $2 AND used = FALSE AND expires_at > $3`
		res, err := tx.ExecContext(ctx, consume, red.UserID, red.Code, red.At)
		if err != nil {
			return fmt.Errorf("consume reset code: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("consume reset code: %w", err)
		} else if n == 0 {
			return ErrCodeNotRedeemable
		}

		const update = `UPDATE users SET password_hash = $2, password_salt = $3, updated_at = $4 WHERE id = $1`
		res, err = tx.ExecContext(ctx, update, red.UserID, red.PasswordHash, red.PasswordSalt, red.At)
		if err != nil {
			return fmt.Errorf("replace password: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, red.UserID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
}
