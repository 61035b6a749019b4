package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
)

const uniqueViolationCode = "23505"

// PgxIface is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresUserRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, password_hash, failed_login_attempts, lockout_until,
		mfa_enabled, mfa_secret, is_email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.FailedLoginAttempts, &user.LockoutUntil, &user.MfaEnabled,
		&user.MfaSecret, &user.IsEmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		LIMIT 1;
	`

	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`

	return scanUser(r.db.QueryRow(ctx, query, id))
}

// Create inserts the user together with its default preference row so a
// half-registered account can never be observed.
func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, failed_login_attempts,
			mfa_enabled, is_email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, false, false, $5, $6)
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return autherror.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_preferences (user_id, created_at, updated_at)
		VALUES ($1, $2, $3)
	`, user.ID, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to create default preferences: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateUser applies the non-nil fields of the patch. The patch struct is the
// single place optional update columns are enumerated.
func (r *PostgresRepository) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	sets := make([]string, 0, 5)
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if patch.PasswordHash != nil {
		appendSet("password_hash", *patch.PasswordHash)
	}
	if patch.MfaEnabled != nil {
		appendSet("mfa_enabled", *patch.MfaEnabled)
	}
	if patch.ClearMfaSecret {
		sets = append(sets, "mfa_secret = NULL")
	} else if patch.MfaSecret != nil {
		appendSet("mfa_secret", *patch.MfaSecret)
	}
	if patch.IsEmailVerified != nil {
		appendSet("is_email_verified", *patch.IsEmailVerified)
	}
	sets = append(sets, "updated_at = now()")

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = $1"

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrAccountNotFound
	}

	return nil
}

// RecordLoginFailure increments the failure counter and flips lockout_until
// in a single statement so two concurrent failures cannot both observe a
// sub-threshold count.
func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
			lockout_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3::timestamptz
				ELSE lockout_until
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts, lockout_until;
	`

	var attempts int
	var lockedUntil *time.Time
	err := r.db.QueryRow(ctx, query, id, threshold, time.Now().Add(lockFor)).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, autherror.ErrAccountNotFound
		}
		return 0, nil, fmt.Errorf("failed to record login failure: %w", err)
	}

	return attempts, lockedUntil, nil
}

func (r *PostgresRepository) ClearLoginFailures(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, lockout_until = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear login failures: %w", err)
	}

	return nil
}

func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, rt *domain.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, rt.ID, rt.UserID, rt.Token, rt.ExpiresAt, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// RedeemRefreshToken rotates tokenValue into replacement. The DELETE with
// RETURNING is the linearization point: of two concurrent redemptions only
// one sees the row, the other gets ErrInvalidOrExpiredToken.
func (r *PostgresRepository) RedeemRefreshToken(ctx context.Context, tokenValue string, replacement *domain.RefreshToken) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	var userID string
	err = tx.QueryRow(ctx, `
		DELETE FROM refresh_tokens
		WHERE token = $1 AND expires_at > now()
		RETURNING user_id
	`, tokenValue).Scan(&userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", autherror.ErrInvalidOrExpiredToken
		}
		return "", fmt.Errorf("failed to redeem refresh token: %w", err)
	}

	replacement.UserID = userID
	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, replacement.ID, replacement.UserID, replacement.Token, replacement.ExpiresAt, replacement.CreatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", fmt.Errorf("failed to store rotated refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit token rotation: %w", err)
	}

	return userID, nil
}

func (r *PostgresRepository) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	return nil
}

// RevokeRefreshToken deletes one token. Deleting an unknown token is not an
// error; logout is idempotent.
func (r *PostgresRepository) RevokeRefreshToken(ctx context.Context, tokenValue string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, tokenValue)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

func (r *PostgresRepository) StoreResetToken(ctx context.Context, prt *domain.PasswordResetToken) error {
	query := `INSERT INTO password_reset_tokens (id, user_id, token, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, prt.ID, prt.UserID, prt.Token, prt.ExpiresAt, prt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return nil
}

// RedeemResetToken consumes the token exactly once, swaps the password hash
// and drops every other credential the account had outstanding: remaining
// reset tokens and all refresh tokens (a changed password ends existing
// sessions).
func (r *PostgresRepository) RedeemResetToken(ctx context.Context, tokenValue, newPasswordHash string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	var userID string
	err = tx.QueryRow(ctx, `
		DELETE FROM password_reset_tokens
		WHERE token = $1 AND expires_at > now()
		RETURNING user_id
	`, tokenValue).Scan(&userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", autherror.ErrInvalidOrExpiredToken
		}
		return "", fmt.Errorf("failed to redeem reset token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, failed_login_attempts = 0, lockout_until = NULL, updated_at = now()
		WHERE id = $1
	`, userID, newPasswordHash)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", fmt.Errorf("failed to delete outstanding reset tokens: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit password reset: %w", err)
	}

	return userID, nil
}
