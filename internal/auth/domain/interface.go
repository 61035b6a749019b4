package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/razorvilla/calendar-app-sub001/internal/auth/domain UserRepository

import (
	"context"
	"time"
)

// UserStore covers account rows. GetByEmail and GetByID return (nil, nil)
// when no row matches so callers can distinguish absence from failure.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Create inserts the user and its default preference row in one
	// transaction.
	Create(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, id string, patch UserPatch) error

	// RecordLoginFailure increments failed_login_attempts and, when the new
	// count reaches threshold, sets lockout_until in the same statement.
	RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (attempts int, lockedUntil *time.Time, err error)
	// ClearLoginFailures resets the counter and clears lockout_until.
	ClearLoginFailures(ctx context.Context, id string) error
}

// RefreshTokenStore covers the persisted, revocable session credentials.
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, rt *RefreshToken) error
	// RedeemRefreshToken deletes the row for tokenValue iff it exists and has
	// not expired, and inserts the replacement in the same transaction. Two
	// concurrent redemptions of one value yield exactly one success.
	RedeemRefreshToken(ctx context.Context, tokenValue string, replacement *RefreshToken) (userID string, err error)
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
	RevokeRefreshToken(ctx context.Context, tokenValue string) error
}

// PasswordResetStore covers single-use reset tokens.
type PasswordResetStore interface {
	StoreResetToken(ctx context.Context, prt *PasswordResetToken) error
	// RedeemResetToken consumes the token, stores the new password hash and
	// deletes every outstanding reset and refresh token for the owner, all in
	// one transaction.
	RedeemResetToken(ctx context.Context, tokenValue, newPasswordHash string) (userID string, err error)
}

type UserRepository interface {
	UserStore
	RefreshTokenStore
	PasswordResetStore
}
