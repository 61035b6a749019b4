package domain

import "time"

type User struct {
	ID                  string
	Email               string
	Name                string
	PasswordHash        string
	FailedLoginAttempts int
	LockoutUntil        *time.Time
	MfaEnabled          bool
	MfaSecret           *string
	IsEmailVerified     bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserPatch enumerates the optional user columns a service may update in a
// single call. Nil fields are left untouched; ClearMfaSecret wins over
// MfaSecret so a disable cannot leave a stale secret behind.
type UserPatch struct {
	PasswordHash    *string
	MfaEnabled      *bool
	MfaSecret       *string
	ClearMfaSecret  bool
	IsEmailVerified *bool
}

// IsEmpty reports whether applying the patch would be a no-op.
func (p UserPatch) IsEmpty() bool {
	return p.PasswordHash == nil && p.MfaEnabled == nil &&
		p.MfaSecret == nil && !p.ClearMfaSecret && p.IsEmailVerified == nil
}

// LockState is the outcome of recording a failed login attempt.
type LockState struct {
	Locked            bool
	Until             time.Time
	AttemptsRemaining int
}
