package service

import (
	"context"
	"time"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
)

// LockoutPolicy tracks failed login attempts per account and locks the
// account once the threshold is reached. The counter lives on the user row;
// the increment-and-check is a single store statement so concurrent failures
// cannot slip past the threshold.
type LockoutPolicy struct {
	store     domain.UserStore
	threshold int
	duration  time.Duration
}

func NewLockoutPolicy(store domain.UserStore, threshold int, durationMin int) *LockoutPolicy {
	return &LockoutPolicy{
		store:     store,
		threshold: threshold,
		duration:  time.Duration(durationMin) * time.Minute,
	}
}

// CheckLocked reports whether the account is inside its lockout window. It
// must run before any credential comparison.
func (p *LockoutPolicy) CheckLocked(user *domain.User) bool {
	return user.LockoutUntil != nil && user.LockoutUntil.After(time.Now())
}

// RecordFailure registers a failed credential check and returns the
// resulting lock state.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, user *domain.User) (domain.LockState, error) {
	attempts, lockedUntil, err := p.store.RecordLoginFailure(ctx, user.ID, p.threshold, p.duration)
	if err != nil {
		return domain.LockState{}, err
	}

	if lockedUntil != nil && lockedUntil.After(time.Now()) {
		return domain.LockState{Locked: true, Until: *lockedUntil}, nil
	}

	remaining := p.threshold - attempts
	if remaining < 0 {
		remaining = 0
	}

	return domain.LockState{AttemptsRemaining: remaining}, nil
}

// RecordSuccess resets the failure counter and clears any lockout.
func (p *LockoutPolicy) RecordSuccess(ctx context.Context, user *domain.User) error {
	return p.store.ClearLoginFailures(ctx, user.ID)
}
