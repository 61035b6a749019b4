package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
)

// PasswordResetService issues and redeems single-use reset tokens. Tokens are
// both signed (so expiry and ownership are tamper-proof) and persisted (so
// redemption can be revoked and is single-use).
type PasswordResetService struct {
	userStore    domain.UserStore
	resetStore   domain.PasswordResetStore
	tokenService TokenGenerator
	hasher       *PasswordHasher
	mailer       Mailer
}

func NewPasswordResetService(userStore domain.UserStore, resetStore domain.PasswordResetStore,
	tokenService TokenGenerator, hasher *PasswordHasher, mailer Mailer) *PasswordResetService {
	return &PasswordResetService{
		userStore:    userStore,
		resetStore:   resetStore,
		tokenService: tokenService,
		hasher:       hasher,
		mailer:       mailer,
	}
}

// Request issues a reset token for the account behind email, if one exists.
// The caller gets nil either way so responses cannot be used to enumerate
// accounts.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("[password-reset] request for unknown email, responding generically")
		return nil
	}

	token, err := s.tokenService.SignResetToken(user.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	prt := &domain.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.tokenService.GetResetTokenExpiry()),
		CreatedAt: now,
	}
	if err := s.resetStore.StoreResetToken(ctx, prt); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, token); err != nil {
		log.Printf("warn: failed to send password reset email to user %s: %v", user.ID, err)
	}

	return nil
}

// Redeem consumes the token and installs the new password. The store call is
// atomic: it deletes the redeemed token, every other outstanding reset token
// and all refresh tokens for the account in one transaction.
func (s *PasswordResetService) Redeem(ctx context.Context, token, newPassword string) error {
	if _, err := s.tokenService.VerifyResetToken(token); err != nil {
		return err
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.resetStore.RedeemResetToken(ctx, token, hash)
	if err != nil {
		return err
	}

	log.Printf("[password-reset] password updated for user %s, sessions revoked", userID)

	return nil
}
