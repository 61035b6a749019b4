package service

import (
	"context"

	"github.com/pquerna/otp/totp"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
)

// MfaService manages TOTP enrollment and verification. A generated secret is
// persisted immediately but stays inactive until Enable confirms the user can
// produce codes for it. Validation uses 30-second steps with one step of
// clock skew either way.
type MfaService struct {
	store  domain.UserStore
	issuer string
}

func NewMfaService(store domain.UserStore, issuer string) *MfaService {
	return &MfaService{store: store, issuer: issuer}
}

// GenerateSecret creates and persists a fresh, unconfirmed TOTP secret and
// returns it with the otpauth:// provisioning URI for QR rendering.
func (s *MfaService) GenerateSecret(ctx context.Context, userID string) (string, string, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", autherror.ErrAccountNotFound
	}
	if user.MfaEnabled {
		return "", "", autherror.ErrMfaAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return "", "", err
	}

	secret := key.Secret()
	if err := s.store.UpdateUser(ctx, userID, domain.UserPatch{MfaSecret: &secret}); err != nil {
		return "", "", err
	}

	return secret, key.URL(), nil
}

// VerifySetup checks a code against the stored, not-yet-enabled secret. It
// does not enable MFA by itself.
func (s *MfaService) VerifySetup(ctx context.Context, userID, code string) (bool, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, autherror.ErrAccountNotFound
	}
	if user.MfaSecret == nil {
		return false, autherror.ErrMfaNotConfigured
	}

	return totp.Validate(code, *user.MfaSecret), nil
}

// Enable activates MFA for the account. The code requirement guarantees the
// stored secret has actually reached the user's authenticator.
func (s *MfaService) Enable(ctx context.Context, userID, code string) error {
	valid, err := s.VerifySetup(ctx, userID, code)
	if err != nil {
		return err
	}
	if !valid {
		return autherror.ErrInvalidMfaToken
	}

	enabled := true

	return s.store.UpdateUser(ctx, userID, domain.UserPatch{MfaEnabled: &enabled})
}

// Disable clears the secret entirely along with the enabled flag.
func (s *MfaService) Disable(ctx context.Context, userID string) error {
	enabled := false

	return s.store.UpdateUser(ctx, userID, domain.UserPatch{
		MfaEnabled:     &enabled,
		ClearMfaSecret: true,
	})
}

// VerifyLogin is the login-time TOTP check for accounts with MFA enabled.
// A missing secret on an mfa_enabled account is a broken setup invariant.
func (s *MfaService) VerifyLogin(user *domain.User, code string) (bool, error) {
	if user.MfaSecret == nil {
		return false, autherror.ErrMfaNotConfigured
	}

	return totp.Validate(code, *user.MfaSecret), nil
}
