package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/dto"
	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
)

// UserService composes the auth components into the register, login, refresh
// and logout flows. Every login walks LockoutCheck -> CredentialCheck ->
// MfaCheck -> SessionIssued in that order; a locked account is rejected
// before any credential comparison so the response leaks nothing about the
// password's correctness.
type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
	lockout      *LockoutPolicy
	mfa          *MfaService
	hasher       *PasswordHasher
	mailer       Mailer
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator,
	lockout *LockoutPolicy, mfa *MfaService, hasher *PasswordHasher, mailer Mailer) *UserService {
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
		lockout:      lockout,
		mfa:          mfa,
		hasher:       hasher,
		mailer:       mailer,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") || input.Password == "" {
		return nil, autherror.ErrInvalidInput
	}

	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existingUser, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Verification email is best-effort; registration already succeeded.
	s.dispatchVerificationEmail(user)

	return user, nil
}

func (s *UserService) dispatchVerificationEmail(user *domain.User) {
	token, err := s.tokenService.SignVerificationToken(user.ID)
	if err != nil {
		log.Printf("warn: failed to sign verification token for user %s: %v", user.ID, err)
		return
	}
	if err := s.mailer.SendVerificationEmail(user.Email, token); err != nil {
		log.Printf("warn: failed to send verification email to user %s: %v", user.ID, err)
	}
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutput, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Same response as a wrong password; unknown emails must not be
		// distinguishable.
		return nil, autherror.ErrInvalidCredentials
	}

	// Step 1: LockoutCheck. A locked account consumes no failure or success
	// transition.
	if s.lockout.CheckLocked(user) {
		return nil, &autherror.AccountLockedError{Until: *user.LockoutUntil}
	}

	// Step 2: CredentialCheck.
	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		state, recordErr := s.lockout.RecordFailure(ctx, user)
		if recordErr != nil {
			return nil, recordErr
		}
		if state.Locked {
			return nil, &autherror.AccountLockedError{Until: state.Until}
		}
		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}

	// Step 3: MfaCheck. No tokens leave this function until the second
	// factor has been satisfied.
	if user.MfaEnabled {
		if input.MfaToken == "" {
			return &dto.LoginOutput{RequiresMfa: true, UserID: user.ID}, nil
		}
		valid, err := s.mfa.VerifyLogin(user, input.MfaToken)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, autherror.ErrInvalidMfaToken
		}
	}

	// Step 4: SessionIssued. Prior sessions are revoked first: one active
	// login lineage per account.
	if err := s.repo.RevokeAllRefreshTokens(ctx, user.ID); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserOutput(user),
	}, nil
}

func (s *UserService) issueSession(ctx context.Context, user *domain.User) (string, string, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", "", err
	}

	refreshValue, err := s.tokenService.NewRefreshTokenValue()
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	rt := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     refreshValue,
		ExpiresAt: now.Add(s.tokenService.GetRefreshTokenExpiry()),
		CreatedAt: now,
	}
	if err := s.repo.StoreRefreshToken(ctx, rt); err != nil {
		return "", "", err
	}

	return accessToken, refreshValue, nil
}

// Refresh redeems the presented token for a new pair. Rotation happens in
// the store: redeeming deletes the old row and inserts the replacement in one
// transaction, so a replayed token fails.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	if input.RefreshToken == "" {
		return nil, autherror.ErrInvalidOrExpiredToken
	}

	newValue, err := s.tokenService.NewRefreshTokenValue()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	replacement := &domain.RefreshToken{
		ID:        uuid.New().String(),
		Token:     newValue,
		ExpiresAt: now.Add(s.tokenService.GetRefreshTokenExpiry()),
		CreatedAt: now,
	}

	userID, err := s.repo.RedeemRefreshToken(ctx, input.RefreshToken, replacement)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidOrExpiredToken
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newValue,
	}, nil
}

// Logout revokes the presented refresh token. It is idempotent: an unknown
// or empty token is not an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return s.repo.RevokeRefreshToken(ctx, refreshToken)
}

// ChangePassword verifies the current password before installing the new
// one, then revokes every refresh token for the account.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrAccountNotFound
	}

	ok, err := s.hasher.Verify(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return autherror.ErrInvalidCredentials
	}

	if err := ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateUser(ctx, userID, domain.UserPatch{PasswordHash: &hash}); err != nil {
		return err
	}

	return s.repo.RevokeAllRefreshTokens(ctx, userID)
}

// VerifyEmail marks the account behind a signed verification token as
// verified. Verifying twice is harmless.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenService.VerifyVerificationToken(token)
	if err != nil {
		return err
	}

	verified := true

	return s.repo.UpdateUser(ctx, userID, domain.UserPatch{IsEmailVerified: &verified})
}

// ResendVerification re-issues the verification email. The response is
// generic regardless of account existence or verification state.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || user.IsEmailVerified {
		return nil
	}

	s.dispatchVerificationEmail(user)

	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*dto.UserOutput, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrAccountNotFound
	}

	return toUserOutput(user), nil
}

func toUserOutput(user *domain.User) *dto.UserOutput {
	return &dto.UserOutput{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		MfaEnabled:      user.MfaEnabled,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}
