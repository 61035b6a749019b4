package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/dto"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/service"
	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
	"github.com/razorvilla/calendar-app-sub001/internal/mocks"
)

const testPassword = "Abc12345!"

func newUserService(t *testing.T) (*service.UserService, *mocks.MockUserRepository, *mocks.MockTokenGenerator, *mocks.MockMailer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)

	hasher := service.NewPasswordHasher()
	lockout := service.NewLockoutPolicy(mockRepo, 5, 15)
	mfa := service.NewMfaService(mockRepo, "CalendarApp")
	s := service.NewUserService(mockRepo, mockTokens, lockout, mfa, hasher, mockMailer)

	return s, mockRepo, mockTokens, mockMailer
}

func hashFixture(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserService_Register_Success(t *testing.T) {
	s, mockRepo, mockTokens, mockMailer := newUserService(t)

	input := dto.RegisterInput{Email: "Test@Example.com", Password: testPassword, Name: "Test User"}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(nil, nil)
	mockRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user *domain.User) error {
			assert.Equal(t, "test@example.com", user.Email)
			assert.Equal(t, "Test User", user.Name)
			assert.NotEmpty(t, user.ID)
			assert.NotEmpty(t, user.PasswordHash)
			assert.NotEqual(t, testPassword, user.PasswordHash)
			return nil
		})
	mockTokens.EXPECT().SignVerificationToken(gomock.Any()).Return("verify-token", nil)
	mockMailer.EXPECT().SendVerificationEmail("test@example.com", "verify-token").Return(nil)

	user, err := s.Register(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotZero(t, user.CreatedAt)
}

func TestUserService_Register_EmailAlreadyExists(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	input := dto.RegisterInput{Email: "test@example.com", Password: testPassword}
	existingUser := &domain.User{ID: "existing-id", Email: input.Email}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(existingUser, nil)

	user, err := s.Register(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	assert.Nil(t, user)
}

func TestUserService_Register_WeakPassword(t *testing.T) {
	s, _, _, _ := newUserService(t)

	user, err := s.Register(context.Background(), dto.RegisterInput{
		Email:    "test@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, autherror.ErrWeakPassword)
	assert.Nil(t, user)
}

func TestUserService_Register_InvalidInput(t *testing.T) {
	s, _, _, _ := newUserService(t)

	user, err := s.Register(context.Background(), dto.RegisterInput{Email: "not-an-email", Password: testPassword})

	assert.ErrorIs(t, err, autherror.ErrInvalidInput)
	assert.Nil(t, user)
}

func TestUserService_Register_EmailDispatchFailureDoesNotFail(t *testing.T) {
	s, mockRepo, mockTokens, mockMailer := newUserService(t)

	input := dto.RegisterInput{Email: "test@example.com", Password: testPassword}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, nil)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mockTokens.EXPECT().SignVerificationToken(gomock.Any()).Return("verify-token", nil)
	mockMailer.EXPECT().SendVerificationEmail(input.Email, "verify-token").
		Return(errors.New("smtp unreachable"))

	user, err := s.Register(context.Background(), input)

	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	mockRepo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    "ghost@example.com",
		Password: testPassword,
	})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	assert.Nil(t, output)
}

func TestUserService_Login_LockedAccount(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	until := time.Now().Add(10 * time.Minute)
	user := &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: hashFixture(t),
		LockoutUntil: &until,
	}

	// No failure or success transition while locked, and no hint about
	// whether the password was right.
	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: testPassword,
	})

	assert.Nil(t, output)
	locked, ok := autherror.AsAccountLocked(err)
	require.True(t, ok)
	assert.Equal(t, until, locked.Until)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	user := &domain.User{ID: "user-1", Email: "test@example.com", PasswordHash: hashFixture(t)}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().RecordLoginFailure(gomock.Any(), "user-1", 5, 15*time.Minute).
		Return(1, nil, nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	assert.Nil(t, output)
}

func TestUserService_Login_WrongPasswordTriggersLockout(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	user := &domain.User{ID: "user-1", Email: "test@example.com", PasswordHash: hashFixture(t)}
	until := time.Now().Add(15 * time.Minute)

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().RecordLoginFailure(gomock.Any(), "user-1", 5, 15*time.Minute).
		Return(5, &until, nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "wrong-password",
	})

	assert.Nil(t, output)
	locked, ok := autherror.AsAccountLocked(err)
	require.True(t, ok)
	assert.Equal(t, until, locked.Until)
}

func TestUserService_Login_Success(t *testing.T) {
	s, mockRepo, mockTokens, _ := newUserService(t)

	user := &domain.User{ID: "user-1", Email: "test@example.com", PasswordHash: hashFixture(t)}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().ClearLoginFailures(gomock.Any(), "user-1").Return(nil)
	// A new login starts a fresh lineage: all prior sessions die first.
	mockRepo.EXPECT().RevokeAllRefreshTokens(gomock.Any(), "user-1").Return(nil)
	mockTokens.EXPECT().GenerateAccessToken("user-1", user.Email).Return("access-token", nil)
	mockTokens.EXPECT().NewRefreshTokenValue().Return("refresh-value", nil)
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(7 * 24 * time.Hour)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RefreshToken) error {
			assert.Equal(t, "user-1", rt.UserID)
			assert.Equal(t, "refresh-value", rt.Token)
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), rt.ExpiresAt, 5*time.Second)
			return nil
		})

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: testPassword,
	})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "access-token", output.AccessToken)
	assert.Equal(t, "refresh-value", output.RefreshToken)
	assert.False(t, output.RequiresMfa)
	require.NotNil(t, output.User)
	assert.Equal(t, "user-1", output.User.ID)
}

func TestUserService_Login_MfaRequired(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	secret := mfaSecretFixture(t)
	user := &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: hashFixture(t),
		MfaEnabled:   true,
		MfaSecret:    &secret,
	}

	// No token issuance of any kind: the registry stays untouched.
	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().ClearLoginFailures(gomock.Any(), "user-1").Return(nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: testPassword,
	})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.True(t, output.RequiresMfa)
	assert.Equal(t, "user-1", output.UserID)
	assert.Empty(t, output.AccessToken)
	assert.Empty(t, output.RefreshToken)
	assert.Nil(t, output.User)
}

func TestUserService_Login_InvalidMfaToken(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	secret := mfaSecretFixture(t)
	user := &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: hashFixture(t),
		MfaEnabled:   true,
		MfaSecret:    &secret,
	}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().ClearLoginFailures(gomock.Any(), "user-1").Return(nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: testPassword,
		MfaToken: "000000",
	})

	assert.ErrorIs(t, err, autherror.ErrInvalidMfaToken)
	assert.Nil(t, output)
}

func TestUserService_Login_WithValidMfaToken(t *testing.T) {
	s, mockRepo, mockTokens, _ := newUserService(t)

	secret := mfaSecretFixture(t)
	user := &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: hashFixture(t),
		MfaEnabled:   true,
		MfaSecret:    &secret,
	}

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().ClearLoginFailures(gomock.Any(), "user-1").Return(nil)
	mockRepo.EXPECT().RevokeAllRefreshTokens(gomock.Any(), "user-1").Return(nil)
	mockTokens.EXPECT().GenerateAccessToken("user-1", user.Email).Return("access-token", nil)
	mockTokens.EXPECT().NewRefreshTokenValue().Return("refresh-value", nil)
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(7 * 24 * time.Hour)
	mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	output, err := s.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: testPassword,
		MfaToken: code,
	})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "access-token", output.AccessToken)
	assert.False(t, output.RequiresMfa)
}

func mfaSecretFixture(t *testing.T) string {
	t.Helper()
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "CalendarApp", AccountName: "test@example.com"})
	require.NoError(t, err)
	return key.Secret()
}

func TestUserService_Refresh_Success(t *testing.T) {
	s, mockRepo, mockTokens, _ := newUserService(t)

	user := &domain.User{ID: "user-1", Email: "test@example.com"}

	mockTokens.EXPECT().NewRefreshTokenValue().Return("rotated-value", nil)
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(7 * 24 * time.Hour)
	mockRepo.EXPECT().
		RedeemRefreshToken(gomock.Any(), "old-value", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, replacement *domain.RefreshToken) (string, error) {
			assert.Equal(t, "rotated-value", replacement.Token)
			return "user-1", nil
		})
	mockRepo.EXPECT().GetByID(gomock.Any(), "user-1").Return(user, nil)
	mockTokens.EXPECT().GenerateAccessToken("user-1", user.Email).Return("new-access-token", nil)

	tokens, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "old-value"})

	require.NoError(t, err)
	assert.Equal(t, "new-access-token", tokens.AccessToken)
	assert.Equal(t, "rotated-value", tokens.RefreshToken)
}

func TestUserService_Refresh_InvalidToken(t *testing.T) {
	s, mockRepo, mockTokens, _ := newUserService(t)

	mockTokens.EXPECT().NewRefreshTokenValue().Return("rotated-value", nil)
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(7 * 24 * time.Hour)
	mockRepo.EXPECT().RedeemRefreshToken(gomock.Any(), "unknown-value", gomock.Any()).
		Return("", autherror.ErrInvalidOrExpiredToken)

	tokens, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "unknown-value"})

	assert.ErrorIs(t, err, autherror.ErrInvalidOrExpiredToken)
	assert.Nil(t, tokens)
}

func TestUserService_Refresh_EmptyToken(t *testing.T) {
	s, _, _, _ := newUserService(t)

	tokens, err := s.Refresh(context.Background(), dto.RefreshInput{})

	assert.ErrorIs(t, err, autherror.ErrInvalidOrExpiredToken)
	assert.Nil(t, tokens)
}

func TestUserService_Logout(t *testing.T) {
	s, mockRepo, _, _ := newUserService(t)

	t.Run("revokes the presented token", func(t *testing.T) {
		mockRepo.EXPECT().RevokeRefreshToken(gomock.Any(), "some-token").Return(nil)

		assert.NoError(t, s.Logout(context.Background(), "some-token"))
	})

	t.Run("empty token is a no-op", func(t *testing.T) {
		assert.NoError(t, s.Logout(context.Background(), ""))
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	user := &domain.User{ID: "user-1", Email: "test@example.com", PasswordHash: hashFixture(t)}

	t.Run("success revokes all sessions", func(t *testing.T) {
		s, mockRepo, _, _ := newUserService(t)

		mockRepo.EXPECT().GetByID(gomock.Any(), "user-1").Return(user, nil)
		mockRepo.EXPECT().
			UpdateUser(gomock.Any(), "user-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, patch domain.UserPatch) error {
				require.NotNil(t, patch.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*patch.PasswordHash), []byte("NewPass99$")))
				return nil
			})
		mockRepo.EXPECT().RevokeAllRefreshTokens(gomock.Any(), "user-1").Return(nil)

		err := s.ChangePassword(context.Background(), "user-1", dto.ChangePasswordInput{
			CurrentPassword: testPassword,
			NewPassword:     "NewPass99$",
		})
		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		s, mockRepo, _, _ := newUserService(t)

		mockRepo.EXPECT().GetByID(gomock.Any(), "user-1").Return(user, nil)

		err := s.ChangePassword(context.Background(), "user-1", dto.ChangePasswordInput{
			CurrentPassword: "wrong-password",
			NewPassword:     "NewPass99$",
		})
		assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	})

	t.Run("weak new password", func(t *testing.T) {
		s, mockRepo, _, _ := newUserService(t)

		mockRepo.EXPECT().GetByID(gomock.Any(), "user-1").Return(user, nil)

		err := s.ChangePassword(context.Background(), "user-1", dto.ChangePasswordInput{
			CurrentPassword: testPassword,
			NewPassword:     "weak",
		})
		assert.ErrorIs(t, err, autherror.ErrWeakPassword)
	})
}

func TestUserService_VerifyEmail(t *testing.T) {
	s, mockRepo, mockTokens, _ := newUserService(t)

	mockTokens.EXPECT().VerifyVerificationToken("verify-token").Return("user-1", nil)
	mockRepo.EXPECT().
		UpdateUser(gomock.Any(), "user-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch domain.UserPatch) error {
			require.NotNil(t, patch.IsEmailVerified)
			assert.True(t, *patch.IsEmailVerified)
			return nil
		})

	assert.NoError(t, s.VerifyEmail(context.Background(), "verify-token"))
}

func TestUserService_ResendVerification(t *testing.T) {
	t.Run("unknown email responds generically", func(t *testing.T) {
		s, mockRepo, _, _ := newUserService(t)

		mockRepo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, nil)

		assert.NoError(t, s.ResendVerification(context.Background(), "ghost@example.com"))
	})

	t.Run("already verified is a no-op", func(t *testing.T) {
		s, mockRepo, _, _ := newUserService(t)

		mockRepo.EXPECT().GetByEmail(gomock.Any(), "a@x.com").
			Return(&domain.User{ID: "user-1", Email: "a@x.com", IsEmailVerified: true}, nil)

		assert.NoError(t, s.ResendVerification(context.Background(), "a@x.com"))
	})

	t.Run("unverified account gets a new email", func(t *testing.T) {
		s, mockRepo, mockTokens, mockMailer := newUserService(t)

		mockRepo.EXPECT().GetByEmail(gomock.Any(), "a@x.com").
			Return(&domain.User{ID: "user-1", Email: "a@x.com"}, nil)
		mockTokens.EXPECT().SignVerificationToken("user-1").Return("verify-token", nil)
		mockMailer.EXPECT().SendVerificationEmail("a@x.com", "verify-token").Return(nil)

		assert.NoError(t, s.ResendVerification(context.Background(), "a@x.com"))
	})
}
