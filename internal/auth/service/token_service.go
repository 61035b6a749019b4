package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/razorvilla/calendar-app-sub001/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
	"github.com/razorvilla/calendar-app-sub001/pkg/constant"
)

const (
	purposePasswordReset = "password_reset"
	purposeEmailVerify   = "email_verify"
)

// TokenGenerator is the stateless token component. Access tokens are pure
// functions of the signing key; refresh tokens are opaque random values the
// caller must persist, because only store-backed tokens can be revoked.
type TokenGenerator interface {
	GenerateAccessToken(userID, email string) (string, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	NewRefreshTokenValue() (string, error)
	GetRefreshTokenExpiry() time.Duration
	SignResetToken(userID string) (string, error)
	VerifyResetToken(tokenString string) (string, error)
	GetResetTokenExpiry() time.Duration
	SignVerificationToken(userID string) (string, error)
	VerifyVerificationToken(tokenString string) (string, error)
}

type TokenService struct {
	AccessTokenSecret  string
	ResetTokenSecret   string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	ResetTokenExpiry   time.Duration
	VerifyTokenExpiry  time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

func NewTokenService(accessSecret, resetSecret string, accessMinutes, refreshMinutes, resetMinutes, verifyMinutes int) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		ResetTokenSecret:   resetSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshMinutes) * time.Minute,
		ResetTokenExpiry:   time.Duration(resetMinutes) * time.Minute,
		VerifyTokenExpiry:  time.Duration(verifyMinutes) * time.Minute,
	}
}

func (ts *TokenService) GenerateAccessToken(userID, email string) (string, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.AccessTokenSecret, "")
}

// NewRefreshTokenValue returns a fresh opaque refresh token value. The value
// carries no claims; validity is decided by the stored row alone.
func (ts *TokenService) NewRefreshTokenValue() (string, error) {
	raw := make([]byte, constant.RefreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}

func (ts *TokenService) SignResetToken(userID string) (string, error) {
	return ts.signPurpose(userID, purposePasswordReset, ts.ResetTokenExpiry)
}

// VerifyResetToken returns the owning user ID for a valid reset token. The
// caller must still check the persisted row; the signature alone does not
// make the token redeemable.
func (ts *TokenService) VerifyResetToken(tokenString string) (string, error) {
	claims, err := ts.verify(tokenString, ts.ResetTokenSecret, purposePasswordReset)
	if err != nil {
		return "", err
	}

	return claims.UserID, nil
}

func (ts *TokenService) GetResetTokenExpiry() time.Duration {
	return ts.ResetTokenExpiry
}

func (ts *TokenService) SignVerificationToken(userID string) (string, error) {
	return ts.signPurpose(userID, purposeEmailVerify, ts.VerifyTokenExpiry)
}

func (ts *TokenService) VerifyVerificationToken(tokenString string) (string, error) {
	claims, err := ts.verify(tokenString, ts.ResetTokenSecret, purposeEmailVerify)
	if err != nil {
		return "", err
	}

	return claims.UserID, nil
}

func (ts *TokenService) signPurpose(userID, purpose string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.ResetTokenSecret))
}

func (ts *TokenService) verify(tokenString, secret, purpose string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidOrExpiredToken
	}

	if claims.Purpose != purpose {
		return nil, autherror.ErrInvalidOrExpiredToken
	}

	return claims, nil
}
