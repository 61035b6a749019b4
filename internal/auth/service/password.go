package service

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
	"github.com/razorvilla/calendar-app-sub001/pkg/constant"
)

// PasswordHasher wraps the one-way credential hash. bcrypt embeds its own
// salt and cost in the encoded hash.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A malformed
// stored hash is a data-integrity problem and comes back as an error rather
// than a plain mismatch.
func (h *PasswordHasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}

	return false, fmt.Errorf("malformed password hash: %w", err)
}

// ValidatePassword enforces the complexity rule shared by registration,
// password reset and change-password.
func ValidatePassword(password string) error {
	if len(password) < constant.PasswordMinLength {
		return autherror.ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return autherror.ErrWeakPassword
	}

	return nil
}
