package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("Abc12345!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Abc12345!", hash)

	ok, err := hasher.Verify("Abc12345!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_Verify_MalformedHash(t *testing.T) {
	hasher := NewPasswordHasher()

	_, err := hasher.Verify("Abc12345!", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "valid password", password: "Abc12345!", valid: true},
		{name: "too short", password: "Ab1!", valid: false},
		{name: "missing uppercase", password: "abc12345!", valid: false},
		{name: "missing lowercase", password: "ABC12345!", valid: false},
		{name: "missing digit", password: "Abcdefgh!", valid: false},
		{name: "missing symbol", password: "Abc123456", valid: false},
		{name: "empty", password: "", valid: false},
		{name: "all character classes at minimum length", password: "aB3$efgh", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, autherror.ErrWeakPassword)
			}
		})
	}
}
