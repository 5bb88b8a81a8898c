package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Policy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "short", ErrPasswordTooShort},
		{"one below minimum", strings.Repeat("x", MinPasswordLength-1), ErrPasswordTooShort},
		{"exactly minimum", strings.Repeat("x", MinPasswordLength), nil},
		{"bcrypt limit", strings.Repeat("x", 72), nil},
		{"over bcrypt limit", strings.Repeat("x", 73), ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, bcrypt.MinCost)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("circulation desk", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword("circulation desk", hash))
	assert.ErrorIs(t, CheckPassword("Circulation desk", hash), ErrInvalidPassword)
	assert.Error(t, CheckPassword("circulation desk", "not-a-hash"))
}

func TestGenerateAPIToken(t *testing.T) {
	token, hash, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, HashToken(token), hash)
	assert.NotEqual(t, token, hash)

	other, _, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateSessionSecret(t *testing.T) {
	a, err := GenerateSessionSecret()
	require.NoError(t, err)
	b, err := GenerateSessionSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
