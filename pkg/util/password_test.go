package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("중개사무소2025")
	require.NoError(t, err)
	assert.NotEqual(t, "중개사무소2025", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)

	again, err := HashPassword("중개사무소2025")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt 가 매번 달라야 한다")
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a1", 40))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("budongsan1")
	require.NoError(t, err)

	cases := map[string]struct {
		hash     string
		password string
		want     bool
	}{
		"match":          {hash, "budongsan1", true},
		"case sensitive": {hash, "Budongsan1", false},
		"empty":          {hash, "", false},
		"malformed hash": {"not-a-bcrypt-hash", "budongsan1", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, VerifyPassword(tc.hash, tc.password))
		})
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "letters and digits", password: "budongsan1", wantErr: false},
		{name: "korean letters count", password: "부동산중개사무소12", wantErr: false},
		{name: "too short", password: "abc123", wantErr: true},
		{name: "digits only", password: "12345678", wantErr: true},
		{name: "letters only", password: "abcdefgh", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
