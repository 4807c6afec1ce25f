// internal/pkg/auth/password_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sitestock-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testPasswordManager() *PasswordManager {
	return NewPasswordManager(&config.Config{
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	pm := testPasswordManager()

	hash, err := pm.HashPassword("warehouse42")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "warehouse42", hash)

	assert.NoError(t, pm.VerifyPassword("warehouse42", hash))
	assert.Error(t, pm.VerifyPassword("warehouse43", hash))
}

func TestValidatePassword(t *testing.T) {
	pm := testPasswordManager()

	assert.NoError(t, pm.ValidatePassword("abcdefg1"))

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "abc1"},
		{"no number", "abcdefgh"},
		{"no letter", "12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, pm.ValidatePassword(tt.password))
		})
	}
}

func TestHashPasswordRejectsWeakPassword(t *testing.T) {
	pm := testPasswordManager()

	_, err := pm.HashPassword("short")
	assert.Error(t, err)
}
