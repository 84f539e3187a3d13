package security_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{BcryptCost: 4}

	hash, err := security.HashPassword("very-secure-password", cfg)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "very-secure-password", hash)

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", config.PasswordConfig{BcryptCost: 4})
	require.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	ok, err := security.VerifyPassword("secret", "not-a-hash")
	require.Error(t, err)
	require.False(t, ok)
}
