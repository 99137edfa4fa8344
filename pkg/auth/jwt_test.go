package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT(42, "alice@example.com", testSecret, 24)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(42, "alice@example.com", testSecret, 24)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "a-completely-different-secret-value")
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(42, "alice@example.com", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}
