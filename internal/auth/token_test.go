package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	token, expiresAt, err := tm.GenerateToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, SubjectAdmin, claims.Subject)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 30).GenerateToken()
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 30).ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := NewTokenManager("secret", 30).ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hashed, "hunter2"))
	assert.Error(t, ComparePassword(hashed, "wrong"))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hashed, err := HashPassword("hunter2", 0)
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hashed, "hunter2"))

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
