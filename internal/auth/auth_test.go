package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := NewKeys(privateKey, &privateKey.PublicKey)
	require.NoError(t, err)
	return keys
}

func TestNewKeysRequiresBoth(t *testing.T) {
	_, err := NewKeys(nil, nil)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	keys := testKeys(t)

	issued := NewUserClaims("user-42", []string{RoleUser}, time.Hour)
	tokenStr, err := keys.GenerateToken(issued)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := keys.ValidateToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, []string{RoleUser}, claims.Roles)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	keys := testKeys(t)

	expired := NewUserClaims("user-42", []string{RoleUser}, -time.Minute)
	tokenStr, err := keys.GenerateToken(expired)
	require.NoError(t, err)

	_, err = keys.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	signer := testKeys(t)
	verifier := testKeys(t)

	tokenStr, err := signer.GenerateToken(NewUserClaims("user-42", []string{RoleUser}, time.Hour))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	keys := testKeys(t)
	_, err := keys.ValidateToken("not.a.token")
	assert.Error(t, err)
}
