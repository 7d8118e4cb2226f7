// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayerToken(t *testing.T) {
	SetJWTSecret("relayer-test-secret")

	token, err := GenerateRelayerToken("indexer", 1)
	require.NoError(t, err)

	claims, err := ValidateRelayerToken(token)
	require.NoError(t, err)
	assert.Equal(t, "indexer", claims.Subject)
	assert.Equal(t, RoleRelayer, claims.Role)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestRelayerTokenRejected(t *testing.T) {
	SetJWTSecret("relayer-test-secret")

	expired, err := GenerateRelayerToken("indexer", -1)
	require.NoError(t, err)
	_, err = ValidateRelayerToken(expired)
	assert.Error(t, err)

	SetJWTSecret("other-secret")
	forged, err := GenerateRelayerToken("indexer", 1)
	require.NoError(t, err)
	SetJWTSecret("relayer-test-secret")
	_, err = ValidateRelayerToken(forged)
	assert.Error(t, err)

	// Correct signature, wrong role
	userToken := jwt.NewWithClaims(jwt.SigningMethodHS256, RelayerClaims{Role: "user"})
	signed, err := userToken.SignedString([]byte("relayer-test-secret"))
	require.NoError(t, err)
	_, err = ValidateRelayerToken(signed)
	assert.Error(t, err)
}
