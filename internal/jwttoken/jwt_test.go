package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatehouse/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gatehouse", time.Hour)

	token, err := svc.GenerateAccessToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "gatehouse", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gatehouse", -time.Minute)

	token, err := svc.GenerateAccessToken(42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("key-one", "gatehouse", time.Hour)
	verifier := NewJWTService("key-two", "gatehouse", time.Hour)

	token, err := issuer.GenerateAccessToken(42)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsNonHMACAlgorithm(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gatehouse", time.Hour)

	// alg=none token with a plausible payload
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gatehouse", time.Hour)
	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
