package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := VerifyToken(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestVerifyTokenRejectsWrongSignature(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": float64(42),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": float64(42),
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secretKey())
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsMissingSubject(t *testing.T) {
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secretKey())
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
