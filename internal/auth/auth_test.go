package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.GenerateJWT("64f0c0ffee", "ops@acme.in", "company")
	require.NoError(t, err)

	claims, err := m.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "64f0c0ffee", claims.Subject)
	assert.Equal(t, "ops@acme.in", claims.Email)
	assert.Equal(t, "company", claims.Role)
}

func TestParseRejectsBadTokens(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	other, err := NewTokenManager("another-secret", time.Hour).GenerateJWT("id", "a@b.c", "msme")
	require.NoError(t, err)
	_, err = m.ParseJWT(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "id",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.ParseJWT(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
