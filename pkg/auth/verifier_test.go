package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyExtractsClaims(t *testing.T) {
	userID := uuid.New()
	v := NewJWTVerifier(testSecret, "idp.salesdeck.io", "crm-api")

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "rep@salesdeck.io",
		"role":  "rep",
		"iss":   "idp.salesdeck.io",
		"aud":   "crm-api",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "rep@salesdeck.io", claims.Email)
	assert.Equal(t, "rep", claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewJWTVerifier(testSecret, "", "")

	token := signToken(t, "some-other-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, "", "")

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	v := NewJWTVerifier(testSecret, "idp.salesdeck.io", "")

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": uuid.New().String(),
		"iss": "somewhere-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsNonUUIDSubject(t *testing.T) {
	v := NewJWTVerifier(testSecret, "", "")

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	assert.Error(t, err)
}
