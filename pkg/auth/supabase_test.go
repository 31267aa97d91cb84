package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func userClaims(sub string, expiresIn time.Duration) Claims {
	return Claims{
		Email: "jana@example.cz",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerify_Valid(t *testing.T) {
	v := NewVerifier(testSecret)
	token := sign(t, testSecret, jwt.SigningMethodHS256, userClaims("8d0f6a0e-user", time.Hour))

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "8d0f6a0e-user", claims.UserID())
	assert.Equal(t, "jana@example.cz", claims.Email)
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier(testSecret)

	anon := userClaims("", time.Hour)
	anon.Role = "anon"
	wrongAudience := userClaims("u1", time.Hour)
	wrongAudience.Audience = jwt.ClaimStrings{"service"}

	tests := []struct {
		name  string
		token string
		err   error
	}{
		{"expired", sign(t, testSecret, jwt.SigningMethodHS256, userClaims("u1", -time.Minute)), ErrExpiredToken},
		{"wrong secret", sign(t, "another-secret-another-secret-000", jwt.SigningMethodHS256, userClaims("u1", time.Hour)), ErrInvalidToken},
		{"wrong method", sign(t, testSecret, jwt.SigningMethodHS512, userClaims("u1", time.Hour)), ErrInvalidToken},
		{"no subject", sign(t, testSecret, jwt.SigningMethodHS256, anon), ErrInvalidToken},
		{"audience", sign(t, testSecret, jwt.SigningMethodHS256, wrongAudience), ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestVerify_Disabled(t *testing.T) {
	v := NewVerifier("")
	assert.False(t, v.Enabled())
	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(r))

	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", ExtractToken(r))
}
