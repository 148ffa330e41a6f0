package middleware

import (
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier(testSecret, "hearth-auth", "hearth-client")

	token, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier(testSecret, "hearth-auth", "hearth-client")

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func(sub string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "hearth-auth",
			Audience:  jwt.ClaimStrings{"hearth-client"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	expired := valid("alice")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid("alice")
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid("alice")
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", sign(valid("alice"), jwt.SigningMethodHS256, []byte("another-secret"))},
		{"expired", sign(expired, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong audience", sign(wrongAudience, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong algorithm", sign(valid("alice"), jwt.SigningMethodHS512, []byte(testSecret))},
		{"empty subject", sign(valid(""), jwt.SigningMethodHS256, []byte(testSecret))},
		{"subject with separator", sign(valid("a--b"), jwt.SigningMethodHS256, []byte(testSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.Equal(t, models.CodeUnauthorized, models.CodeOf(err))
		})
	}
}

func TestTokenVerifier_OptionalIssuerAudience(t *testing.T) {
	lenient := NewTokenVerifier(testSecret, "", "")
	token, err := NewTokenVerifier(testSecret, "anyone", "anything").Issue("bob", time.Hour)
	require.NoError(t, err)

	userID, err := lenient.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", userID)
}

func TestTokenVerifier_IssueValidatesUser(t *testing.T) {
	v := NewTokenVerifier(testSecret, "", "")
	_, err := v.Issue(" padded ", time.Hour)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = NewTokenVerifier("", "", "").Issue("alice", time.Hour)
	assert.Error(t, err)
}
