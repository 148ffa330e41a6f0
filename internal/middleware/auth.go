package middleware

import (
	"errors"
	"fmt"
	"time"

	"hearth/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenVerifier validates HS256 bearer tokens issued by the identity system.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenVerifier creates a verifier. Empty issuer or audience skips that check.
func NewTokenVerifier(secret, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

// Verify parses tokenString and returns the user id from its subject claim.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	// Only HS256 is accepted; issuer and audience are checked when configured
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	// Parse and validate token
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", models.NewUnauthorizedError("Invalid subject claim")
	}
	if err := models.ValidateUserID(claims.Subject); err != nil {
		return "", models.NewUnauthorizedError("Invalid user ID in token")
	}
	return claims.Subject, nil
}

// Issue signs a token for userID. It serves local tooling and tests; in
// production tokens come from the identity system.
func (v *TokenVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return "", err
	}
	if len(v.secret) == 0 {
		return "", errors.New("signing secret is empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
