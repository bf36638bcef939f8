package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the validity window of an issued access token.
const DefaultTokenTTL = 2 * time.Hour

// Claims are the access-token claims. Only sub, iat and exp carry meaning;
// jti is there so individual tokens can be told apart in logs.
type Claims struct {
	jwt.RegisteredClaims
}

// NewClaims builds the claims for subject, valid from now for ttl.
func NewClaims(subject string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateExpiry reports ErrExpired unless now is strictly before exp.
// A token without exp is treated as malformed, never as eternal.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrMalformed
	}

	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}

	return nil
}

// ValidateSubject ensures the token names someone.
func (c *Claims) ValidateSubject() error {
	if c.Subject == "" {
		return ErrMalformed
	}
	return nil
}
