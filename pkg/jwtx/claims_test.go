package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Minute)),
			},
		}
		require.NoError(t, claims.ValidateExpiry(now))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrExpired)
	})

	t.Run("expires exactly now", func(t *testing.T) {
		exp := now.Truncate(time.Second)
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(exp), jwtx.ErrExpired)
	})

	t.Run("no exp", func(t *testing.T) {
		claims := &jwtx.Claims{}
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrMalformed)
	})
}

func TestValidateSubject(t *testing.T) {
	require.ErrorIs(t, (&jwtx.Claims{}).ValidateSubject(), jwtx.ErrMalformed)

	c := jwtx.NewClaims("alice", time.Minute, time.Now())
	require.NoError(t, c.ValidateSubject())
}

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := jwtx.NewClaims("alice", 90*time.Minute, now)

	require.Equal(t, "alice", c.Subject)
	require.True(t, now.Equal(c.IssuedAt.Time))
	require.True(t, now.Add(90*time.Minute).Equal(c.ExpiresAt.Time))
	require.NotEmpty(t, c.ID)
	require.Empty(t, c.Issuer)
	require.Empty(t, c.Audience)
}
