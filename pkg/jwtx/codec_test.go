package jwtx_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	testSecret  = []byte("0123456789abcdef0123456789abcdef")
	otherSecret = []byte("fedcba9876543210fedcba9876543210")
)

// fakeClock is a settable clock for codec tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func TestNewCodec(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := jwtx.NewCodec([]byte("too-short"))
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		_, err := jwtx.NewCodec(testSecret, jwtx.WithTTL(-time.Second))
		require.ErrorIs(t, err, jwtx.ErrInvalidTTL)
	})

	t.Run("defaults to two hours", func(t *testing.T) {
		c, err := jwtx.NewCodec(testSecret)
		require.NoError(t, err)
		require.Equal(t, 2*time.Hour, c.TTL())
	})

	t.Run("secret is copied", func(t *testing.T) {
		secret := append([]byte(nil), testSecret...)
		c, err := jwtx.NewCodec(secret)
		require.NoError(t, err)

		token, err := c.Issue("alice")
		require.NoError(t, err)

		// Mutating the caller's slice must not affect verification.
		secret[0] ^= 0xff
		sub, err := c.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "alice", sub)
	})
}

func TestIssueAndVerify(t *testing.T) {
	c, err := jwtx.NewCodec(testSecret)
	require.NoError(t, err)

	subjects := []string{"alice", "bob", "user.name-with_symbols", "ünïcödé"}
	for _, sub := range subjects {
		t.Run(sub, func(t *testing.T) {
			token, err := c.Issue(sub)
			require.NoError(t, err)
			require.Len(t, strings.Split(token, "."), 3)

			got, err := c.Verify(token)
			require.NoError(t, err)
			require.Equal(t, sub, got)
		})
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	c, err := jwtx.NewCodec(testSecret)
	require.NoError(t, err)

	_, err = c.Issue("")
	require.ErrorIs(t, err, jwtx.ErrNoSubject)
}

func TestIssuedClaims(t *testing.T) {
	clock := newClock()
	c, err := jwtx.NewCodec(testSecret, jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	token, err := c.Issue("alice")
	require.NoError(t, err)

	claims, err := c.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.True(t, clock.Now().Equal(claims.IssuedAt.Time))
	require.True(t, clock.Now().Add(2*time.Hour).Equal(claims.ExpiresAt.Time))
	require.NotEmpty(t, claims.ID)

	other, err := c.Issue("alice")
	require.NoError(t, err)
	otherClaims, err := c.Parse(other)
	require.NoError(t, err)
	require.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestVerifyExpiry(t *testing.T) {
	clock := newClock()
	c, err := jwtx.NewCodec(testSecret, jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	token, err := c.Issue("alice")
	require.NoError(t, err)

	clock.Advance(2*time.Hour - time.Second)
	sub, err := c.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", sub)

	// Valid only while now < exp, so exactly at exp it is gone.
	clock.Advance(time.Second)
	_, err = c.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	clock.Advance(time.Hour)
	_, err = c.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyZeroTTLIsExpired(t *testing.T) {
	c, err := jwtx.NewCodec(testSecret, jwtx.WithTTL(0))
	require.NoError(t, err)

	token, err := c.Issue("alice")
	require.NoError(t, err)

	_, err = c.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	clock := newClock()
	issuer, err := jwtx.NewCodec(otherSecret, jwtx.WithClock(clock.Now))
	require.NoError(t, err)
	verifier, err := jwtx.NewCodec(testSecret, jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)

	// A foreign token must stay malformed even once it would have expired,
	// its claims are never looked at.
	clock.Advance(3 * time.Hour)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
	require.NotErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsForgedExpiry(t *testing.T) {
	clock := newClock()
	c, err := jwtx.NewCodec(testSecret, jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	token, err := c.Issue("alice")
	require.NoError(t, err)

	// Swap in a payload with a far-future exp but keep the old signature.
	forged := jwtx.NewClaims("alice", 24*365*time.Hour, clock.Now())
	forgedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString(otherSecret)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forgedToken, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = c.Verify(tampered)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestVerifyMalformed(t *testing.T) {
	clock := newClock()
	c, err := jwtx.NewCodec(testSecret, jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	sign := func(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	now := clock.Now()
	good := sign(t, jwt.SigningMethodHS256, jwtx.NewClaims("alice", time.Hour, now), testSecret)
	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"two segments":   "abc.def",
		"bad base64":     "!!!.@@@.###",
		"alg none":       sign(t, jwt.SigningMethodNone, jwtx.NewClaims("alice", time.Hour, now), jwt.UnsafeAllowNoneSignatureType),
		"alg hs384":      sign(t, jwt.SigningMethodHS384, jwtx.NewClaims("alice", time.Hour, now), testSecret),
		"missing sub":    sign(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}, testSecret),
		"missing exp":    sign(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}, testSecret),
		"truncated sig":  good[:len(good)-5],
		"trailing space": good + " x",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(token)
			require.ErrorIs(t, err, jwtx.ErrMalformed)
		})
	}
}

func TestCodecConcurrentUse(t *testing.T) {
	c, err := jwtx.NewCodec(testSecret)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := "user" + strings.Repeat("x", i%7)
			token, err := c.Issue(sub)
			if err != nil {
				errs <- err
				return
			}
			got, err := c.Verify(token)
			if err != nil {
				errs <- err
				return
			}
			if got != sub {
				errs <- jwtx.ErrMalformed
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
