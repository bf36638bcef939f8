package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HS256 secret NewCodec accepts. RFC 7518
// asks for a key at least as long as the hash output.
const MinSecretLength = 32

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrWeakSecret  = errors.New("jwtx: signing secret too short")
	ErrInvalidTTL  = errors.New("jwtx: token ttl must not be negative")
	ErrNoSubject   = errors.New("jwtx: subject is required")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
)

// Issuer turns a subject into a signed token.
type Issuer interface {
	Issue(subject string) (string, error)
}

// Verifier checks a token and gives back its subject.
type Verifier interface {
	Verify(token string) (string, error)
}

// Codec issues and verifies HS256 tokens with one shared secret. The secret
// is copied at construction and never changes, so a Codec can be shared by
// any number of goroutines.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// Option tweaks a Codec at construction.
type Option func(*Codec)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) { c.ttl = ttl }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec around secret.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretLength, len(secret))
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl < 0 {
		return nil, ErrInvalidTTL
	}

	// Claims are checked by hand after the signature so the codec's clock
	// is the only one that matters.
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	return c, nil
}

// TTL is the validity window applied by Issue.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a fresh token for subject.
func (c *Codec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrNoSubject
	}

	claims := NewClaims(subject, c.ttl, c.now().UTC())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify checks the signature first and only then looks at the claims.
// Every failure is ErrMalformed except a good signature with a passed
// expiry, which is ErrExpired.
func (c *Codec) Verify(tokenStr string) (string, error) {
	claims, err := c.Parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Parse is Verify returning the full claims.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	token, err := c.parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// WithValidMethods already pins the alg, this guards the key type.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	if err := claims.ValidateSubject(); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiry(c.now()); err != nil {
		return nil, err
	}

	return claims, nil
}
