package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxPasswordBytes  = 72
)

// TokenIssuer is the part of the token codec the service needs.
type TokenIssuer interface {
	jwtx.Issuer
	TTL() time.Duration
}

// LoginResult is what a successful Login hands back to the transport.
type LoginResult struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

type AuthService struct {
	Store  store.Store
	Tokens TokenIssuer

	// StartingBalance is credited to every new account.
	StartingBalance domain.Cents

	// Limiter throttles repeated failed logins per username. Nil disables it.
	Limiter AttemptLimiter

	// Now defaults to time.Now.
	Now func() time.Time
}

// fallbackDummyHash is a well-formed cost 12 bcrypt hash. It stands in
// when a dummy hash cannot be built, so the comparison still runs the full
// key schedule instead of failing on a malformed hash.
const fallbackDummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

var (
	dummyMu   sync.Mutex
	dummyHash string

	hashPassword = cryptox.HashPassword
)

// dummyPasswordHash returns a real hash under the current pepper and cost,
// so comparing against it costs the same as comparing against a stored one.
// Only a successful hash is cached.
func dummyPasswordHash() string {
	dummyMu.Lock()
	defer dummyMu.Unlock()

	if dummyHash != "" {
		return dummyHash
	}

	h, err := hashPassword(cryptox.MustRandomSecret(cryptox.SecretSize128))
	if err != nil {
		slog.Error("failed to build dummy password hash, using fallback", slog.Any("err", err))
		return fallbackDummyHash
	}
	dummyHash = h
	return dummyHash
}

// Register creates an account. Uniqueness is left to the store's constraint,
// so two concurrent registrations for one username yield exactly one user.
func (s *AuthService) Register(ctx context.Context, username, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if err := validateUsername(username); err != nil {
		return domain.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("err", err))
		return domain.User{}, err
	}

	now := s.now()
	user, err := s.Store.Users().CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		Balance:      s.StartingBalance,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		l.Info("registration rejected, username taken")
		return domain.User{}, ErrUserAlreadyExists
	case err != nil:
		l.Error("failed to create user", slog.Any("err", err))
		return domain.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	l.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Authenticate checks a username and password. Matching is exact and case
// sensitive. A missing user and a wrong password return the same error after
// the same amount of bcrypt work.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = cryptox.VerifyPassword(password, dummyPasswordHash())
		return domain.User{}, ErrInvalidCredentials
	case err != nil:
		slogx.FromContext(ctx).Error("failed to load user", slog.Any("err", err))
		return domain.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a token whose subject is the username.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	limiter := s.limiter()

	if err := limiter.Check(ctx, username); err != nil {
		l.Warn("login blocked, too many failed attempts")
		return LoginResult{}, err
	}

	user, err := s.Authenticate(ctx, username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		limiter.RecordFailure(ctx, username)
		l.Info("login failed")
		return LoginResult{}, err
	}
	if err != nil {
		return LoginResult{}, err
	}
	limiter.Reset(ctx, username)

	issuedAt := s.now()
	token, err := s.Tokens.Issue(user.Username)
	if err != nil {
		l.Error("failed to issue token", slog.Any("err", err))
		return LoginResult{}, err
	}

	ttl := s.Tokens.TTL()
	l.Info("login succeeded", slog.Int64("user_id", user.ID))
	return LoginResult{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: issuedAt.Add(ttl),
		ExpiresIn: ttl,
	}, nil
}

// GetUserByUsername resolves the subject of a verified token.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return user, err
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) limiter() AttemptLimiter {
	if s.Limiter == nil {
		return NoopAttemptLimiter{}
	}
	return s.Limiter
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return &ValidationError{Message: fmt.Sprintf("Username must be between %d and %d characters",
			MinUsernameLength, MaxUsernameLength)}
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '-':
		default:
			return &ValidationError{Message: "Username may only contain letters, digits, '_', '.' and '-'"}
		}
	}
	return nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return &ValidationError{Message: "Password must not be blank"}
	}
	if len(password) > MaxPasswordBytes {
		return &ValidationError{Message: fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes)}
	}
	return nil
}
