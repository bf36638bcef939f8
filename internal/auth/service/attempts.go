package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

const (
	DefaultMaxLoginFailures = 5
	DefaultLoginLockout     = 15 * time.Minute

	loginFailureKeyPrefix = "tabauth:login_failures:"
)

// AttemptLimiter tracks failed logins per username.
type AttemptLimiter interface {
	// Check returns ErrTooManyAttempts while username is locked out.
	Check(ctx context.Context, username string) error
	RecordFailure(ctx context.Context, username string)
	Reset(ctx context.Context, username string)
}

// NoopAttemptLimiter never locks anyone out.
type NoopAttemptLimiter struct{}

func (NoopAttemptLimiter) Check(context.Context, string) error   { return nil }
func (NoopAttemptLimiter) RecordFailure(context.Context, string) {}
func (NoopAttemptLimiter) Reset(context.Context, string)         {}

// RedisAttemptLimiter counts failures in Redis so every replica shares the
// same view. The window starts at the first failure and is not extended by
// later ones. Redis errors are logged and the login is let through; the per
// IP limiter in front of the handler still applies.
type RedisAttemptLimiter struct {
	client      *redis.Client
	maxFailures int64
	lockout     time.Duration
}

func NewRedisAttemptLimiter(client *redis.Client, maxFailures int, lockout time.Duration) *RedisAttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxLoginFailures
	}
	if lockout <= 0 {
		lockout = DefaultLoginLockout
	}
	return &RedisAttemptLimiter{
		client:      client,
		maxFailures: int64(maxFailures),
		lockout:     lockout,
	}
}

func (l *RedisAttemptLimiter) Check(ctx context.Context, username string) error {
	count, err := l.client.Get(ctx, failureKey(username)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		slogx.FromContext(ctx).Warn("login throttle unavailable", slog.Any("err", err))
		return nil
	}

	if count >= l.maxFailures {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure counts one failed login. The key is created with its expiry
// and incremented in one MULTI, so a counter never exists without a TTL.
func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, username string) {
	key := failureKey(username)

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.lockout)
		pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to record login failure", slog.Any("err", err))
	}
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, username string) {
	if err := l.client.Del(ctx, failureKey(username)).Err(); err != nil {
		slogx.FromContext(ctx).Warn("failed to reset login failures", slog.Any("err", err))
	}
}

// Ping reports whether Redis is reachable, for readiness checks.
func (l *RedisAttemptLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Usernames are fingerprinted so raw names never land in Redis.
func failureKey(username string) string {
	return loginFailureKeyPrefix + cryptox.Fingerprint(username)
}
