package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, maxFailures int, lockout time.Duration) (*RedisAttemptLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisAttemptLimiter(client, maxFailures, lockout), mr
}

func TestRedisAttemptLimiter_LocksOut(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newRedisLimiter(t, 3, time.Minute)

	for range 3 {
		require.NoError(t, limiter.Check(ctx, "alice"))
		limiter.RecordFailure(ctx, "alice")
	}
	require.ErrorIs(t, limiter.Check(ctx, "alice"), ErrTooManyAttempts)

	// Other usernames are unaffected.
	require.NoError(t, limiter.Check(ctx, "bob"))
}

func TestRedisAttemptLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, 2, time.Minute)

	limiter.RecordFailure(ctx, "alice")
	mr.FastForward(30 * time.Second)
	limiter.RecordFailure(ctx, "alice")
	require.ErrorIs(t, limiter.Check(ctx, "alice"), ErrTooManyAttempts)

	// The window is anchored at the first failure.
	require.Equal(t, 30*time.Second, mr.TTL(failureKey("alice")))

	mr.FastForward(31 * time.Second)
	require.NoError(t, limiter.Check(ctx, "alice"))
}

func TestRedisAttemptLimiter_CounterAlwaysExpires(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, 5, time.Minute)
	key := failureKey("alice")

	limiter.RecordFailure(ctx, "alice")
	require.Equal(t, time.Minute, mr.TTL(key))
	got, err := mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "1", got)

	// Later failures add to the count without moving the expiry.
	mr.FastForward(10 * time.Second)
	limiter.RecordFailure(ctx, "alice")
	require.Equal(t, 50*time.Second, mr.TTL(key))
	got, err = mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "2", got)

	// Once the window lapses the next failure opens a fresh one.
	mr.FastForward(51 * time.Second)
	require.False(t, mr.Exists(key))
	limiter.RecordFailure(ctx, "alice")
	require.Equal(t, time.Minute, mr.TTL(key))
}

func TestRedisAttemptLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, 1, time.Minute)

	limiter.RecordFailure(ctx, "alice")
	require.ErrorIs(t, limiter.Check(ctx, "alice"), ErrTooManyAttempts)

	limiter.Reset(ctx, "alice")
	require.NoError(t, limiter.Check(ctx, "alice"))
	require.False(t, mr.Exists(failureKey("alice")))
}

func TestRedisAttemptLimiter_KeysAreFingerprinted(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, 5, time.Minute)

	limiter.RecordFailure(ctx, "alice")

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.NotContains(t, keys[0], "alice")
}

func TestRedisAttemptLimiter_FailsOpen(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRedisAttemptLimiter(client, 1, time.Minute)

	limiter.RecordFailure(ctx, "alice")
	mr.Close()

	require.NoError(t, limiter.Check(ctx, "alice"))
	require.Error(t, limiter.Ping(ctx))
}

func TestNewRedisAttemptLimiter_Defaults(t *testing.T) {
	limiter := NewRedisAttemptLimiter(nil, 0, 0)
	require.Equal(t, int64(DefaultMaxLoginFailures), limiter.maxFailures)
	require.Equal(t, DefaultLoginLockout, limiter.lockout)
}

func TestLogin_RedisLimiter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	limiter, _ := newRedisLimiter(t, 2, time.Minute)
	svc.Limiter = limiter

	_, err := svc.Register(ctx, "alice", "secret123")
	require.NoError(t, err)

	for range 2 {
		_, err = svc.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = svc.Login(ctx, "alice", "secret123")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}
