// Package storetest holds behaviour tests every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a migrated, empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.Store

// RunUsers exercises the Users repository of the store built by newStore.
func RunUsers(t *testing.T, newStore Factory) {
	t.Run("create and get", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("not found", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("case sensitive", func(t *testing.T) { testCaseSensitive(t, newStore(t)) })
	t.Run("duplicate", func(t *testing.T) { testDuplicate(t, newStore(t)) })
	t.Run("concurrent duplicates", func(t *testing.T) { testConcurrentDuplicates(t, newStore(t)) })
	t.Run("length constraint", func(t *testing.T) { testLengthConstraint(t, newStore(t)) })
	t.Run("migrations idempotent", func(t *testing.T) {
		st := newStore(t)
		require.NoError(t, st.ApplyMigrations())
		require.NoError(t, st.Ping(context.Background()))
	})
}

func testCreateAndGet(t *testing.T, st store.Store) {
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	created, err := st.Users().CreateUser(ctx, domain.User{
		Username:     "alice",
		PasswordHash: "$2a$04$hash",
		Balance:      domain.DefaultStartingBalance,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.CreatedAt.After(before))

	byName, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)
	require.Equal(t, "$2a$04$hash", byName.PasswordHash)
	require.Equal(t, domain.Cents(10000), byName.Balance)
	require.WithinDuration(t, created.CreatedAt, byName.CreatedAt, time.Millisecond)

	second, err := st.Users().CreateUser(ctx, domain.User{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEqual(t, created.ID, second.ID)
}

func testNotFound(t *testing.T, st store.Store) {
	ctx := context.Background()

	_, err := st.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Users().GetUserByUsername(ctx, "")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testCaseSensitive(t *testing.T, st store.Store) {
	ctx := context.Background()

	_, err := st.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = st.Users().GetUserByUsername(ctx, "ALICE")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicate(t *testing.T, st store.Store) {
	ctx := context.Background()

	first, err := st.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = st.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h2"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// The original row is untouched.
	got, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, "h1", got.PasswordHash)
}

func testConcurrentDuplicates(t *testing.T, st store.Store) {
	ctx := context.Background()

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
		other   []error
	)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.Users().CreateUser(ctx, domain.User{
				Username:     "race",
				PasswordHash: fmt.Sprintf("h%d", i),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, store.ErrAlreadyExists):
				dupes++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, other)
	require.Equal(t, 1, created)
	require.Equal(t, n-1, dupes)
}

func testLengthConstraint(t *testing.T, st store.Store) {
	ctx := context.Background()

	_, err := st.Users().CreateUser(ctx, domain.User{Username: "ab", PasswordHash: "h"})
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrAlreadyExists)
}
