package auth_test

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
)

// TestRegisterLoginMe walks the happy path: register, log in, call a
// protected endpoint with the token.
func TestRegisterLoginMe(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	user, password := registerUser(t, client, "alice")
	require.Equal(t, "100.00", user.Balance)

	login := loginUser(t, client, "alice", password)
	require.Equal(t, user.ID, login.UserID)

	me, err := client.Me(t.Context(), login.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, "alice", me.Username)
	require.Equal(t, "100.00", me.Balance)
}

// TestStartingBalanceConfigurable verifies AUTH_STARTING_BALANCE reaches new accounts.
func TestStartingBalanceConfigurable(t *testing.T) {
	baseURL := setupAuthContainer(t, withEnv(map[string]string{"AUTH_STARTING_BALANCE": "42.50"}))
	client := authsdk.NewSDKClient(baseURL)

	user, _ := registerUser(t, client, "bob")
	require.Equal(t, "42.50", user.Balance)
}

// TestDuplicateRegistration verifies usernames are unique, including under a race.
func TestDuplicateRegistration(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	registerUser(t, client, "alice")

	_, err := client.Register(t.Context(), "alice", "another-password")
	require.ErrorIs(t, err, authsdk.ErrUsernameTaken)

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Register(t.Context(), "racer", "secret123")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, authsdk.ErrUsernameTaken):
				taken++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, workers-1, taken)
}

// TestRegistrationValidation verifies bad input is a 400 with the standard body.
func TestRegistrationValidation(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	for _, tc := range []struct{ username, password string }{
		{"ab", "secret123"},
		{"this-username-is-far-too-long-to-accept", "secret123"},
		{"bad name", "secret123"},
		{"carol", ""},
	} {
		_, err := client.Register(t.Context(), tc.username, tc.password)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr, "username %q", tc.username)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, "Bad Request", apiErr.Reason)
		require.NotEmpty(t, apiErr.Message)
		require.False(t, apiErr.Timestamp.IsZero())
	}
}
