package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// TestInvalidCredentialsIndistinguishable verifies an unknown username and a
// wrong password produce the same response.
func TestInvalidCredentialsIndistinguishable(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	registerUser(t, client, "alice")

	_, wrongPassword := client.Login(t.Context(), "alice", "definitely-wrong")
	_, unknownUser := client.Login(t.Context(), "nobody", "definitely-wrong")

	require.ErrorIs(t, wrongPassword, authsdk.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, authsdk.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

// TestProtectedEndpointRejections verifies every way of failing authentication
// on a protected route yields the same 401.
func TestProtectedEndpointRejections(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	_, password := registerUser(t, client, "alice")
	login := loginUser(t, client, "alice", password)

	// Same secret as the container, but issued three hours ago.
	past, err := jwtx.NewCodec([]byte(testJWTSecret), jwtx.WithClock(func() time.Time {
		return time.Now().Add(-3 * time.Hour)
	}))
	require.NoError(t, err)
	expired, err := past.Issue("alice")
	require.NoError(t, err)

	forger, err := jwtx.NewCodec([]byte("not-the-service-secret-0123456789abcdef"))
	require.NoError(t, err)
	forged, err := forger.Issue("alice")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":   "",
		"garbage":   "abc.def.ghi",
		"expired":   expired,
		"forged":    forged,
		"truncated": login.Token[:len(login.Token)-4],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := client.Me(t.Context(), token)
			require.ErrorIs(t, err, authsdk.ErrUnauthorized)
		})
	}
}

// TestUnlistedRouteIsProtected verifies routes outside the access table fail closed.
func TestUnlistedRouteIsProtected(t *testing.T) {
	baseURL := setupAuthContainer(t)

	for _, path := range []string{"/api/transactions", "/api/users", "/admin"} {
		resp, err := http.Get(baseURL + path)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		require.Contains(t, body, "timestamp")
		require.EqualValues(t, 401, body["status"])
		require.Equal(t, "Unauthorized", body["error"])
		require.Contains(t, body, "message")
	}
}

// TestSwaggerIsPublic verifies API docs need no token.
func TestSwaggerIsPublic(t *testing.T) {
	baseURL := setupAuthContainer(t)

	resp, err := http.Get(baseURL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
