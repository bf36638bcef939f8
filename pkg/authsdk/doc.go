/*
Package authsdk provides a client SDK for the tabauth credential service.

# Overview

The service registers accounts, exchanges a username and password for a
signed bearer token, and serves the account behind a token:

	client := authsdk.NewSDKClient("https://auth.example.com")

	user, err := client.Register(ctx, "alice", "secret123")

	login, err := client.Login(ctx, "alice", "secret123")

	me, err := client.Me(ctx, login.Token)

Tokens live for two hours by default (LoginResponse.ExpiresIn). There is no
refresh, log in again once a token expires.

# Error Handling

Every non-success response is returned as an *APIError carrying the status
code and the server's message. The predefined errors compare with errors.Is:

	_, err := client.Login(ctx, "alice", "wrong")
	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// unknown user or wrong password, the service does not say which
	}

The same APIError values are used by the server to write responses, so the
two sides cannot drift apart.

# Health

GetLiveness and GetReadiness call /livez and /readyz.
*/
package authsdk
