package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the tabauth service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with a 10 second request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account.
func (c *SDKClient) Register(ctx context.Context, username, password string) (*UserResponse, error) {
	return call[UserResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   RegisterRequest{Username: username, Password: password},
		want:   http.StatusCreated,
	})
}

// Login exchanges credentials for a bearer token.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	return call[LoginResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   LoginRequest{Username: username, Password: password},
		want:   http.StatusOK,
	})
}

// Me returns the account the token was issued to.
func (c *SDKClient) Me(ctx context.Context, token string) (*UserResponse, error) {
	return call[UserResponse](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/users/me",
		token:  token,
		want:   http.StatusOK,
	})
}
