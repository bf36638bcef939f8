package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, request{method: http.MethodGet, path: "/livez", want: http.StatusOK})
}

// GetReadiness checks if the service can serve traffic. A degraded service
// answers 503, returned as an *APIError.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, request{method: http.MethodGet, path: "/readyz", want: http.StatusOK})
}
