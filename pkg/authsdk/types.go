package authsdk

import "time"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	// Username is 3 to 30 characters of letters, digits, '.', '_' or '-'
	Username string `json:"username" example:"alice"`

	// Password must not be blank and is at most 72 bytes
	Password string `json:"password" example:"secret123"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"secret123"`
}

// LoginResponse is returned from a successful login.
type LoginResponse struct {
	// Token is the HS256 signed bearer token
	Token string `json:"token"`

	// TokenType is always "Bearer"
	TokenType string `json:"tokenType" example:"Bearer"`

	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int `json:"expiresIn" example:"7200"`

	UserID int64 `json:"userId" example:"1"`
}

// UserResponse describes an account. It never includes the password hash.
type UserResponse struct {
	ID       int64  `json:"id" example:"1"`
	Username string `json:"username" example:"alice"`

	// Balance is a fixed two-decimal amount, e.g. "100.00"
	Balance string `json:"balance" example:"100.00"`

	CreatedAt time.Time `json:"createdAt"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency as "ok" or "error".
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`

	// Throttle is only present when the login throttle uses Redis
	Throttle string `json:"throttle,omitempty"`
}
