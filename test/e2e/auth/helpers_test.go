package auth_test

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
)

const (
	testImageName = "tabauth-auth-test:latest"

	// Only used inside throwaway test containers.
	testJWTSecret = "e2e-test-signing-secret-0123456789abcdef"
)

// The image is built by the first test that needs a container, so -short
// runs and filtered runs without e2e tests never touch Docker.
var (
	imageOnce  sync.Once
	imageErr   error
	imageBuilt atomic.Bool
)

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()

	if imageBuilt.Load() {
		_ = exec.Command("docker", "rmi", "-f", testImageName).Run()
	}
	os.Exit(code)
}

func requireImage(t *testing.T) {
	t.Helper()

	imageOnce.Do(func() {
		out, err := exec.Command("docker", "build",
			"-t", testImageName,
			"-f", "../../../cmd/auth/Dockerfile",
			"../../../",
		).CombinedOutput()
		if err != nil {
			imageErr = fmt.Errorf("docker build: %w\n%s", err, out)
			return
		}
		imageBuilt.Store(true)
	})
	require.NoError(t, imageErr)
}

// baseEnv is the container environment shared by every scenario. Rate limits
// are relaxed because tests make many rapid requests.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_JWT_SECRET":    testJWTSecret,
		"AUTH_DATABASE_FILE": "/data/auth.db",
		"AUTH_PEPPER_FILE":   "/data/pepper",
		"AUTH_BCRYPT_COST":   "4",
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",

		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

type containerOptions struct {
	env      map[string]string
	networks []string
}

// setupAuthContainer starts the service and returns its base URL.
func setupAuthContainer(t *testing.T, opts ...func(*containerOptions)) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	requireImage(t)
	ctx := context.Background()

	o := &containerOptions{env: baseEnv()}
	for _, opt := range opts {
		opt(o)
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          o.env,
		Networks:     o.networks,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.PortEndpoint(ctx, "8080/tcp", "http")
	require.NoError(t, err)
	return endpoint
}

// withEnv overrides or adds container environment variables.
func withEnv(env map[string]string) func(*containerOptions) {
	return func(o *containerOptions) { maps.Copy(o.env, env) }
}

// withDefaultRateLimits drops the relaxed limits so rate limiting can be tested.
func withDefaultRateLimits() func(*containerOptions) {
	return func(o *containerOptions) {
		for k := range o.env {
			if strings.HasPrefix(k, "RATELIMIT_") {
				delete(o.env, k)
			}
		}
	}
}

func withNetwork(name string) func(*containerOptions) {
	return func(o *containerOptions) { o.networks = append(o.networks, name) }
}

// registerUser creates an account with a random password and returns it.
func registerUser(t *testing.T, client *authsdk.SDKClient, username string) (*authsdk.UserResponse, string) {
	t.Helper()

	password := randomPassword(t)

	user, err := client.Register(t.Context(), username, password)
	require.NoError(t, err, "register %s", username)
	require.Equal(t, username, user.Username)

	return user, password
}

// loginUser logs in and verifies the token response shape.
func loginUser(t *testing.T, client *authsdk.SDKClient, username, password string) *authsdk.LoginResponse {
	t.Helper()

	resp, err := client.Login(t.Context(), username, password)
	require.NoError(t, err, "login %s", username)
	require.NotEmpty(t, resp.Token, "Token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Equal(t, 7200, resp.ExpiresIn)
	return resp
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// randomPassword returns 16 random alphanumeric characters.
func randomPassword(t *testing.T) string {
	t.Helper()
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	buf := make([]byte, 16)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}
	return string(buf)
}
