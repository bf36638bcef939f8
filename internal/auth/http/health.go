package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// Pinger is an optional dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	errNoStore  = errors.New("no store configured")
	errNoSigner = errors.New("no token signer configured")
)

const (
	checkOK    = "ok"
	checkError = "error"

	readyzTimeout = 2 * time.Second
)

// healthChecks serves the liveness and readiness endpoints.
type healthChecks struct {
	started time.Time
	version string

	store    store.Store
	signer   jwtx.Issuer
	throttle Pinger
}

func (p *healthChecks) report(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(p.started).Round(time.Second).String(),
		Version: p.version,
		Checks:  checks,
	}
}

// Livez godoc
//
//	@Summary		Liveness check
//	@Description	Answers 200 while the process is serving requests. No dependency is touched.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (p *healthChecks) Livez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, p.report(checkOK, nil))
}

// Readyz godoc
//
//	@Summary		Readiness check
//	@Description	Checks the database, the token signer and, when configured, the Redis login throttle.
//	@Description	A broken database or signer answers 503. A broken throttle only marks the service degraded.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Router			/readyz [get].
func (p *healthChecks) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
	defer cancel()
	log := slogx.FromContext(ctx)

	checks := &authsdk.HealthChecks{
		Database: p.check(ctx, "database", p.pingStore),
		Signer:   p.check(ctx, "signer", p.trySign),
	}

	code := http.StatusOK
	if checks.Database != checkOK || checks.Signer != checkOK {
		code = http.StatusServiceUnavailable
	}

	if p.throttle != nil {
		// The throttle fails open, so losing it never fails readiness.
		checks.Throttle = p.check(ctx, "login throttle", p.throttle.Ping)
	}

	status := checkOK
	if code != http.StatusOK || (checks.Throttle != "" && checks.Throttle != checkOK) {
		status = "degraded"
		log.Debug("readiness degraded", "code", code)
	}

	httpx.WriteJSON(w, code, p.report(status, checks))
}

// check runs fn and reduces the outcome to a generic label. The error text
// is only logged.
func (p *healthChecks) check(ctx context.Context, name string, fn func(context.Context) error) string {
	if err := fn(ctx); err != nil {
		slogx.FromContext(ctx).Warn("readiness: dependency unavailable", "dependency", name, "err", err)
		return checkError
	}
	return checkOK
}

func (p *healthChecks) pingStore(ctx context.Context) error {
	if p.store == nil {
		return errNoStore
	}
	return p.store.Ping(ctx)
}

func (p *healthChecks) trySign(context.Context) error {
	if p.signer == nil {
		return errNoSigner
	}
	_, err := p.signer.Issue("readyz")
	return err
}
