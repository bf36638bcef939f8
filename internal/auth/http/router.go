package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"

	_ "github.com/aussiebroadwan/tabauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Policy is the access table for every route the service serves. Anything it
// does not list is protected.
func Policy() *httpx.RoutePolicy {
	return httpx.MustRoutePolicy(
		httpx.PublicRoute("POST /api/auth/register"),
		httpx.PublicRoute("POST /api/auth/login"),
		httpx.ProtectedRoute("/api/**"),
		httpx.PublicRoute("/swagger/**"),
		httpx.PublicRoute("GET /livez"),
		httpx.PublicRoute("GET /readyz"),
	)
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	patterns    []string

	policy       *httpx.RoutePolicy
	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService *service.AuthService

	// Throttle is the Redis login throttle, checked by /readyz when set.
	Throttle Pinger

	// ClientIP keys the per-IP rate limits. Defaults to the connection's
	// remote address; use httpx.ForwardedIPKeyExtractor behind a trusted proxy.
	ClientIP httpx.KeyExtractor
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		policy:       Policy(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		ClientIP:     httpx.IPKeyExtractor,
	}

	// Authn only attaches a principal; the policy decides whether one is needed.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.AuthnMiddleware(r.codec),
		r.policy.Enforce(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(httpx.PublicLimit, r.ClientIP),
	))

	for _, pattern := range r.policy.Audit(r.patterns) {
		r.logger.Warn("route has no access rule, defaulting to protected", "pattern", pattern)
	}
}

// Patterns lists every pattern registered on the mux.
func (r *Router) Patterns() []string {
	return append([]string(nil), r.patterns...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TabAuth Authentication Service API
//	@version		0.1.0
//	@description	Username and password authentication issuing HS256 bearer tokens.
//	@description
//	@description				Tokens are valid for two hours. Send them as "Authorization: Bearer {token}".
//	@description				Every error response has the shape {timestamp, status, error, message}.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tabauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				HS256 bearer token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(http.HandlerFunc(r.dispatch), r.middlewares...).ServeHTTP(w, req)
}

// dispatch routes through the mux, answering unknown routes with the
// standard error body instead of the mux's plain text.
func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	h, pattern := r.Mux.Handler(req)
	if pattern == "" {
		httpx.WriteError(w, http.StatusNotFound, "No handler found for "+req.Method+" "+req.URL.Path)
		return
	}
	h.ServeHTTP(w, req)
}

func (r *Router) handle(pattern string, h http.Handler) {
	r.Mux.Handle(pattern, h)
	r.patterns = append(r.patterns, pattern)
}

func (r *Router) registerAuth() {
	// POST /register - moderate rate limit by IP (account creation)
	r.handle("POST /api/auth/register",
		httpx.Chain(&RegisterHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit, r.ClientIP),
		),
	)

	// POST /login - strict rate limit by IP; per-username lockout lives in the service
	r.handle("POST /api/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit, r.ClientIP),
		),
	)
}

func (r *Router) registerUsers() {
	// Protected by the /api/** rule - moderate rate limit by principal
	r.handle("GET /api/users/me",
		httpx.Chain(&MeHandler{AuthService: r.AuthService},
			httpx.RateLimitByPrincipal(httpx.ModerateLimit, r.ClientIP),
		),
	)
}

func (r *Router) registerSystem() {
	p := &healthChecks{
		started:  r.startTime,
		version:  r.buildVersion,
		store:    r.store,
		throttle: r.Throttle,
	}
	if r.codec != nil {
		p.signer = r.codec
	}

	// Probes get the public limit, monitoring may poll often.
	r.handle("GET /livez",
		httpx.Chain(http.HandlerFunc(p.Livez),
			httpx.RateLimitByIP(httpx.PublicLimit, r.ClientIP),
		),
	)
	r.handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(p.Readyz),
			httpx.RateLimitByIP(httpx.PublicLimit, r.ClientIP),
		),
	)
}
