package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/aussiebroadwan/tabauth/internal/auth/http"
	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

const startupTimeout = 10 * time.Second

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	codec    *jwtx.Codec
	redis    *redis.Client
	throttle *service.RedisAttemptLimiter

	authService *service.AuthService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}
	slog.SetDefault(app.logger)

	if err := cryptox.LoadPepper(app.cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load password pepper: %w", err)
	}
	cryptox.SetCost(app.cfg.BcryptCost)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initCodec(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initThrottle(ctx)

	if err := app.initServices(); err != nil {
		_ = app.closeDeps()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Serve(ctx)
}

// Serve listens on the configured port until ctx is done or the listener
// fails. Either way the server is drained and dependencies are closed
// before it returns.
func (app *Application) Serve(ctx context.Context) error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			app.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		}
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown stops accepting requests, waits up to the grace period for the
// rest, then closes the database and Redis.
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Warn("grace period expired, closing open connections", "error", err)
		_ = app.server.Close()
	}

	if err := app.closeDeps(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeDeps() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseDSN)
	default:
		db, err = sqlite.NewStore("file:" + app.cfg.DatabaseFile + "?_pragma=journal_mode(WAL)")
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initCodec() error {
	secret, err := LoadSigningSecret(app.cfg, app.logger)
	if err != nil {
		return err
	}

	codec, err := jwtx.NewCodec(secret, jwtx.WithTTL(app.cfg.TokenTTL))
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	app.logger.Info("token codec ready", "algorithm", "HS256", "ttl", app.cfg.TokenTTL.String())
	return nil
}

// initThrottle connects the shared login throttle when Redis is configured.
// An unreachable Redis is not fatal: the throttle fails open and /readyz
// reports it.
func (app *Application) initThrottle(ctx context.Context) {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("login throttle disabled, AUTH_REDIS_ADDR not set")
		return
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})
	app.throttle = service.NewRedisAttemptLimiter(app.redis, app.cfg.LoginMaxFailures, app.cfg.LoginLockout)

	if err := app.throttle.Ping(ctx); err != nil {
		app.logger.Warn("redis unreachable, login throttle will fail open", "addr", app.cfg.RedisAddr, "error", err)
		return
	}

	app.logger.Info("login throttle enabled",
		"addr", app.cfg.RedisAddr,
		"max_failures", app.cfg.LoginMaxFailures,
		"lockout", app.cfg.LoginLockout.String(),
	)
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	balance, err := app.cfg.StartingBalanceCents()
	if err != nil {
		return fmt.Errorf("invalid starting balance: %w", err)
	}

	app.authService = &service.AuthService{
		Store:           app.db,
		Tokens:          app.codec,
		StartingBalance: balance,
	}
	if app.throttle != nil {
		app.authService.Limiter = app.throttle
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	if app.throttle != nil {
		router.Throttle = app.throttle
	}
	if app.cfg.TrustProxy {
		router.ClientIP = httpx.ForwardedIPKeyExtractor
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(app.cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
