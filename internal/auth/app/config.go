package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// JWTSecret is only read from the environment, never from the config file.
	JWTSecret     string        `yaml:"-"`
	JWTSecretFile string        `yaml:"jwt_secret_file"` // Optional: secret file, generated when missing (default: ./jwt.secret)
	TokenTTL      time.Duration `yaml:"token_ttl"`       // Optional: access token lifetime (default: 2h)

	DatabaseDriver string `yaml:"database_driver"` // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string `yaml:"database_file"`   // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseDSN    string `yaml:"-"`               // Required for postgres: pgx connection string

	PepperFile      string `yaml:"pepper_file"`      // Optional: path to file containing pepper for password hashing (default: ./pepper)
	BcryptCost      int    `yaml:"bcrypt_cost"`      // Optional: bcrypt work factor (default: 12)
	StartingBalance string `yaml:"starting_balance"` // Optional: balance of new accounts (default: 100.00)

	RedisAddr        string        `yaml:"redis_addr"`         // Optional: enables the shared login throttle
	RedisPassword    string        `yaml:"-"`                  // Optional
	LoginMaxFailures int           `yaml:"login_max_failures"` // Optional: failures before lockout (default: 5)
	LoginLockout     time.Duration `yaml:"login_lockout"`      // Optional: lockout window (default: 15m)
	TrustProxy       bool          `yaml:"trust_proxy"`        // Optional: key rate limits on X-Forwarded-For (default: false)

	Env                 string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	Port                int           `yaml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
}

func DefaultConfig() Config {
	return Config{
		JWTSecretFile:       "jwt.secret",
		TokenTTL:            jwtx.DefaultTokenTTL,
		DatabaseDriver:      DriverSQLite,
		DatabaseFile:        "auth.db",
		PepperFile:          "pepper",
		BcryptCost:          12,
		StartingBalance:     domain.DefaultStartingBalance.String(),
		LoginMaxFailures:    service.DefaultMaxLoginFailures,
		LoginLockout:        service.DefaultLoginLockout,
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// LoadConfig layers, lowest first: defaults, the YAML file named by
// AUTH_CONFIG_FILE, the dotenv file named by AUTH_ENV_FILE, then the
// process environment.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	e, err := newEnv(os.Getenv("AUTH_ENV_FILE"))
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnv(e)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(e env) {
	c.JWTSecret = e.str("AUTH_JWT_SECRET", c.JWTSecret)
	c.JWTSecretFile = e.str("AUTH_JWT_SECRET_FILE", c.JWTSecretFile)
	c.TokenTTL = e.duration("AUTH_TOKEN_TTL", c.TokenTTL)

	c.DatabaseDriver = e.str("AUTH_DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseFile = e.str("AUTH_DATABASE_FILE", c.DatabaseFile)
	c.DatabaseDSN = e.str("AUTH_DATABASE_DSN", c.DatabaseDSN)

	c.PepperFile = e.str("AUTH_PEPPER_FILE", c.PepperFile)
	c.BcryptCost = e.int("AUTH_BCRYPT_COST", c.BcryptCost)
	c.StartingBalance = e.str("AUTH_STARTING_BALANCE", c.StartingBalance)

	c.RedisAddr = e.str("AUTH_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = e.str("AUTH_REDIS_PASSWORD", c.RedisPassword)
	c.LoginMaxFailures = e.int("AUTH_LOGIN_MAX_FAILURES", c.LoginMaxFailures)
	c.LoginLockout = e.duration("AUTH_LOGIN_LOCKOUT", c.LoginLockout)
	c.TrustProxy = e.bool("AUTH_TRUST_PROXY", c.TrustProxy)

	c.Env = e.str("ENV", c.Env)
	c.LogLevel = e.str("LOG_LEVEL", c.LogLevel)
	c.LogFormat = e.str("LOG_FORMAT", c.LogFormat)
	c.Port = e.int("PORT", c.Port)
	c.ShutdownGracePeriod = e.duration("SHUTDOWN_GRACE_PERIOD", c.ShutdownGracePeriod)
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_DSN is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseDriver))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.JWTSecret == "" && c.JWTSecretFile == "" {
		errs = append(errs, errors.New("one of AUTH_JWT_SECRET or AUTH_JWT_SECRET_FILE is required"))
	}
	if c.PepperFile == "" {
		errs = append(errs, errors.New("AUTH_PEPPER_FILE is required"))
	}
	if _, err := c.StartingBalanceCents(); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_STARTING_BALANCE: %w", err))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) StartingBalanceCents() (domain.Cents, error) {
	return domain.ParseAmount(c.StartingBalance)
}

// env resolves settings from the process environment, falling back to a
// dotenv file. Unparseable values keep the current setting.
type env struct {
	file map[string]string
}

func newEnv(dotenvPath string) (env, error) {
	if dotenvPath == "" {
		return env{}, nil
	}

	file, err := godotenv.Read(dotenvPath)
	if err != nil {
		return env{}, fmt.Errorf("read env file: %w", err)
	}
	return env{file: file}, nil
}

func (e env) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return e.file[key]
}

func (e env) str(key, current string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return current
}

func (e env) int(key string, current int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(e.lookup(key))); err == nil {
		return n
	}
	return current
}

func (e env) bool(key string, current bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(e.lookup(key))); err == nil {
		return b
	}
	return current
}

// duration accepts Go durations ("90s", "1h") or a bare number of minutes.
func (e env) duration(key string, current time.Duration) time.Duration {
	v := strings.TrimSpace(e.lookup(key))
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if minutes, err := strconv.Atoi(v); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return current
}
