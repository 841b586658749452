package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Session  SessionConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // SQLite database file path
	URL    string // PostgreSQL connection string
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string // listen address (e.g., ":8000"); empty disables the HTTP server
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051"); empty disables the gRPC server
}

// SessionConfig contains session settings.
type SessionConfig struct {
	Secret        string        // signs client session tokens
	TTL           time.Duration // lifetime of a session entry
	CookieName    string
	SweepInterval time.Duration // how often expired entries are removed
}

// AuthConfig contains credential settings.
type AuthConfig struct {
	Hasher        string // "bcrypt" or "argon2id"
	HashWorkers   int    // concurrent hash computations; 0 means one per CPU
	AdminUsername string // bootstrap admin, created at startup when both fields are set
	AdminPassword string
}

// LogConfig contains logging settings.
type LogConfig struct {
	Format string // "json" or "text"
	Level  string
}

// devSessionSecret is the LoadWithDefaults fallback for SESSION_SECRET.
const devSessionSecret = "dev-secret-change-me"

// Load loads configuration from environment variables with sensible defaults.
// SESSION_SECRET is required.
func Load() (*Config, error) {
	cfg, err := fromEnv("")
	if err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		return nil, oops.Code("CONFIG_INVALID").
			With("key", "SESSION_SECRET").
			Errorf("SESSION_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a fixed SESSION_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return fromEnv(devSessionSecret)
}

// LoadDotEnv loads variables from the given .env files without overriding the
// environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return oops.Code("CONFIG_DOTENV_FAILED").With("path", p).Wrap(err)
		}
	}
	return nil
}

func fromEnv(secretDefault string) (*Config, error) {
	ttl, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	sweep, err := getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("HASH_WORKERS", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:   getEnv("DB_PATH", "app.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8000"),
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ":50051"),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", secretDefault),
			TTL:           ttl,
			CookieName:    getEnv("SESSION_COOKIE", "session"),
			SweepInterval: sweep,
		},
		Auth: AuthConfig{
			Hasher:        strings.ToLower(getEnv("PASSWORD_HASHER", "bcrypt")),
			HashWorkers:   workers,
			AdminUsername: getEnv("ADMIN_USERNAME", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").With("key", "DATABASE_URL").
				Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return oops.Code("CONFIG_INVALID").With("key", "DB_DRIVER").
			Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "SESSION_TTL").Errorf("SESSION_TTL must be positive")
	}
	if c.Auth.HashWorkers < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "HASH_WORKERS").Errorf("HASH_WORKERS must not be negative")
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		return oops.Code("CONFIG_INVALID").With("key", "ADMIN_USERNAME").
			Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, oops.Code("CONFIG_INVALID").With("key", key).Wrapf(err, "invalid integer for %s", key)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// getEnvDuration retrieves an environment variable as a time.Duration with a default fallback.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, oops.Code("CONFIG_INVALID").With("key", key).Wrapf(err, "invalid duration for %s", key)
		}
		return d, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	db := c.Database.Path
	if c.Database.Driver == DriverPostgres {
		db = "postgres *** (masked) ***"
	}
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, SessionTTL: %s, Hasher: %s, Session: *** (masked) ***}",
		db, c.HTTP.Address, c.GRPC.Address, c.Session.TTL, c.Auth.Hasher)
}
