package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// MinJWTSecretLength is the shortest accepted HMAC secret, in bytes.
const MinJWTSecretLength = 32

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
	Bootstrap     BootstrapConfig
}

// RateLimitConfig holds rate limiting configuration. The auth limits apply
// to the public register and login endpoints.
type RateLimitConfig struct {
	RequestsPerSecond     float64
	Burst                 int
	AuthRequestsPerSecond float64
	AuthBurst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	// TrustedProxies lists the reverse proxies (CIDRs or addresses) whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty means the
	// peer address is always the client.
	TrustedProxies []string
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ObservabilityConfig holds logging, tracing and metrics configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	ServiceName    string
	ServiceVersion string
	Environment    string
	TracingEnabled bool
	MetricsEnabled bool
	LogExport      bool
	OTLPEndpoint   string
	OTLPInsecure   bool
	SamplingRate   float64
}

// BootstrapConfig names the platform super administrator. An empty email
// disables bootstrapping.
type BootstrapConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Load loads configuration from environment variables. Each env file that
// exists is read first; variables already set in the environment win.
// Without arguments ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:    parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:     parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
			RequestTimeout:  parseDuration("SERVER_REQUEST_TIMEOUT", "30s"),
			ShutdownTimeout: parseDuration("SERVER_SHUTDOWN_TIMEOUT", "15s"),
			AllowedOrigins:  parseList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			TrustedProxies:  parseList("SERVER_TRUSTED_PROXIES", ""),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "timesheet"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "timesheet"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: parseInt("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  parseBool("DB_AUTO_MIGRATE", false),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			Issuer:     getEnv("JWT_ISSUER", "timesheet"),
			AccessTTL:  parseDuration("JWT_ACCESS_TTL", "24h"),
			RefreshTTL: parseDuration("JWT_REFRESH_TTL", "168h"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "timesheet"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
			Environment:    getEnv("APP_ENV", "development"),
			TracingEnabled: parseBool("OTEL_TRACING_ENABLED", false),
			MetricsEnabled: parseBool("OTEL_METRICS_ENABLED", false),
			LogExport:      parseBool("OTEL_LOGS_ENABLED", false),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT_HOST", ""),
			OTLPInsecure:   parseBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SamplingRate:   parseFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:     parseFloat("RATELIMIT_RPS", 10),
			Burst:                 parseInt("RATELIMIT_BURST", 20),
			AuthRequestsPerSecond: parseFloat("RATELIMIT_AUTH_RPS", 1),
			AuthBurst:             parseInt("RATELIMIT_AUTH_BURST", 5),
		},
		Bootstrap: BootstrapConfig{
			Email:     getEnv("BOOTSTRAP_SUPER_ADMIN_EMAIL", ""),
			Password:  getEnv("BOOTSTRAP_SUPER_ADMIN_PASSWORD", ""),
			FirstName: getEnv("BOOTSTRAP_SUPER_ADMIN_FIRST_NAME", ""),
			LastName:  getEnv("BOOTSTRAP_SUPER_ADMIN_LAST_NAME", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD or DATABASE_URL is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver))
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive"))
	}
	if c.Bootstrap.Email != "" && len(c.Bootstrap.Password) < 6 {
		errs = append(errs, errors.New("BOOTSTRAP_SUPER_ADMIN_PASSWORD must be at least 6 characters"))
	}
	for _, p := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err != nil {
			if _, err := netip.ParseAddr(p); err != nil {
				errs = append(errs, fmt.Errorf("SERVER_TRUSTED_PROXIES: %q is not an address or CIDR", p))
			}
		}
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.AuthRequestsPerSecond <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	return errors.Join(errs...)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}

func parseList(key, defaultValue string) []string {
	var out []string
	for _, s := range strings.Split(getEnv(key, defaultValue), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
