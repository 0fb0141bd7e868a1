package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crewkit/crewkit/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	CORSAllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// CacheConfig holds membership cache settings.
type CacheConfig struct {
	// Enabled switches the Redis-backed membership cache on. When off,
	// every decision resolves against the database.
	Enabled bool

	// MembershipTTL is the backstop expiry for cached memberships.
	// Mutations invalidate synchronously; the TTL only bounds staleness
	// if an invalidation is lost.
	MembershipTTL time.Duration

	// SlugCacheSize bounds the in-process slug-to-id cache.
	SlugCacheSize int
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Enabled bool

	// FilePath, when set, adds a JSON-lines file sink alongside the
	// database sink.
	FilePath string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Cache:         loadCacheConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:               getEnv("CREWKIT_HOST", "0.0.0.0"),
		Port:               getEnv("CREWKIT_PORT", "8080"),
		ReadTimeout:        getEnvDuration("CREWKIT_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("CREWKIT_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("CREWKIT_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getEnvDuration("CREWKIT_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:         getEnv("CREWKIT_HEALTH_PORT", "9090"),
		CORSAllowedOrigins: splitList(getEnv("CREWKIT_CORS_ALLOWED_ORIGINS", "")),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("CREWKIT_POSTGRES_URL", ""),
		MaxOpenConns:    getEnvInt("CREWKIT_POSTGRES_MAX_CONNS", 25),
		MaxIdleConns:    getEnvInt("CREWKIT_POSTGRES_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("CREWKIT_POSTGRES_CONN_LIFETIME", 5*time.Minute),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:        getEnv("CREWKIT_REDIS_URL", ""),
		Password:   getEnv("CREWKIT_REDIS_PASSWORD", ""),
		DB:         getEnvInt("CREWKIT_REDIS_DB", 0),
		MaxRetries: getEnvInt("CREWKIT_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("CREWKIT_REDIS_POOL_SIZE", 10),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       getEnvBool("CREWKIT_CACHE_ENABLED", true),
		MembershipTTL: getEnvDuration("CREWKIT_MEMBERSHIP_CACHE_TTL", 5*time.Minute),
		SlugCacheSize: getEnvInt("CREWKIT_SLUG_CACHE_SIZE", 4096),
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  getEnvBool("CREWKIT_AUDIT_ENABLED", true),
		FilePath: getEnv("CREWKIT_AUDIT_FILE_PATH", ""),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("CREWKIT_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("CREWKIT_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("CREWKIT_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("CREWKIT_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("CREWKIT_OTEL_SERVICE_NAME", "crewkit"),
		OTelServiceVersion: getEnv("CREWKIT_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("CREWKIT_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Cache.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when the membership cache is enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
