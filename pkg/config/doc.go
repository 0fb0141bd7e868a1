// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	CREWKIT_HOST="0.0.0.0"
//	CREWKIT_PORT="8080"
//	CREWKIT_HEALTH_PORT="9090"
//	CREWKIT_READ_TIMEOUT="15s"
//	CREWKIT_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	CREWKIT_POSTGRES_URL="postgres://localhost/crewkit"
//	CREWKIT_POSTGRES_MAX_CONNS="25"
//
// Cache settings:
//
//	CREWKIT_CACHE_ENABLED="true"
//	CREWKIT_REDIS_URL="redis://localhost:6379"
//	CREWKIT_MEMBERSHIP_CACHE_TTL="5m"
//	CREWKIT_SLUG_CACHE_SIZE="4096"
//
// Audit settings:
//
//	CREWKIT_AUDIT_ENABLED="true"
//	CREWKIT_AUDIT_FILE_PATH="/var/log/crewkit/audit"
//
// Observability settings:
//
//	CREWKIT_LOG_LEVEL="info"  # debug, info, warn, error
//	CREWKIT_METRICS_ENABLED="true"
//	CREWKIT_OTEL_ENABLED="true"
//	CREWKIT_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/observability: Uses observability configuration
package config
