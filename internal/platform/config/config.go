package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "blocktrust/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// PostgresConfig holds the database connection settings. An empty URL selects
// the in-memory stores, which keeps local runs dependency-free.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds the fingerprint cache settings. An empty URL disables the
// cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit relay settings. Empty brokers disable the relay.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RegistryConfig holds registry feature settings.
type RegistryConfig struct {
	// BootstrapMinters are seeded with minter authority at startup.
	BootstrapMinters []string
	CacheTTL         time.Duration
}

// Config is the full application configuration.
type Config struct {
	Server   Server
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Registry RegistryConfig
}

// FromEnv builds the configuration from environment variables so main stays
// lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("BLOCKTRUST_ADDR", ":8080"),
			JWTSigningKey:   envOr("BLOCKTRUST_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			LogLevel:        envOr("BLOCKTRUST_LOG_LEVEL", "info"),
			ShutdownTimeout: envDurationOr("BLOCKTRUST_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("BLOCKTRUST_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("BLOCKTRUST_REDIS_URL"),
			PoolSize:     envIntOr("BLOCKTRUST_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("BLOCKTRUST_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("BLOCKTRUST_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("BLOCKTRUST_REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: envDurationOr("BLOCKTRUST_REDIS_WRITE_TIMEOUT", time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    platformstrings.DedupeAndTrim(splitNonEmpty(os.Getenv("BLOCKTRUST_KAFKA_BROKERS"))),
			AuditTopic: envOr("BLOCKTRUST_KAFKA_AUDIT_TOPIC", "blocktrust.audit"),
		},
		Registry: RegistryConfig{
			// Addresses are hex, so duplicates that differ only in case are
			// still duplicates.
			BootstrapMinters: platformstrings.DedupeAndTrimLower(splitNonEmpty(os.Getenv("BLOCKTRUST_BOOTSTRAP_MINTERS"))),
			CacheTTL:         envDurationOr("BLOCKTRUST_REGISTRY_CACHE_TTL", 5*time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
