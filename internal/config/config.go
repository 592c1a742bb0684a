package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Datastores
	PostgresURL    string
	RedisURL       string
	ClickHouseURL  string // optional: score archive mirror disabled when empty
	LegacyMySQLDSN string // optional: legacy stats mirror disabled when empty

	// External performance calculator
	PerformanceAPIURL string // optional: scores are marked non-ranked when empty

	// Queueing
	QueueName      string
	IndexQueueName string
	EventChannel   string

	// Batch reprocessing
	WorkerCount int

	// Caches
	CacheRefreshInterval time.Duration

	// Processor registry
	DisabledProcessors []string
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		ClickHouseURL:     getEnv("CLICKHOUSE_URL", ""),
		LegacyMySQLDSN:    getEnv("LEGACY_MYSQL_DSN", ""),
		PerformanceAPIURL: getEnv("PERFORMANCE_API_URL", ""),

		QueueName:      getEnv("QUEUE_NAME", "score-statistics"),
		IndexQueueName: getEnv("INDEX_QUEUE_NAME", "score-index"),
		EventChannel:   getEnv("EVENT_CHANNEL", "score:processed"),

		WorkerCount: getEnvInt("WORKER_COUNT", 8),

		CacheRefreshInterval: getEnvDuration("CACHE_REFRESH_INTERVAL", time.Minute),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Processors disabled by name, e.g. "medals,legacy_mirror"
	for _, p := range strings.Split(getEnv("DISABLED_PROCESSORS", ""), ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.DisabledProcessors = append(cfg.DisabledProcessors, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
