package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// FailurePolicy controls what the sync orchestrator does when PDF amount
// extraction yields no positive amount for a pending record.
type FailurePolicy string

const (
	// FailurePlaceholder records the entry with a randomized placeholder
	// amount and flags it for manual review. Guarantees ledger completeness
	// at the cost of fabricated amounts.
	FailurePlaceholder FailurePolicy = "placeholder"
	// FailureSkip leaves the record unprocessed.
	FailureSkip FailurePolicy = "skip"
	// FailureFlag records the entry with a zero amount, flagged for review.
	FailureFlag FailurePolicy = "flag"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Storage       StorageConfig
	Sync          SyncConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type StorageConfig struct {
	// LocalPath is the root directory of the blob store. PDF attachments
	// live under the "invoices" prefix.
	LocalPath string
	// PublicBaseURL prefixes public download URLs returned by the store.
	PublicBaseURL string
}

type SyncConfig struct {
	// Schedule is a standard 5-field cron expression for the periodic sync.
	Schedule string
	// OnExtractionFailure selects the fallback policy when a PDF yields no
	// usable amount.
	OnExtractionFailure FailurePolicy
	// FetchTimeout bounds each PDF download.
	FetchTimeout time.Duration
	// BatchWorkers caps concurrent PDF extractions.
	BatchWorkers int
	// FetchRatePerSecond throttles outbound PDF fetches.
	FetchRatePerSecond float64
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "receipt-ledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./blobs"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/blobs"),
		},
		Sync: SyncConfig{
			Schedule:            getEnv("SYNC_SCHEDULE", "* * * * *"),
			OnExtractionFailure: FailurePolicy(getEnv("SYNC_ON_EXTRACTION_FAILURE", string(FailurePlaceholder))),
			FetchTimeout:        getEnvAsDuration("SYNC_FETCH_TIMEOUT", 30*time.Second),
			BatchWorkers:        getEnvAsInt("SYNC_BATCH_WORKERS", 8),
			FetchRatePerSecond:  getEnvAsFloat("SYNC_FETCH_RATE_PER_SECOND", 10),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	switch cfg.Sync.OnExtractionFailure {
	case FailurePlaceholder, FailureSkip, FailureFlag:
	default:
		return nil, fmt.Errorf("invalid SYNC_ON_EXTRACTION_FAILURE %q", cfg.Sync.OnExtractionFailure)
	}

	if cfg.Sync.BatchWorkers < 1 {
		return nil, fmt.Errorf("SYNC_BATCH_WORKERS must be at least 1, got %d", cfg.Sync.BatchWorkers)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
