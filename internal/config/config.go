package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BackendPostgres = "postgres"
	BackendSnapshot = "snapshot"

	PolicyPerTransaction = "per_transaction"
	PolicyCumulative     = "cumulative"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	ServerPort string
	LogLevel   string

	// Storage
	StorageBackend string
	SnapshotPath   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Resilience
	DBMaxRetries     int
	DBInitialBackoff time.Duration
	DBMaxConcurrency int

	// Observability
	OTLPEndpoint string

	// Ledger policy
	DailyLimitPolicy string
	MaxDepositAmount decimal.Decimal
	DefaultCurrency  string

	// ledgerctl
	LedgerOwner string
}

func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
		SnapshotPath:   getEnv("SNAPSHOT_PATH", "data/ledger.json"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "virtual_bank"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxRetries:     getEnvInt("DB_MAX_RETRIES", 3),
		DBInitialBackoff: getEnvDuration("DB_INITIAL_BACKOFF", 100*time.Millisecond),
		DBMaxConcurrency: getEnvInt("DB_MAX_CONCURRENCY", 20),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		DailyLimitPolicy: strings.ToLower(getEnv("DAILY_LIMIT_POLICY", PolicyPerTransaction)),
		MaxDepositAmount: getEnvDecimal("MAX_DEPOSIT_AMOUNT", decimal.Zero),
		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "INR")),

		LedgerOwner: getEnv("LEDGER_OWNER", "local"),
	}
}

// Validate rejects values that would otherwise be silently misread.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendPostgres, BackendSnapshot:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendSnapshot, c.StorageBackend)
	}
	switch c.DailyLimitPolicy {
	case PolicyPerTransaction, PolicyCumulative:
	default:
		return fmt.Errorf("DAILY_LIMIT_POLICY must be %q or %q, got %q", PolicyPerTransaction, PolicyCumulative, c.DailyLimitPolicy)
	}
	if c.MaxDepositAmount.IsNegative() {
		return fmt.Errorf("MAX_DEPOSIT_AMOUNT cannot be negative")
	}
	return nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}
