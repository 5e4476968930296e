package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	DatabasePath string
	LogLevel     string

	JWTSecret string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	AdvisorServiceURL string

	BankSyncSchedule string

	BackupEndpoint        string
	BackupAccessKeyID     string
	BackupSecretAccessKey string
	BackupBucket          string
	BackupRegion          string
	BackupSchedule        string
	BackupRetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/fiscalguide.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),
		PlaidEnv:      getEnv("PLAID_ENV", "sandbox"),

		AdvisorServiceURL: getEnv("ADVISOR_SERVICE_URL", ""),

		BankSyncSchedule: getEnv("BANK_SYNC_SCHEDULE", "0 0 * * * *"), // hourly

		BackupEndpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupAccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		BackupSecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		BackupBucket:          getEnv("BACKUP_S3_BUCKET", ""),
		BackupRegion:          getEnv("BACKUP_S3_REGION", "auto"),
		BackupSchedule:        getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"), // 2 AM daily
		BackupRetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	// Plaid and backup credentials are optional: the features stay
	// disabled until configured.
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
