// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and backup staging (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	ZoneCautionAt float64
	ZoneDangerAt  float64

	SweepSchedule          string
	ConditionTemplatesPath string // empty = built-in templates
	CovenantCacheSize      int

	Backup *BackupConfig
}

// BackupConfig holds S3 backup settings
type BackupConfig struct {
	Enabled         bool
	Schedule        string
	RetentionDays   int // 0 keeps every backup
	Bucket          string
	Region          string
	Endpoint        string // S3-compatible endpoint (R2, MinIO); empty = AWS
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                dataDir,
		Port:                   getEnvAsInt("PORT", 8080),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DevMode:                getEnvAsBool("DEV_MODE", false),
		ZoneCautionAt:          getEnvAsFloat("ZONE_CAUTION_AT", 0.80),
		ZoneDangerAt:           getEnvAsFloat("ZONE_DANGER_AT", 0.90),
		SweepSchedule:          getEnv("SWEEP_SCHEDULE", "@every 1h"),
		ConditionTemplatesPath: getEnv("CONDITION_TEMPLATES_PATH", ""),
		CovenantCacheSize:      getEnvAsInt("COVENANT_CACHE_SIZE", 128),
		Backup: &BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Schedule:        getEnv("BACKUP_SCHEDULE", "@daily"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks zone ordering and, when backups are on, their credentials
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if !(c.ZoneCautionAt > 0 && c.ZoneCautionAt < c.ZoneDangerAt && c.ZoneDangerAt < 1) {
		return fmt.Errorf("zone thresholds must satisfy 0 < ZONE_CAUTION_AT < ZONE_DANGER_AT < 1, got %.2f/%.2f",
			c.ZoneCautionAt, c.ZoneDangerAt)
	}
	if c.CovenantCacheSize <= 0 {
		return fmt.Errorf("COVENANT_CACHE_SIZE must be positive, got %d", c.CovenantCacheSize)
	}
	if c.SweepSchedule == "" {
		return fmt.Errorf("SWEEP_SCHEDULE is required")
	}

	if b := c.Backup; b != nil && b.Enabled {
		if b.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BACKUP_ENABLED is set")
		}
		if b.AccessKeyID == "" || b.SecretAccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when BACKUP_ENABLED is set")
		}
		if b.RetentionDays < 0 {
			return fmt.Errorf("BACKUP_RETENTION_DAYS may not be negative")
		}
	}
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
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
