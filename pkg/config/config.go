package config

import (
	"os"
	"path/filepath"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Storage StorageConfig
	Backup  BackupConfig
	Import  ImportConfig
	Search  SearchConfig
	Log     LogConfig
}

type StorageConfig struct {
	// DataDir roots all per-profile ledgers, backups and reports.
	DataDir string
	// Backend selects the persistence layer: "json" or "sqlite".
	Backend string
}

type BackupConfig struct {
	// Schedule is a standard 5-field cron expression; empty or "off"
	// disables the periodic ledger backup.
	Schedule string
}

type ImportConfig struct {
	// PredictCategories prefills blank categories on import by default.
	PredictCategories bool
	// DuplicateReportDir receives duplicate-report files; empty disables
	// report writing.
	DuplicateReportDir string
}

type SearchConfig struct {
	// Limit caps how many transactions a note search returns by default.
	Limit int
}

type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".zhangben")

	cfg := &Config{
		Storage: StorageConfig{
			DataDir: getEnv("ZHANGBEN_DATA_DIR", defaultDataDir),
			Backend: getEnv("ZHANGBEN_STORAGE_BACKEND", "json"),
		},
		Backup: BackupConfig{
			Schedule: getEnv("ZHANGBEN_BACKUP_SCHEDULE", "0 3 * * *"),
		},
		Import: ImportConfig{
			PredictCategories:  getEnvAsBool("ZHANGBEN_IMPORT_PREDICT", false),
			DuplicateReportDir: getEnv("ZHANGBEN_DUPLICATE_REPORT_DIR", ""),
		},
		Search: SearchConfig{
			Limit: getEnvAsInt("ZHANGBEN_SEARCH_LIMIT", 20),
		},
		Log: LogConfig{
			Level: getEnv("ZHANGBEN_LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

// LedgerPath is the default (profile-less) ledger location for the chosen
// backend.
func (c *StorageConfig) LedgerPath() string {
	if c.Backend == "sqlite" {
		return filepath.Join(c.DataDir, "ledger.db")
	}
	return filepath.Join(c.DataDir, "ledger.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
