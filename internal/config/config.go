// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/stocklab/stocklab/internal/utils"
)

// Database file names inside DataDir
const (
	MainDatabaseFile  = "stocklab.db"
	CacheDatabaseFile = "cache.db"
)

// Config holds application configuration
type Config struct {
	DataDir  string `toml:"data_dir"` // Base directory for all databases (always absolute after Load)
	LogLevel string `toml:"log_level"`
	Port     int    `toml:"port"`
	DevMode  bool   `toml:"dev_mode"`

	PolygonAPIKey  string `toml:"polygon_api_key"`
	PolygonBaseURL string `toml:"polygon_base_url"`

	Analysis AnalysisConfig `toml:"analysis"`
	Sync     SyncConfig     `toml:"sync"`
	Backup   BackupConfig   `toml:"backup"`
}

// AnalysisConfig holds the return statistics parameters
type AnalysisConfig struct {
	MarketTicker     string  `toml:"market_ticker"`
	OutlierThreshold float64 `toml:"outlier_threshold"`
	RiskFreeRate     float64 `toml:"risk_free_rate"`
}

// SyncConfig controls the scheduled price refresh
type SyncConfig struct {
	Watchlist []string `toml:"watchlist"`
	Schedule  string   `toml:"schedule"` // cron with seconds
	Period    string   `toml:"period"`
}

// BackupConfig holds S3-compatible backup settings
type BackupConfig struct {
	Enabled         bool   `toml:"enabled"`
	Endpoint        string `toml:"endpoint"` // Custom endpoint for S3-compatible stores (MinIO, R2)
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	RetentionDays   int    `toml:"retention_days"`
	Schedule        string `toml:"schedule"`
}

// NewDefaultConfig returns the built-in defaults
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:        "./data",
		LogLevel:       "info",
		Port:           8001,
		PolygonBaseURL: "https://api.polygon.io",
		Analysis: AnalysisConfig{
			MarketTicker:     "SPY",
			OutlierThreshold: 0.5,
			RiskFreeRate:     0.02,
		},
		Sync: SyncConfig{
			Schedule: "0 30 22 * * 1-5", // weekdays after the US close (UTC)
			Period:   "5y",
		},
		Backup: BackupConfig{
			Region:        "auto",
			Prefix:        "stocklab",
			RetentionDays: 30,
			Schedule:      "0 0 3 * * *",
		},
	}
}

// Load reads configuration from .env, the optional STOCKLAB_CONFIG file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()
	return LoadFile(os.Getenv("STOCKLAB_CONFIG"))
}

// LoadFile reads a TOML config file over the defaults, then applies environment overrides.
// An empty or missing path is skipped.
func LoadFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.DataDir = getEnv("STOCKLAB_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Port = getEnvAsInt("GO_PORT", cfg.Port)
	cfg.DevMode = getEnvAsBool("DEV_MODE", cfg.DevMode)

	cfg.PolygonAPIKey = getEnv("POLYGON_API_KEY", cfg.PolygonAPIKey)
	cfg.PolygonBaseURL = getEnv("POLYGON_BASE_URL", cfg.PolygonBaseURL)

	cfg.Analysis.MarketTicker = strings.ToUpper(getEnv("MARKET_TICKER", cfg.Analysis.MarketTicker))
	cfg.Analysis.OutlierThreshold = getEnvAsFloat("OUTLIER_THRESHOLD", cfg.Analysis.OutlierThreshold)
	cfg.Analysis.RiskFreeRate = getEnvAsFloat("RISK_FREE_RATE", cfg.Analysis.RiskFreeRate)

	if value := os.Getenv("WATCHLIST"); value != "" {
		cfg.Sync.Watchlist = utils.ParseList(value)
	}
	cfg.Sync.Watchlist = utils.UniqueTickers(cfg.Sync.Watchlist)
	cfg.Sync.Schedule = getEnv("PRICE_SYNC_SCHEDULE", cfg.Sync.Schedule)
	cfg.Sync.Period = getEnv("PRICE_SYNC_PERIOD", cfg.Sync.Period)

	cfg.Backup.Enabled = getEnvAsBool("BACKUP_ENABLED", cfg.Backup.Enabled)
	cfg.Backup.Endpoint = getEnv("BACKUP_S3_ENDPOINT", cfg.Backup.Endpoint)
	cfg.Backup.Region = getEnv("BACKUP_S3_REGION", cfg.Backup.Region)
	cfg.Backup.Bucket = getEnv("BACKUP_S3_BUCKET", cfg.Backup.Bucket)
	cfg.Backup.Prefix = getEnv("BACKUP_S3_PREFIX", cfg.Backup.Prefix)
	cfg.Backup.AccessKeyID = getEnv("BACKUP_S3_ACCESS_KEY_ID", cfg.Backup.AccessKeyID)
	cfg.Backup.SecretAccessKey = getEnv("BACKUP_S3_SECRET_ACCESS_KEY", cfg.Backup.SecretAccessKey)
	cfg.Backup.RetentionDays = getEnvAsInt("BACKUP_RETENTION_DAYS", cfg.Backup.RetentionDays)
	cfg.Backup.Schedule = getEnv("BACKUP_SCHEDULE", cfg.Backup.Schedule)
}

// Validate checks value ranges and schedules
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Analysis.OutlierThreshold < 0 {
		return fmt.Errorf("outlier threshold must not be negative, got %v", c.Analysis.OutlierThreshold)
	}
	if c.Analysis.RiskFreeRate < 0 || c.Analysis.RiskFreeRate >= 1 {
		return fmt.Errorf("risk-free rate must be in [0, 1), got %v", c.Analysis.RiskFreeRate)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Sync.Schedule); err != nil {
		return fmt.Errorf("invalid price sync schedule %q: %w", c.Sync.Schedule, err)
	}

	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("backup enabled but no bucket configured")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup enabled but S3 credentials missing")
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("backup retention must not be negative, got %d", c.Backup.RetentionDays)
		}
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid backup schedule %q: %w", c.Backup.Schedule, err)
		}
	}
	return nil
}

// DatabasePath is the main SQLite database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, MainDatabaseFile)
}

// CachePath is the provider response cache database
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, CacheDatabaseFile)
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

