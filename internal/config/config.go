package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Sync      SyncConfig
	Baseline  BaselineConfig
	Detector  DetectorConfig
	Notify    NotifyConfig
	Secrets   SecretsConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains API authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// RedisConfig contains Redis configuration for the snapshot cache
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// SyncConfig contains sync orchestration configuration
type SyncConfig struct {
	// Concurrency bounds how many accounts sync in parallel
	Concurrency int
	// Deadline caps one account's full sync, fetch included
	Deadline time.Duration
	// FetchTimeout caps a single fetch attempt
	FetchTimeout time.Duration
	// MaxRetries caps retry attempts for transient fetch failures
	MaxRetries int
	// CacheTTL is how long a fetched snapshot stays fresh
	CacheTTL time.Duration
	// Schedule is the cron expression for the periodic sync worker;
	// empty disables the worker
	Schedule string
}

// BaselineConfig contains rolling-baseline tunables
type BaselineConfig struct {
	// HalfLifeDays controls exponential forgetting of old samples
	HalfLifeDays float64
	// MinSamples is the cold-start suppression floor
	MinSamples int
}

// DetectorConfig contains anomaly detection tunables
type DetectorConfig struct {
	// PolicyPath optionally points at a YAML file overriding thresholds
	PolicyPath string
	// LowThresholdPct is the minimum |variance| that counts as anomalous
	LowThresholdPct float64
	// TopContributors caps the contributing-services list
	TopContributors int
	// TrendDays is how many consecutive deviant days make a trend
	TrendDays int
}

// NotifyConfig contains notification sink configuration
type NotifyConfig struct {
	WebhookURL string
	Channel    string
	Timeout    time.Duration
}

// SecretsConfig contains the credentials store configuration
type SecretsConfig struct {
	// MasterKey is the hex-encoded 32-byte secretbox key sealing provider
	// credentials at rest
	MasterKey string
	Path      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "costpulse"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./costpulse.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Sync: SyncConfig{
			Concurrency:  getEnvAsInt("SYNC_CONCURRENCY", 4),
			Deadline:     getEnvAsDuration("SYNC_DEADLINE", 60*time.Second),
			FetchTimeout: getEnvAsDuration("SYNC_FETCH_TIMEOUT", 20*time.Second),
			MaxRetries:   getEnvAsInt("SYNC_MAX_RETRIES", 3),
			CacheTTL:     getEnvAsDuration("SYNC_CACHE_TTL", 10*time.Minute),
			Schedule:     getEnv("SYNC_SCHEDULE", "0 * * * *"),
		},
		Baseline: BaselineConfig{
			HalfLifeDays: getEnvAsFloat("BASELINE_HALF_LIFE_DAYS", 14),
			MinSamples:   getEnvAsInt("BASELINE_MIN_SAMPLES", 7),
		},
		Detector: DetectorConfig{
			PolicyPath:      getEnv("DETECTOR_POLICY_PATH", ""),
			LowThresholdPct: getEnvAsFloat("DETECTOR_LOW_THRESHOLD_PCT", 20),
			TopContributors: getEnvAsInt("DETECTOR_TOP_CONTRIBUTORS", 6),
			TrendDays:       getEnvAsInt("DETECTOR_TREND_DAYS", 3),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Channel:    getEnv("NOTIFY_CHANNEL", "#cost-alerts"),
			Timeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Secrets: SecretsConfig{
			MasterKey: getEnv("CREDENTIALS_MASTER_KEY", ""),
			Path:      getEnv("CREDENTIALS_PATH", "./credentials.db"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1")
	}

	if c.Sync.Deadline <= 0 {
		return fmt.Errorf("SYNC_DEADLINE must be positive")
	}

	if c.Baseline.HalfLifeDays <= 0 {
		return fmt.Errorf("BASELINE_HALF_LIFE_DAYS must be positive")
	}

	if c.Baseline.MinSamples < 1 {
		return fmt.Errorf("BASELINE_MIN_SAMPLES must be at least 1")
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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
