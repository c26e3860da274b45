package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Results API
	ResultsAPIKey  string        `envconfig:"RESULTS_API_KEY"`
	ResultsBaseURL string        `envconfig:"RESULTS_BASE_URL" default:"https://api.sportsdata.io/v3/nba"`
	ResultsTimeout time.Duration `envconfig:"RESULTS_TIMEOUT" default:"30s"`

	// Pick store backend: "postgres" or "json"
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`
	JSONStoreDir string `envconfig:"JSON_STORE_DIR" default:"data/tracking"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"picktrack"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"picktrack_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Reconciliation
	// SettleBuffer is how long after the scheduled start we wait before
	// asking the results source about a pending pick.
	SettleBuffer time.Duration `envconfig:"SETTLE_BUFFER" default:"3h"`
	// VoidBuffer is how long a pick may stay pending with no match before
	// it is voided rather than left open indefinitely.
	VoidBuffer        time.Duration `envconfig:"VOID_BUFFER" default:"72h"`
	ReferenceTimezone string        `envconfig:"REFERENCE_TIMEZONE" default:"America/New_York"`
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"15m"`
	ReconcileOnBoot   bool          `envconfig:"RECONCILE_ON_BOOT" default:"true"`

	// Scheduler
	EnableScheduler  bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	StatsRefreshCron string `envconfig:"STATS_REFRESH_CRON" default:"0 6 * * *"`

	// Dashboard
	EnableDashboard bool   `envconfig:"ENABLE_DASHBOARD" default:"true"`
	DashboardPath   string `envconfig:"DASHBOARD_PATH" default:"public/index.html"`

	// Caching TTL (in seconds)
	CacheTTLStatLines int `envconfig:"CACHE_TTL_STAT_LINES" default:"900"`
	CacheTTLFinals    int `envconfig:"CACHE_TTL_FINALS" default:"900"`

	// Feature Flags
	EnableCLVTracking bool `envconfig:"ENABLE_CLV_TRACKING" default:"true"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "postgres":
		if c.DatabasePassword == "" {
			return fmt.Errorf("DATABASE_PASSWORD is required for the postgres backend")
		}
	case "json":
		if c.JSONStoreDir == "" {
			return fmt.Errorf("JSON_STORE_DIR is required for the json backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (expected postgres or json)", c.StoreBackend)
	}

	if c.SettleBuffer < 0 || c.VoidBuffer < 0 {
		return fmt.Errorf("settle and void buffers must be non-negative")
	}
	if c.VoidBuffer < c.SettleBuffer {
		return fmt.Errorf("VOID_BUFFER must be at least SETTLE_BUFFER")
	}

	if _, err := time.LoadLocation(c.ReferenceTimezone); err != nil {
		return fmt.Errorf("invalid REFERENCE_TIMEZONE %q: %w", c.ReferenceTimezone, err)
	}

	return nil
}

// ValidateResults checks the settings the results client needs. Only the
// worker talks to the results API; the record and grade CLIs skip this.
func (c *Config) ValidateResults() error {
	if c.ResultsAPIKey == "" {
		return fmt.Errorf("RESULTS_API_KEY is required")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Location returns the reference timezone used for calendar-day matching.
// Validate has already checked the zone name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
