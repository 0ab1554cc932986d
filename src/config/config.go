package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"options-observer/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the YAML file.
const (
	EnvDataDir        = "OPTIONS_OBSERVER_DATA_DIR"
	EnvPort           = "OPTIONS_OBSERVER_PORT"
	EnvLogLevel       = "OPTIONS_OBSERVER_LOG_LEVEL"
	EnvTelegramToken  = "OPTIONS_OBSERVER_TELEGRAM_TOKEN"
	EnvTelegramChatID = "OPTIONS_OBSERVER_TELEGRAM_CHAT_ID"
	EnvDBDSN          = "OPTIONS_OBSERVER_DB_DSN"
)

// Features table backends.
const (
	BackendParquet    = "parquet"
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig

	// FromDefaults is true when no config file was found.
	FromDefaults bool
}

// -----------------------------------------------------------------------------

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	dataDir := filepath.Join("data", "options")
	return &Config{MConfig: &models.MConfig{
		Name:     "options-observer",
		Host:     "0.0.0.0",
		Port:     8050,
		LogLevel: "info",
		GrpcHost: "127.0.0.1",
		GrpcPort: 0,
		Storage: models.MStorageConfig{
			DataDir:         dataDir,
			DailyDir:        filepath.Join(dataDir, "daily"),
			FeaturesPath:    filepath.Join(dataDir, "features", "options_features_daily.parquet"),
			FeaturesBackend: BackendParquet,
			DBPath:          filepath.Join(dataDir, "features", "options_features_daily.db"),
		},
		Network: models.MNetworkConfig{
			RequestTimeout: 30 * time.Second,
		},
		DataSource: models.MDataSourceConfig{
			Name:      "yahoo",
			BaseURL:   "https://query2.finance.yahoo.com",
			CookieURL: "https://fc.yahoo.com",
			Tickers: []string{
				"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN",
				"META", "TSLA", "JPM", "UNH", "XOM",
			},
		},
		Fetcher: models.MFetcherConfig{
			MaxExpiries:          3,
			MaxRetries:           3,
			RetryBackoff:         2 * time.Second,
			SleepBetweenTickers:  time.Second,
			SleepBetweenExpiries: 500 * time.Millisecond,
		},
		Telegram: models.MTelegramConfig{
			MaxRetries:     3,
			RetryDelayBase: time.Second,
		},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file layered over Default().
// A missing file is not an error: the defaults are returned with FromDefaults set.
func NewConfig(configPath string) (*Config, error) {
	config := Default()

	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		config.FromDefaults = true
	case err != nil:
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	default:
		// 2. Unmarshal over the defaults
		if err := yaml.Unmarshal(data, config.MConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	// 3. Environment overrides (.env is optional)
	_ = godotenv.Load()
	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides fields from environment lookups.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvDataDir); v != "" {
		c.Storage.DataDir = v
		c.Storage.DailyDir = filepath.Join(v, "daily")
		c.Storage.FeaturesPath = filepath.Join(v, "features", "options_features_daily.parquet")
		c.Storage.DBPath = filepath.Join(v, "features", "options_features_daily.db")
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q: %w", EnvPort, v, err)
		}
		c.Port = port
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvTelegramToken); v != "" {
		c.Telegram.BotToken = v
	}
	if v := getenv(EnvTelegramChatID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid chat id %q: %w", EnvTelegramChatID, v, err)
		}
		c.Telegram.ChatID = id
	}
	if v := getenv(EnvDBDSN); v != "" {
		c.Storage.DBConnectionString = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Dashboard server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be 0 or between 1025 and 65535)", c.GrpcPort)
	}

	// Storage
	if c.Storage.DailyDir == "" {
		return fmt.Errorf("daily snapshot directory cannot be empty")
	}
	switch c.Storage.FeaturesBackend {
	case BackendParquet:
		if c.Storage.FeaturesPath == "" {
			return fmt.Errorf("features path cannot be empty for parquet")
		}
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case BackendPostgres, BackendClickHouse:
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for %s", c.Storage.FeaturesBackend)
		}
	default:
		return fmt.Errorf("unknown features backend %q (want parquet, sqlite, postgres or clickhouse)", c.Storage.FeaturesBackend)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// DataSource
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data source base url cannot be empty")
	}
	if len(c.DataSource.Tickers) == 0 {
		return fmt.Errorf("at least one ticker must be configured")
	}
	for i, tk := range c.DataSource.Tickers {
		if strings.TrimSpace(tk) == "" {
			return fmt.Errorf("ticker %d cannot be empty", i)
		}
	}

	// Fetcher
	if c.Fetcher.MaxExpiries < 1 {
		return fmt.Errorf("max expiries must be at least 1")
	}
	if c.Fetcher.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.Fetcher.RetryBackoff < 0 || c.Fetcher.SleepBetweenTickers < 0 || c.Fetcher.SleepBetweenExpiries < 0 {
		return fmt.Errorf("fetcher durations cannot be negative")
	}

	// Telegram
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram chat id is required when telegram is enabled")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
