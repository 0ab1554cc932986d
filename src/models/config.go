package models

import "time"

// MConfig Structure
type MConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	GrpcHost string `yaml:"grpc_host"`
	GrpcPort int    `yaml:"grpc_port"` // 0 disables the control plane

	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Fetcher    MFetcherConfig    `yaml:"fetcher"`
	Telegram   MTelegramConfig   `yaml:"telegram"`
}

type MStorageConfig struct {
	DataDir      string `yaml:"data_dir"`
	DailyDir     string `yaml:"daily_dir"`
	FeaturesPath string `yaml:"features_path"`

	// FeaturesBackend is one of parquet, sqlite, postgres, clickhouse.
	FeaturesBackend    string `yaml:"features_backend"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Proxies        []string      `yaml:"proxies"`
	RequestTimeout time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	Name      string   `yaml:"name"`
	BaseURL   string   `yaml:"base_url"`
	CookieURL string   `yaml:"cookie_url"` // session cookie the crumb is bound to; empty skips it
	Tickers   []string `yaml:"tickers"`
}

type MFetcherConfig struct {
	MaxExpiries          int           `yaml:"max_expiries"`
	MaxRetries           int           `yaml:"max_retries"`
	RetryBackoff         time.Duration `yaml:"retry_backoff"`
	SleepBetweenTickers  time.Duration `yaml:"sleep_between_tickers"`
	SleepBetweenExpiries time.Duration `yaml:"sleep_between_expiries"`
	SkipNonTradingDays   bool          `yaml:"skip_non_trading_days"`
}

type MTelegramConfig struct {
	Enabled        bool          `yaml:"enabled"`
	BotToken       string        `yaml:"bot_token"`
	ChatID         int64         `yaml:"chat_id"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelayBase time.Duration `yaml:"retry_delay_base"`
}
