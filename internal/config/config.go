package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data providers accepted in data_source.provider.
const (
	ProviderPolygon = "polygon"
	ProviderYahoo   = "yahoo"
	ProviderMock    = "mock"
)

// EnvFile is the dotenv file read before environment overrides are applied.
// Variables already set in the process environment win.
var EnvFile = ".env"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider           string `yaml:"provider"`
		PolygonAPIKey      string `yaml:"polygon_api_key"`
		AlphaVantageAPIKey string `yaml:"alphavantage_api_key"`
		LookbackDays       int    `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Schedule struct {
		BatchCron string `yaml:"batch_cron"`
	} `yaml:"schedule"`
	Batch struct {
		Workers     int    `yaml:"workers"`
		TickersFile string `yaml:"tickers_file"`
		OutputFile  string `yaml:"output_file"`
	} `yaml:"batch"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then the dotenv file, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if EnvFile != "" {
		if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", EnvFile, err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.PolygonAPIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.AlphaVantageAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_BATCH"); v != "" {
		cfg.Schedule.BatchCron = v
	}
	if v := os.Getenv("BATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BATCH_WORKERS: %w", err)
		}
		cfg.Batch.Workers = n
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		if cfg.DataSource.PolygonAPIKey != "" {
			cfg.DataSource.Provider = ProviderPolygon
		} else {
			cfg.DataSource.Provider = ProviderYahoo
		}
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 120
	}
	if cfg.Schedule.BatchCron == "" {
		cfg.Schedule.BatchCron = "0 30 22 * * 1-5"
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 4
	}
	if cfg.Batch.TickersFile == "" {
		cfg.Batch.TickersFile = "tickers.txt"
	}
	if cfg.Batch.OutputFile == "" {
		cfg.Batch.OutputFile = "results.csv"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stockscout.db"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	return cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderPolygon:
		if c.DataSource.PolygonAPIKey == "" {
			return fmt.Errorf("data_source.polygon_api_key is required for provider polygon")
		}
	case ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.LookbackDays < 30 {
		return fmt.Errorf("data_source.lookback_days must be at least 30")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive")
	}
	return nil
}

// ValidateDaemon additionally checks what the long-running daemon needs.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Schedule.BatchCron == "" {
		return fmt.Errorf("schedule.batch_cron is required")
	}
	return nil
}
