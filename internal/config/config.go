package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultWikipediaURL is the page listing current S&P 500 constituents.
const DefaultWikipediaURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// MaxFundamentalsWorkers caps concurrent per-symbol fundamentals fetches.
const MaxFundamentalsWorkers = 10

// Config holds all application configuration.
type Config struct {
	Source struct {
		WikipediaURL string `yaml:"wikipedia_url"`
		SymbolColumn string `yaml:"symbol_column"`
	} `yaml:"source"`
	Prices struct {
		LookbackYears int    `yaml:"lookback_years"`
		Interval      string `yaml:"interval"`
		Raw           bool   `yaml:"raw"`
		Threads       int    `yaml:"threads"`
	} `yaml:"prices"`
	Fundamentals struct {
		Workers int `yaml:"workers"`
	} `yaml:"fundamentals"`
	Output struct {
		Dir        string `yaml:"dir"`
		PricesFile string `yaml:"prices_file"`
	} `yaml:"output"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error; every field has a default.
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

	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("SP500_SOURCE_URL"); v != "" {
		cfg.Source.WikipediaURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("FUNDAMENTALS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse FUNDAMENTALS_WORKERS: %w", err)
		}
		cfg.Fundamentals.Workers = n
	}
	if v := os.Getenv("COLLECTOR_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Source.WikipediaURL == "" {
		cfg.Source.WikipediaURL = DefaultWikipediaURL
	}
	if cfg.Source.SymbolColumn == "" {
		cfg.Source.SymbolColumn = "Symbol"
	}
	if cfg.Prices.LookbackYears == 0 {
		cfg.Prices.LookbackYears = 3
	}
	if cfg.Prices.Interval == "" {
		cfg.Prices.Interval = "1d"
	}
	if cfg.Fundamentals.Workers == 0 {
		cfg.Fundamentals.Workers = MaxFundamentalsWorkers
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data"
	}
	if cfg.Output.PricesFile == "" {
		cfg.Output.PricesFile = "sp500_ohlcv.csv"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Source.WikipediaURL == "" {
		return fmt.Errorf("source.wikipedia_url is required")
	}
	if c.Prices.LookbackYears < 1 {
		return fmt.Errorf("prices.lookback_years must be positive")
	}
	if c.Prices.Threads < 0 {
		return fmt.Errorf("prices.threads must not be negative")
	}
	if c.Fundamentals.Workers < 1 || c.Fundamentals.Workers > MaxFundamentalsWorkers {
		return fmt.Errorf("fundamentals.workers must be between 1 and %d", MaxFundamentalsWorkers)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether run summaries should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
