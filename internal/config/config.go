package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"MAWatch/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultWatchlist is scanned when no watchlist is configured.
var DefaultWatchlist = []string{"ASML", "COST", "AMZN", "MSFT", "AMD", "AAPL", "GOOGL", "META"}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		LookbackYears int    `yaml:"lookback_years"`
	} `yaml:"data_source"`
	Watchlist []string `yaml:"watchlist"`
	Rules     struct {
		NearPercent float64     `yaml:"near_percent"`
		EMA         model.Spans `yaml:"ema"`
	} `yaml:"rules"`
	Chart struct {
		Dir string `yaml:"dir"`
	} `yaml:"chart"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url"`
		ListenAddr     string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = ParseWatchlist(v)
	}
	if v := os.Getenv("NEAR_PERCENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse NEAR_PERCENT: %w", err)
		}
		c.Rules.NearPercent = f
	}
	for key, dst := range map[string]*int{
		"EMA_LONG":       &c.Rules.EMA.Long,
		"EMA_MEDIUM":     &c.Rules.EMA.Medium,
		"EMA_LONG_LOWER": &c.Rules.EMA.LongLower,
		"EMA_SHORT":      &c.Rules.EMA.Short,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = n
	}
	if v := os.Getenv("CHART_DIR"); v != "" {
		c.Chart.Dir = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Watchlist) == 0 {
		c.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	if c.DataSource.LookbackYears == 0 {
		c.DataSource.LookbackYears = 3
	}
	if c.Rules.NearPercent == 0 {
		c.Rules.NearPercent = 0.01
	}
	if c.Rules.EMA.Long == 0 {
		c.Rules.EMA.Long = 576
	}
	if c.Rules.EMA.Medium == 0 {
		c.Rules.EMA.Medium = 169
	}
	if c.Rules.EMA.LongLower == 0 {
		c.Rules.EMA.LongLower = 676
	}
	if c.Rules.EMA.Short == 0 {
		c.Rules.EMA.Short = 144
	}
	if c.Chart.Dir == "" {
		c.Chart.Dir = os.TempDir()
	}
	// Weekdays after the US close.
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 21 * * 1-5"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	e := c.Rules.EMA
	if e.Long <= 0 || e.Medium <= 0 || e.LongLower <= 0 || e.Short <= 0 {
		return fmt.Errorf("rules.ema spans must be positive, got %+v", e)
	}
	if c.Rules.NearPercent <= 0 || c.Rules.NearPercent >= 1 {
		return fmt.Errorf("rules.near_percent must be in (0, 1), got %v", c.Rules.NearPercent)
	}
	if c.DataSource.LookbackYears <= 0 {
		return fmt.Errorf("data_source.lookback_years must be positive")
	}
	return nil
}

// Spans returns the configured EMA periods.
func (c *Config) Spans() model.Spans { return c.Rules.EMA }

// ParseWatchlist splits a comma separated list, trims and upper-cases symbols
// and drops duplicates while keeping the first occurrence.
func ParseWatchlist(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
