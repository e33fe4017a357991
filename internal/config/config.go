package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the server, the bot and background jobs.
type Config struct {
	DatabaseURL    string        `yaml:"database_url"`
	HTTPAddr       string        `yaml:"http_addr"`
	TelegramToken  string        `yaml:"telegram_token"`
	LogMode        string        `yaml:"log_mode"`
	ReportInterval time.Duration `yaml:"-"`
	ReportHours    string        `yaml:"report_interval_hours"`
	RecalcTime     string        `yaml:"recalc_time"`
}

// Load reads an optional YAML file named by CONFIG_FILE, then applies
// environment variables on top and fills in defaults.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	override(&cfg.DatabaseURL, "DATABASE_URL")
	override(&cfg.HTTPAddr, "HTTP_ADDR")
	override(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	override(&cfg.LogMode, "LOG_MODE")
	override(&cfg.ReportHours, "REPORT_INTERVAL_HOURS")
	override(&cfg.RecalcTime, "RECALC_TIME")

	cfg.ReportInterval = parseInterval(cfg.ReportHours)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "habit_tracker.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "dev"
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 24 * time.Hour
	}
	if cfg.RecalcTime == "" {
		cfg.RecalcTime = "00:05"
	}

	return cfg, nil
}

// BotEnabled reports whether a Telegram token was supplied.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func loadFile(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", path, err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	return cfg, nil
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func parseInterval(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
