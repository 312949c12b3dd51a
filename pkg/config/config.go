// Package config loads service configuration from config/app.yaml, a local
// .env file and environment overrides, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where the service looks for its YAML config.
const DefaultPath = "config/app.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Data     DataConfig     `yaml:"data"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	EnableMetrics   bool   `yaml:"enable_metrics"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig enables the alert scan lock. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// DataConfig points at reference data and the file store.
type DataConfig struct {
	CatalogPath        string `yaml:"catalog_path"`
	ClassificationPath string `yaml:"classification_path"`
	StoreDir           string `yaml:"store_dir"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled reports whether enough SMTP settings exist to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// AlertsConfig drives the payment-alert daemon.
type AlertsConfig struct {
	Schedule   string            `yaml:"schedule"`   // standard 5-field cron spec
	Recipients map[string]string `yaml:"recipients"` // organization ID -> email
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 10,
			EnableMetrics:   true,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Data: DataConfig{
			CatalogPath:        "resources/catalog.hjson",
			ClassificationPath: "resources/classification.yaml",
			StoreDir:           ".cache/ledger",
		},
		SMTP:   SMTPConfig{Port: "587"},
		Alerts: AlertsConfig{Schedule: "0 7 * * *"},
	}
}

// Load builds the configuration. A missing YAML file is not an error; the
// defaults plus environment apply.
func Load(path string) (*Config, error) {
	// .env is optional in every environment
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("LEDGER_ADDR", cfg.Server.Addr)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Data.CatalogPath = getEnv("CATALOG_PATH", cfg.Data.CatalogPath)
	cfg.Data.ClassificationPath = getEnv("CLASSIFICATION_PATH", cfg.Data.ClassificationPath)
	cfg.Data.StoreDir = getEnv("STORE_DIR", cfg.Data.StoreDir)
	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnv("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)
	cfg.Alerts.Schedule = getEnv("ALERT_SCHEDULE", cfg.Alerts.Schedule)
	if v, ok := os.LookupEnv("ENABLE_METRICS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.EnableMetrics = b
		}
	}
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Data.CatalogPath == "" {
		return fmt.Errorf("catalog path is required")
	}
	if c.Server.ReadTimeoutSec < 0 || c.Server.WriteTimeoutSec < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if _, err := cron.ParseStandard(c.Alerts.Schedule); err != nil {
		return fmt.Errorf("invalid alert schedule %q: %w", c.Alerts.Schedule, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
