package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from YAML and the environment
type Config struct {
	Name      string          `yaml:"name"`
	LogLevel  string          `yaml:"log_level"`
	Currency  string          `yaml:"currency"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Storage   StorageConfig   `yaml:"storage"`
	Quotes    QuotesConfig    `yaml:"quotes"`
	Refresher RefresherConfig `yaml:"refresher"`
}

type HTTPConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIToken string `yaml:"api_token"`
}

type StorageConfig struct {
	DBType           string `yaml:"db_type"`
	DBPath           string `yaml:"db_path"`
	ConnectionString string `yaml:"db_connection_string"`
}

type QuotesConfig struct {
	SearchURL        string   `yaml:"search_url"`
	ChartURL         string   `yaml:"chart_url"`
	UserAgent        string   `yaml:"user_agent"`
	TimeoutSeconds   int      `yaml:"timeout_seconds"`
	Retries          int      `yaml:"retries"`
	CacheTTLSeconds  int      `yaml:"cache_ttl_seconds"`
	Concurrency      int      `yaml:"concurrency"`
	AllowedExchanges []string `yaml:"allowed_exchanges"`
}

type RefresherConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Schedule        string `yaml:"schedule"`
	MarketHoursOnly bool   `yaml:"market_hours_only"`
}

// Timeout returns the bound applied to each external lookup
func (q QuotesConfig) Timeout() time.Duration {
	return time.Duration(q.TimeoutSeconds) * time.Second
}

// CacheTTL returns the price cache freshness window
func (q QuotesConfig) CacheTTL() time.Duration {
	return time.Duration(q.CacheTTLSeconds) * time.Second
}

// Address returns host:port of the HTTP listener
func (h HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Address returns host:port of the gRPC listener
func (g GRPCConfig) Address() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Name:     "shareledger",
		LogLevel: "INFO",
		Currency: "USD",
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		GRPC: GRPCConfig{
			Enabled:  true,
			Host:     "0.0.0.0",
			Port:     8080,
			APIToken: "dev-token",
		},
		Storage: StorageConfig{
			DBType: "sqlite",
			DBPath: "portfolio.db",
		},
		Quotes: QuotesConfig{
			SearchURL:        "https://query2.finance.yahoo.com/v1/finance/search",
			ChartURL:         "https://query1.finance.yahoo.com/v8/finance/chart",
			UserAgent:        "Mozilla/5.0 (compatible; shareledger/1.0)",
			TimeoutSeconds:   5,
			Retries:          1,
			CacheTTLSeconds:  30,
			Concurrency:      4,
			AllowedExchanges: []string{"NYQ", "NMS", "NGM", "BSE", "NSE"},
		},
		Refresher: RefresherConfig{
			Enabled:         true,
			Schedule:        "@every 1m",
			MarketHoursOnly: true,
		},
	}
}

// NewConfig loads .env, then the YAML file at configPath (if any), then
// environment overrides, and validates the result
func NewConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall back to defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Currency = getEnv("CURRENCY", c.Currency)
	c.HTTP.Port = getEnvInt("HTTP_PORT", c.HTTP.Port)
	c.GRPC.Port = getEnvInt("GRPC_PORT", c.GRPC.Port)
	c.GRPC.APIToken = getEnv("API_TOKEN", c.GRPC.APIToken)
	c.Storage.DBType = getEnv("DB_TYPE", c.Storage.DBType)
	c.Storage.DBPath = getEnv("DB_PATH", c.Storage.DBPath)
	c.Storage.ConnectionString = getEnv("DB_CONN_STR", c.Storage.ConnectionString)
}

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port number: %d", c.HTTP.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GRPC.Port)
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.ConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type %q", c.Storage.DBType)
	}

	if c.Quotes.TimeoutSeconds <= 0 {
		return fmt.Errorf("quote timeout must be greater than 0")
	}
	if c.Quotes.Retries < 0 {
		return fmt.Errorf("quote retries cannot be negative")
	}
	if c.Quotes.CacheTTLSeconds <= 0 {
		return fmt.Errorf("price cache ttl must be greater than 0")
	}
	if c.Quotes.Concurrency <= 0 {
		return fmt.Errorf("quote concurrency must be greater than 0")
	}
	if len(c.Quotes.AllowedExchanges) == 0 {
		return fmt.Errorf("allowed exchanges cannot be empty")
	}

	if c.Refresher.Enabled && strings.TrimSpace(c.Refresher.Schedule) == "" {
		return fmt.Errorf("refresher schedule cannot be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
