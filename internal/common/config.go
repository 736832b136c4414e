// Package common provides shared utilities for purse
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	money "github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for purse
type Config struct {
	Environment  string             `toml:"environment"`
	HomeCurrency string             `toml:"home_currency"` // Reporting currency; exchange fees are always debited in it
	Server       ServerConfig       `toml:"server"`
	Storage      StorageConfig      `toml:"storage"`
	Logging      LoggingConfig      `toml:"logging"`
	Trend        TrendConfig        `toml:"trend"`
	Rates        map[string]float64 `toml:"rates"` // Static conversion table: 1 unit of key = value units of home currency
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetReadTimeout returns the request read timeout (default 15s).
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return durationOr(c.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the response write timeout (default 30s). Chart
// rendering is the slowest handler.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return durationOr(c.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout bounds graceful shutdown (default 10s).
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return durationOr(c.ShutdownTimeout, 10*time.Second)
}

// StorageConfig selects the storage backend and holds the settings for each.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // "sqlite" (default), "postgres", "surrealdb"
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Postgres  PostgresConfig  `toml:"postgres"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// SQLiteConfig holds the local database file location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// PostgresConfig holds the postgres connection settings.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// SurrealDBConfig holds the SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// TrendConfig holds settings for the monthly net-worth series.
type TrendConfig struct {
	Location    string `toml:"location"`     // IANA zone used to cut calendar months
	DefaultSpan string `toml:"default_span"` // lookback when no start date is given, e.g. "8760h"
	ChartWidth  int    `toml:"chart_width"`
	ChartHeight int    `toml:"chart_height"`
}

// GetLocation resolves the trend location, falling back to UTC.
func (c *TrendConfig) GetLocation() *time.Location {
	if c.Location == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDefaultSpan parses and returns the default lookback window
func (c *TrendConfig) GetDefaultSpan() time.Duration {
	return durationOr(c.DefaultSpan, 365*24*time.Hour)
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		HomeCurrency: "EUR",
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8480,
			ReadTimeout:     "15s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			SQLite:  SQLiteConfig{Path: "data/purse.db"},
			Postgres: PostgresConfig{
				MaxOpenConns: 4,
			},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "purse",
				Database:  "ledger",
				Username:  "root",
				Password:  "root",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/purse.log",
		},
		Trend: TrendConfig{
			Location:    "UTC",
			DefaultSpan: "8760h",
			ChartWidth:  900,
			ChartHeight: 400,
		},
		Rates: map[string]float64{},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env next to the working directory feeds the environment overrides
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PURSE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PURSE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PURSE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PURSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if hc := os.Getenv("PURSE_HOME_CURRENCY"); hc != "" {
		config.HomeCurrency = strings.ToUpper(hc)
	}

	if backend := os.Getenv("PURSE_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("PURSE_DATA_PATH"); path != "" {
		config.Storage.SQLite.Path = filepath.Join(path, "purse.db")
	}

	if dsn := os.Getenv("PURSE_POSTGRES_DSN"); dsn != "" {
		config.Storage.Postgres.DSN = dsn
	}

	if addr := os.Getenv("PURSE_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}
	if v := os.Getenv("PURSE_SURREALDB_USERNAME"); v != "" {
		config.Storage.SurrealDB.Username = v
	}
	if v := os.Getenv("PURSE_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}

	if loc := os.Getenv("PURSE_TREND_LOCATION"); loc != "" {
		config.Trend.Location = loc
	}
}

// Validate checks currency codes and the storage backend name.
func (c *Config) Validate() error {
	c.HomeCurrency = strings.ToUpper(strings.TrimSpace(c.HomeCurrency))
	if money.GetCurrency(c.HomeCurrency) == nil {
		return fmt.Errorf("invalid home_currency %q", c.HomeCurrency)
	}

	normalized := make(map[string]float64, len(c.Rates))
	for code, rate := range c.Rates {
		upper := strings.ToUpper(code)
		if money.GetCurrency(upper) == nil {
			return fmt.Errorf("invalid currency %q in [rates]", code)
		}
		if rate <= 0 {
			return fmt.Errorf("rate for %s must be positive", upper)
		}
		normalized[upper] = rate
	}
	c.Rates = normalized

	switch c.Storage.Backend {
	case "", "sqlite", "postgres", "surrealdb":
	default:
		return fmt.Errorf("unknown storage backend %q (supported: sqlite, postgres, surrealdb)", c.Storage.Backend)
	}

	if _, err := time.LoadLocation(c.Trend.Location); c.Trend.Location != "" && err != nil {
		return fmt.Errorf("invalid trend location %q: %w", c.Trend.Location, err)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// StorageDescription returns a short human-readable label of the active backend.
func (c *Config) StorageDescription() string {
	switch c.Storage.Backend {
	case "postgres":
		return "postgres"
	case "surrealdb":
		return "surrealdb " + c.Storage.SurrealDB.Address
	default:
		return "sqlite " + c.Storage.SQLite.Path
	}
}
