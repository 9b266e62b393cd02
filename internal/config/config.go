// Package config loads the top-level ledgerline.yaml configuration, with
// environment overrides for the values that differ per deployment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level ledgerline.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Data    DataConfig    `yaml:"data"`
}

// ServerConfig holds the listen addresses.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// StorageConfig selects the ledger store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory" or "postgres"
	DSN    string `yaml:"dsn,omitempty"`
}

// CacheConfig configures the optional statement cache. An empty Addr
// disables it.
type CacheConfig struct {
	Addr       string `yaml:"addr,omitempty"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds,omitempty"`
}

// DataConfig locates the chart-of-accounts and currency CSV files.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads a ledgerline.yaml file from disk and applies environment
// overrides. A .env file next to the process is honored when present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	_ = godotenv.Load() // optional .env; absence is not an error
	cfg.applyEnv()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new installation.
func Default(dataDir string) *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
		},
		Storage: StorageConfig{
			Driver: "memory",
		},
		Cache: CacheConfig{
			TTLSeconds: 30,
		},
		Data: DataConfig{
			Dir: dataDir,
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LEDGERLINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LEDGERLINE_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("LEDGERLINE_DB_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("LEDGERLINE_DB_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("LEDGERLINE_REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}
	if v := os.Getenv("LEDGERLINE_REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("LEDGERLINE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Cache.DB = db
		}
	}
	if v := os.Getenv("LEDGERLINE_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
}
