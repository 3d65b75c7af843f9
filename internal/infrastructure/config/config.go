// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	prefix := cfg.Tagging.DescriptionPrefix
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Ledger        LedgerConfig        `yaml:"ledger"`
	Tagging       TaggingConfig       `yaml:"tagging"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LedgerConfig holds ledger service connection settings
type LedgerConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// TaggingConfig holds reconciliation behavior settings
type TaggingConfig struct {
	// NoItemize produces one summarized entry per matched transaction
	// instead of splitting it into per-item entries.
	NoItemize bool `yaml:"no_itemize"`

	// DescriptionPrefix marks tagged debit entries; it also detects
	// entries tagged by a prior run.
	DescriptionPrefix string `yaml:"description_prefix"`

	// RefundPrefix is the credit-side counterpart.
	RefundPrefix string `yaml:"refund_prefix"`

	// RetagChanged overrides user edits on previously tagged entries.
	RetagChanged bool `yaml:"retag_changed"`

	// MerchantKeyword limits matching to transactions whose original
	// description contains this keyword (case-insensitive).
	MerchantKeyword string `yaml:"merchant_keyword"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP API server settings
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LEDGER_TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Ledger: LedgerConfig{
			BaseURL: getEnv("LEDGER_BASE_URL", "https://mint.intuit.com"),
			Token:   os.Getenv("LEDGER_TOKEN"),
		},
		Tagging: TaggingConfig{
			NoItemize:         getEnv("TAGGER_NO_ITEMIZE", "") != "",
			DescriptionPrefix: getEnv("TAGGER_PREFIX", "Amazon.com: "),
			RefundPrefix:      getEnv("TAGGER_REFUND_PREFIX", "Amazon.com refund: "),
			MerchantKeyword:   getEnv("TAGGER_MERCHANT_KEYWORD", "amazon"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("TAGGER_DB_PATH", "tagger.db"),
		},
		API: APIConfig{
			ListenAddr: getEnv("TAGGER_API_ADDR", ":8080"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Ledger.BaseURL == "" {
		c.Ledger.BaseURL = "https://mint.intuit.com"
	}
	if c.Tagging.DescriptionPrefix == "" {
		c.Tagging.DescriptionPrefix = "Amazon.com: "
	}
	if c.Tagging.RefundPrefix == "" {
		c.Tagging.RefundPrefix = "Amazon.com refund: "
	}
	if c.Tagging.MerchantKeyword == "" {
		c.Tagging.MerchantKeyword = "amazon"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "tagger.db"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
