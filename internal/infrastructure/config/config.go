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
//	window := cfg.Matching.TransferMaxDays
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Matching      MatchingConfig      `yaml:"matching"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// MatchingConfig holds the default matcher tolerances per call site.
// These are tunable policy; the ranking semantics live in the matcher
// package.
type MatchingConfig struct {
	IncomeWindowDays     float64 `yaml:"income_window_days"`
	IncomeMaxRatio       float64 `yaml:"income_max_ratio"`
	AllocationWindowDays float64 `yaml:"allocation_window_days"`
	AllocationMaxRatio   float64 `yaml:"allocation_max_ratio"`
	TransferMaxDays      float64 `yaml:"transfer_max_days"`
	TransferMaxRatio     float64 `yaml:"transfer_max_ratio"`
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

	// Expand environment variables (e.g., ${SALDO_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := defaults()

	cfg.Server.Port = getEnvInt("SALDO_PORT", cfg.Server.Port)
	if origins := os.Getenv("SALDO_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	cfg.Storage.DatabasePath = getEnv("SALDO_DB_PATH", cfg.Storage.DatabasePath)
	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
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

// defaults returns the baseline configuration every loader starts from.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Storage: StorageConfig{
			DatabasePath: "saldo.db",
		},
		Matching: MatchingConfig{
			IncomeWindowDays:     7,
			IncomeMaxRatio:       0.20,
			AllocationWindowDays: 30,
			AllocationMaxRatio:   0.20,
			TransferMaxDays:      2,
			TransferMaxRatio:     0.05,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
