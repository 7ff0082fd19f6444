// Package config loads configuration from environment variables, an optional
// .env file and an optional YAML file.
//
// Precedence, highest first: environment, YAML file, defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the metrics listener

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json, console, auto
	LogOutput string `yaml:"log_output"` // stderr, stdout or a file path

	// Artifact store
	StorageDir      string        `yaml:"storage_dir"`
	ArtifactTTL     time.Duration `yaml:"artifact_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // 0 disables the periodic sweep

	// Volume enumeration
	VolumeTimeout time.Duration `yaml:"volume_timeout"`

	// UI
	StaticDir  string `yaml:"static_dir"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:      ":3101",
		MetricsAddr:     ":9091",
		LogLevel:        "info",
		LogFormat:       "auto",
		LogOutput:       "stderr",
		StorageDir:      "temp",
		ArtifactTTL:     24 * time.Hour,
		CleanupInterval: time.Hour,
		VolumeTimeout:   5 * time.Second,
		CORSOrigin:      "http://localhost:3100",
	}
}

// Load reads configuration with defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit YAML file. An empty file falls back to
// AUDITDASH_CONFIG.
func LoadFile(file string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	if file == "" {
		file = os.Getenv("AUDITDASH_CONFIG")
	}
	cfg := Default()
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenAddr = ":" + port
	}
	cfg.ListenAddr = envOr("LISTEN_ADDR", cfg.ListenAddr)
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.LogOutput = envOr("LOG_OUTPUT", cfg.LogOutput)
	cfg.StorageDir = envOr("STORAGE_DIR", cfg.StorageDir)
	cfg.ArtifactTTL = envDuration("ARTIFACT_TTL", cfg.ArtifactTTL)
	cfg.CleanupInterval = envDuration("CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.VolumeTimeout = envDuration("VOLUME_TIMEOUT", cfg.VolumeTimeout)
	cfg.StaticDir = envOr("STATIC_DIR", cfg.StaticDir)
	cfg.CORSOrigin = envOr("CORS_ORIGIN", cfg.CORSOrigin)

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Finalize makes paths absolute and validates the result. Call it again
// after overriding fields from command-line flags.
func (c *Config) Finalize() error {
	if c.StorageDir != "" {
		abs, err := filepath.Abs(c.StorageDir)
		if err != nil {
			return fmt.Errorf("resolve STORAGE_DIR: %w", err)
		}
		c.StorageDir = abs
	}
	return c.Validate()
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR is required")
	}
	if c.ArtifactTTL <= 0 {
		return fmt.Errorf("ARTIFACT_TTL must be positive, got %s", c.ArtifactTTL)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must not be negative, got %s", c.CleanupInterval)
	}
	if c.VolumeTimeout <= 0 {
		return fmt.Errorf("VOLUME_TIMEOUT must be positive, got %s", c.VolumeTimeout)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// envDuration accepts Go durations ("90m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs := envInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
