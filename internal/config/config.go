package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Download  DownloadConfig  `yaml:"download"`
	Inspector InspectorConfig `yaml:"inspector"`
	Storage   StorageConfig   `yaml:"storage"`
	History   HistoryConfig   `yaml:"history"`
	Server    ServerConfig    `yaml:"server"`
}

// DownloadConfig holds resource download configuration.
type DownloadConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT"`
}

// InspectorConfig holds frame-inspection tool configuration.
type InspectorConfig struct {
	// FFProbePath overrides PATH lookup when set.
	FFProbePath string        `yaml:"ffprobe_path" envconfig:"FFPROBE_PATH"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"FFPROBE_TIMEOUT"`
}

// StorageConfig holds scratch workspace configuration.
type StorageConfig struct {
	TempPath string `yaml:"temp_path" envconfig:"STORAGE_TEMP_PATH"`
}

// HistoryConfig holds run-history persistence configuration.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"HISTORY_ENABLED"`
	Path    string `yaml:"path" envconfig:"HISTORY_PATH"`
}

// ServerConfig holds the history API server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// Default returns the built-in configuration. File and environment
// values are layered on top of it.
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Timeout:   2 * time.Minute,
			UserAgent: "hlscheck/1.0",
		},
		Inspector: InspectorConfig{
			Timeout: time.Minute,
		},
		Storage: StorageConfig{
			TempPath: os.TempDir(),
		},
		History: HistoryConfig{
			Path: "hlscheck-history.db",
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         9848,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Load reads configuration from file and environment variables.
// Environment variables override file values, file values override defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Download.Timeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	if c.Inspector.Timeout <= 0 {
		return fmt.Errorf("inspector timeout must be positive")
	}
	if c.Storage.TempPath == "" {
		return fmt.Errorf("STORAGE_TEMP_PATH is required")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("HISTORY_PATH is required when history is enabled")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
