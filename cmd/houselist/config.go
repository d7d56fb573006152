package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"jabberwocky238/houselist/internal/types"
	"jabberwocky238/houselist/listing"
	"jabberwocky238/houselist/storage"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log     LogConfig             `yaml:"log"`
	HTTP    HTTPConfig            `yaml:"http"`
	Source  SourceConfig          `yaml:"source"`
	Search  listing.SessionConfig `yaml:"search"`
	Storage storage.Config        `yaml:"storage"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text or console
}

type HTTPConfig struct {
	Listen string     `yaml:"listen"`
	Auth   AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`
}

// SourceConfig controls the simulated record backend.
type SourceConfig struct {
	Delay    string `yaml:"delay"`
	SeedFile string `yaml:"seed_file"`
	// Fail, when set, makes every load fail with this message.
	Fail string `yaml:"fail"`
}

func defaultConfig() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		HTTP:    HTTPConfig{Listen: ":8080"},
		Source:  SourceConfig{Delay: listing.DefaultLoadDelay.String()},
		Search:  listing.DefaultSessionConfig(),
		Storage: storage.Config{Type: storage.TypeMemory},
	}
}

// loadConfig reads path over the defaults. A missing file yields the
// defaults.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Config file not found, using defaults", "path", path)
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// validateConfig validates the configuration and checks required environment variables
func validateConfig(config *Config) error {
	switch config.Log.Format {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("unknown log format %q", config.Log.Format)
	}
	if _, err := parseLevel(config.Log.Level); err != nil {
		return err
	}

	if _, err := parseDelay(config.Source.Delay); err != nil {
		return err
	}

	switch config.Storage.Type {
	case "", storage.TypeMemory:
	case storage.TypeFile:
		if config.Storage.File.Path == "" {
			return fmt.Errorf("file storage requires file.path")
		}
	case storage.TypeConfigMap:
		if config.Storage.ConfigMap.Namespace == "" || config.Storage.ConfigMap.Name == "" {
			return fmt.Errorf("configmap storage requires configmap.namespace and configmap.name")
		}
	case storage.TypeSQLite:
		if config.Storage.SQLite.Path == "" {
			return fmt.Errorf("sqlite storage requires sqlite.path")
		}
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownStoreType, config.Storage.Type)
	}

	if config.HTTP.Auth.Enabled {
		if config.HTTP.Auth.TokenEnv == "" {
			return fmt.Errorf("HTTP authentication is enabled but token_env is not configured")
		}
		if os.Getenv(config.HTTP.Auth.TokenEnv) == "" {
			return fmt.Errorf("HTTP authentication is enabled but environment variable %s is not set or empty", config.HTTP.Auth.TokenEnv)
		}
		slog.Info("HTTP authentication validated", "token_env", config.HTTP.Auth.TokenEnv)
	}

	return nil
}

func parseDelay(s string) (time.Duration, error) {
	if s == "" {
		return listing.DefaultLoadDelay, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse source.delay: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("source.delay must not be negative, got %s", d)
	}
	return d, nil
}

// sourceConfig turns the file-level source settings into a listing.SourceConfig.
func sourceConfig(cfg SourceConfig) (listing.SourceConfig, error) {
	delay, err := parseDelay(cfg.Delay)
	if err != nil {
		return listing.SourceConfig{}, err
	}

	out := listing.SourceConfig{Seed: listing.DefaultSeed(), Delay: delay}
	if cfg.SeedFile != "" {
		seed, err := listing.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return listing.SourceConfig{}, err
		}
		out.Seed = seed
	}
	if cfg.Fail != "" {
		out.FailWith = errors.New(cfg.Fail)
	}
	return out, nil
}
