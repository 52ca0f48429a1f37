// Package config loads runtime settings: an optional YAML file, then a .env
// file, then PLOT_-prefixed environment variables, each layer overriding the
// previous one.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "PLOT_"

const (
	DriverMemory  = "memory"
	DriverSQLite3 = "sqlite3" // mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite
)

type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Events   EventsConfig   `yaml:"events" envPrefix:"EVENTS_"`
}

// ServerConfig configures the HTTP API. An empty APIKey disables
// authentication, which is only sensible on a loopback address.
type ServerConfig struct {
	Listen string `yaml:"listen" env:"LISTEN"`
	APIKey string `yaml:"api_key" env:"API_KEY"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// EventsConfig configures the optional AMQP sink. An empty AMQPURL disables it.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"EXCHANGE"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Listen: "127.0.0.1:8451"},
		Database: DatabaseConfig{Driver: DriverMemory, Path: "plot.db"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Events:   EventsConfig{Exchange: "plot.events"},
	}
}

// Load reads path (skipped when empty or missing), then .env in the working
// directory, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env is optional; variables already set in the process win.
	_ = godotenv.Load()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite3, DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("config: database.path is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}

	if c.Server.Listen == "" {
		return errors.New("config: server.listen is required")
	}
	if c.Events.AMQPURL != "" && c.Events.Exchange == "" {
		return errors.New("config: events.exchange is required when amqp_url is set")
	}
	return nil
}
