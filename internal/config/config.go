// Package config loads the studio configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the top-level studio configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	History  HistoryConfig  `yaml:"history"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects where records are persisted.
type StorageConfig struct {
	Driver      string        `yaml:"driver"` // memory | sqlite
	Path        string        `yaml:"path"`   // sqlite database file
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"` // 0 keeps everything
}

// AutosaveConfig controls background saves.
type AutosaveConfig struct {
	EveryCommits int `yaml:"every_commits"` // 0 disables autosave
}

// ExportConfig controls PNG export. A zero width or height fits the
// output to the content.
type ExportConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Padding float64 `yaml:"padding"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads a YAML file, fills defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("STUDIO_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("STUDIO_STORAGE"); ok && v != "" {
		c.Storage.Driver = v
	}
	if v, ok := lookup("STUDIO_DB_PATH"); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := lookup("STUDIO_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/studio.db"
	}
	if c.Storage.SaveTimeout <= 0 {
		c.Storage.SaveTimeout = 10 * time.Second
	}
	if c.History.MaxEntries < 0 {
		c.History.MaxEntries = 0
	}
	if c.Autosave.EveryCommits < 0 {
		c.Autosave.EveryCommits = 0
	}
	if c.Export.Padding <= 0 {
		c.Export.Padding = 16
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("%w: storage.driver %q (want memory or sqlite)", ErrInvalid, c.Storage.Driver)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	if c.Export.Width < 0 || c.Export.Height < 0 {
		return fmt.Errorf("%w: export size must not be negative", ErrInvalid)
	}

	return nil
}

// SlogLevel converts the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, l.Level)
	}
}
