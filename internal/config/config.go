// Package config handles configuration loading and validation for pockettasks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pockettasks/internal/models"
	"pockettasks/internal/store"
	"pockettasks/internal/taskstore"
)

// Config holds the application configuration.
type Config struct {
	Storage         StorageConfig `yaml:"storage"`
	HTTP            HTTPConfig    `yaml:"http"`
	DefaultCategory string        `yaml:"default_category"`
	Categories      []string      `yaml:"categories"`
	DataDir         string        `yaml:"-"` // set by caller, not from config file
}

// StorageConfig selects and configures the persistence provider.
type StorageConfig struct {
	Backend      store.Backend `yaml:"backend"` // sqlite, redis, memory
	Key          string        `yaml:"key"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	SQLite       SQLiteConfig  `yaml:"sqlite"`
	Redis        RedisConfig   `yaml:"redis"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // defaults to <data-dir>/pockettasks.db
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// HTTPConfig holds settings for the local HTTP bridge.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend:      store.BackendSQLite,
			Key:          taskstore.DefaultKey,
			WriteTimeout: taskstore.DefaultWriteTimeout,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "pockettasks:",
			},
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8080",
		},
		DefaultCategory: models.DefaultCategory,
		Categories:      slices.Clone(models.SuggestedCategories),
	}
}

// Load reads the config file at path on top of DefaultConfig. A missing file
// is not an error.
func Load(path, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if cfg.Storage.SQLite.Path == "" && cfg.DataDir != "" {
		cfg.Storage.SQLite.Path = filepath.Join(cfg.DataDir, "pockettasks.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case store.BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required for the sqlite backend"))
		}
	case store.BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for the redis backend"))
		}
	case store.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be sqlite, redis, or memory, got %q", c.Storage.Backend))
	}

	if strings.TrimSpace(c.Storage.Key) == "" {
		errs = append(errs, errors.New("storage.key is required"))
	}

	if c.Storage.WriteTimeout <= 0 {
		errs = append(errs, errors.New("storage.write_timeout must be positive"))
	}

	if strings.TrimSpace(c.DefaultCategory) == "" {
		errs = append(errs, errors.New("default_category is required"))
	}

	return errors.Join(errs...)
}

// StoreOptions converts the storage section into store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Storage.Backend,
		SQLitePath:    c.Storage.SQLite.Path,
		RedisAddr:     c.Storage.Redis.Addr,
		RedisPassword: c.Storage.Redis.Password,
		RedisDB:       c.Storage.Redis.DB,
		RedisPrefix:   c.Storage.Redis.Prefix,
	}
}
