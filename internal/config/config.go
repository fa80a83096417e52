// Package config loads readlater settings from an optional YAML file and
// READLATER_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables. Each overrides the matching file setting.
const (
	EnvDataDir     = "READLATER_DATA_DIR"
	EnvStoreName   = "READLATER_STORE_NAME"
	EnvLogLevel    = "READLATER_LOG_LEVEL"
	EnvLogFormat   = "READLATER_LOG_FORMAT"
	EnvInboxDir    = "READLATER_INBOX_DIR"
	EnvMetricsAddr = "READLATER_METRICS_ADDR"
)

// DefaultStoreName is the store file name inside the data directory.
const DefaultStoreName = "readlater.sqlite"

// Config holds the settings for one process. Treated as immutable once
// loaded.
type Config struct {
	// DataDir holds the store file. Defaults to <user config dir>/readlater.
	DataDir string `yaml:"data_dir"`
	// StoreName is the store file name inside DataDir.
	StoreName string `yaml:"store_name"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// InboxDir is watched for record files by the watch command.
	InboxDir string `yaml:"inbox_dir"`
	// MetricsAddr, when set, serves /metrics during watch.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	dataDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "readlater")
	}
	return Config{
		DataDir:   dataDir,
		StoreName: DefaultStoreName,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load returns the defaults, overlaid with the YAML file at path (if path is
// non-empty), overlaid with the environment. Unknown keys in the file are an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{EnvDataDir, &cfg.DataDir},
		{EnvStoreName, &cfg.StoreName},
		{EnvLogLevel, &cfg.LogLevel},
		{EnvLogFormat, &cfg.LogFormat},
		{EnvInboxDir, &cfg.InboxDir},
		{EnvMetricsAddr, &cfg.MetricsAddr},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.StoreName == "" {
		return fmt.Errorf("config: store_name must not be empty")
	}
	if filepath.Base(c.StoreName) != c.StoreName {
		return fmt.Errorf("config: store_name %q must be a file name, not a path", c.StoreName)
	}
	return nil
}

// StorePath returns the full path of the store file.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, c.StoreName)
}
