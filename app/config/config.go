// Package config loads the workspace settings stored in .srcmap/config.yaml.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configDirName = ".srcmap"
	cacheFileName = "cache.db"
)

// DefaultPatterns is used when the config lists no patterns.
var DefaultPatterns = []string{"**/*"}

// Config matches .srcmap/config.yaml inside the workspace.
type Config struct {
	Patterns         []string `yaml:"patterns"`
	IncludeIgnored   []string `yaml:"include_ignored,omitempty"`
	CachePath        string   `yaml:"cache_path,omitempty"`
	ExtractorVersion string   `yaml:"extractor_version,omitempty"`
}

// Dir resolves the directory storing workspace settings.
func Dir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configDirName)
}

// DefaultPath returns the canonical config file location for workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(Dir(workspace), "config.yaml")
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{Patterns: append([]string(nil), DefaultPatterns...)}
}

// Load reads the config at path, returning defaults when it is missing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes config YAML, filling in the default patterns.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = append([]string(nil), DefaultPatterns...)
	}
	return &cfg, nil
}

// ListKeys are the top-level keys holding glob lists.
var ListKeys = []string{"patterns", "include_ignored"}

// Save writes the config to disk.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveCachePath returns the metadata database location. Relative
// entries are resolved against workspace and ~ expands to the home dir.
func (c *Config) ResolveCachePath(workspace string) string {
	if c == nil || c.CachePath == "" {
		return filepath.Join(Dir(workspace), cacheFileName)
	}
	return expandPath(c.CachePath, workspace)
}

// VersionOr returns the configured extractor version or fallback.
func (c *Config) VersionOr(fallback string) string {
	if c == nil || c.ExtractorVersion == "" {
		return fallback
	}
	return c.ExtractorVersion
}

func expandPath(path, workspace string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspace, path)
}
