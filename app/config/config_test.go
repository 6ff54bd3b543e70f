package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultPatterns, cfg.Patterns)
	require.Empty(t, cfg.IncludeIgnored)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	workspace := t.TempDir()
	path := DefaultPath(workspace)
	cfg := &Config{
		Patterns:         []string{"src/**/*.ts", "docs/**/*.md"},
		IncludeIgnored:   []string{"nodejs-sdk/models/**"},
		CachePath:        "build/meta.db",
		ExtractorVersion: "2.1.0",
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
	require.Equal(t, filepath.Join(workspace, "build", "meta.db"), loaded.ResolveCachePath(workspace))
	require.Equal(t, "2.1.0", loaded.VersionOr("dev"))

	require.Error(t, Save(path, nil))
}

func TestLoadEmptyPatternsFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("include_ignored:\n  - vendor/**\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultPatterns, cfg.Patterns)
	require.Equal(t, []string{"vendor/**"}, cfg.IncludeIgnored)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns: [unterminated\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestResolveCachePathDefaults(t *testing.T) {
	var cfg *Config
	require.Equal(t, filepath.Join("ws", ".srcmap", "cache.db"), cfg.ResolveCachePath("ws"))
	require.Equal(t, "dev", cfg.VersionOr("dev"))

	abs := filepath.Join(t.TempDir(), "abs.db")
	require.Equal(t, abs, (&Config{CachePath: abs}).ResolveCachePath("ws"))
}

func TestParseRejectsScalarPatterns(t *testing.T) {
	_, err := Parse([]byte("patterns: src/**\n"))
	require.Error(t, err)

	cfg, err := Parse([]byte("patterns:\n  - src/**\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"src/**"}, cfg.Patterns)
}
