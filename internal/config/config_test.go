package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns a valid configuration with the expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .pyrefactor/config.yml and .pyrefactor/config.yaml
// - Project config overrides user config, which overrides defaults
// - An explicit config file replaces the project config; a missing one is an error
// - Environment variables override config files
// - Load() returns errors for malformed YAML and invalid values
// - Validate() reports every invalid field, each matchable with errors.Is
// - SourceExtensions() lists unique extensions of the code patterns

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	cfgDir := filepath.Join(dir, DirName)
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	path := filepath.Join(cfgDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// isolated returns a loader whose user config lives in a temp dir.
func isolated(t *testing.T, root string) *loader {
	t.Helper()
	return &loader{rootDir: root, homeDir: t.TempDir()}
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, []string{"**/*.py", "**/*.pyi"}, cfg.Paths.Code)
	assert.Contains(t, cfg.Paths.Ignore, "**/__pycache__/**")
	assert.Equal(t, 256, cfg.Analysis.CacheCapacity)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	cfg, err := isolated(t, t.TempDir()).Load()

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsProjectConfig(t *testing.T) {
	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeConfig(t, root, name, `
paths:
  code:
    - "src/**/*.py"
  ignore:
    - "tests/**"
analysis:
  cache_capacity: 32
output:
  format: json
`)
			cfg, err := isolated(t, root).Load()

			require.NoError(t, err)
			assert.Equal(t, []string{"src/**/*.py"}, cfg.Paths.Code)
			assert.Equal(t, []string{"tests/**"}, cfg.Paths.Ignore)
			assert.Equal(t, 32, cfg.Analysis.CacheCapacity)
			assert.Equal(t, FormatJSON, cfg.Output.Format)
			assert.Equal(t, "warn", cfg.Log.Level, "unset keys keep defaults")
		})
	}
}

func TestLoad_ProjectOverridesUserConfig(t *testing.T) {
	root := t.TempDir()
	l := isolated(t, root)
	writeConfig(t, l.homeDir, "config.yml", `
log:
  level: debug
analysis:
  cache_capacity: 8
`)
	writeConfig(t, root, "config.yml", `
analysis:
  cache_capacity: 64
`)

	cfg, err := l.Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 64, cfg.Analysis.CacheCapacity)
}

func TestLoad_ExplicitFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yml", "analysis:\n  cache_capacity: 64\n")
	explicit := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(explicit, []byte("analysis:\n  cache_capacity: 4\n"), 0644))

	l := isolated(t, root)
	l.file = explicit
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Analysis.CacheCapacity)

	l.file = filepath.Join(root, "missing.yml")
	_, err = l.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yml", `
analysis:
  cache_capacity: 64
log:
  level: info
`)
	t.Setenv("PYREFACTOR_ANALYSIS_CACHE_CAPACITY", "16")
	t.Setenv("PYREFACTOR_OUTPUT_FORMAT", "json")

	cfg, err := isolated(t, root).Load()

	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Analysis.CacheCapacity)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MalformedYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yml", "analysis: [unclosed\n")

	_, err := isolated(t, root).Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yml", "analysis:\n  cache_capacity: 0\n")

	_, err := isolated(t, root).Load()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCacheCapacity))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty code patterns", func(c *Config) { c.Paths.Code = nil }, ErrEmptyCodePatterns},
		{"bad code glob", func(c *Config) { c.Paths.Code = []string{"[unclosed"} }, ErrInvalidPattern},
		{"bad ignore glob", func(c *Config) { c.Paths.Ignore = []string{"vendor/[abc"} }, ErrInvalidPattern},
		{"negative capacity", func(c *Config) { c.Analysis.CacheCapacity = -1 }, ErrInvalidCacheCapacity},
		{"unknown level", func(c *Config) { c.Log.Level = "chatty" }, ErrInvalidLogLevel},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err.Error())
		})
	}
}

func TestValidate_ReportsEveryError(t *testing.T) {
	cfg := Default()
	cfg.Analysis.CacheCapacity = 0
	cfg.Log.Level = "chatty"
	cfg.Output.Format = "xml"

	err := Validate(cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCacheCapacity))
	assert.True(t, errors.Is(err, ErrInvalidLogLevel))
	assert.True(t, errors.Is(err, ErrInvalidFormat))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestSourceExtensions(t *testing.T) {
	cfg := Default()
	cfg.Paths.Code = []string{"**/*.py", "src/*.py", "stubs/**/*.pyi", "scripts/**"}

	assert.Equal(t, []string{".py", ".pyi"}, cfg.SourceExtensions())
}
