// Package config loads pyrefactor settings.
//
// Settings are layered, highest priority first:
//  1. Environment variables (PYREFACTOR_*, dots become underscores)
//  2. Project config (<root>/.pyrefactor/config.yml)
//  3. User config (~/.pyrefactor/config.yml)
//  4. Built-in defaults
package config

import (
	"strings"
)

// DirName is the directory holding config files, both in the project root
// and in the user's home.
const DirName = ".pyrefactor"

// Config represents the complete pyrefactor configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files scan visits.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for Python files
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to skip
}

// AnalysisConfig tunes the analysis session.
type AnalysisConfig struct {
	CacheCapacity int `yaml:"cache_capacity" mapstructure:"cache_capacity"` // analyzed scopes kept per session
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error or off
}

// OutputConfig selects how results are printed.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Code: []string{"**/*.py", "**/*.pyi"},
			Ignore: []string{
				".git/**",
				".venv/**",
				"venv/**",
				".tox/**",
				"build/**",
				"dist/**",
				"**/__pycache__/**",
				"**/node_modules/**",
			},
		},
		Analysis: AnalysisConfig{
			CacheCapacity: 256,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}

// SourceExtensions extracts the unique file extensions of the code
// patterns, with the leading dot (e.g. ".py").
func (c *Config) SourceExtensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, pattern := range c.Paths.Code {
		if ext := extractExtension(pattern); ext != "" && !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}

// extractExtension extracts the file extension from a glob pattern.
// Examples: "**/*.py" -> ".py", "*.pyi" -> ".pyi", "src/**" -> "".
func extractExtension(pattern string) string {
	i := strings.LastIndex(pattern, "*.")
	if i < 0 {
		return ""
	}
	ext := pattern[i+1:]
	if strings.ContainsAny(ext, "*?[{/") {
		return ""
	}
	return ext
}
