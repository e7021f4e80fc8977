package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PYREFACTOR"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from files and environment variables.
	Load() (*Config, error)
}

type loader struct {
	rootDir string
	homeDir string // empty skips the user config
	file    string // explicit config file; replaces the project config
}

// NewLoader creates a loader for the project rooted at rootDir.
func NewLoader(rootDir string) Loader {
	home, _ := os.UserHomeDir()
	return &loader{rootDir: rootDir, homeDir: home}
}

// NewFileLoader creates a loader that reads file in place of the project
// config. The user config and environment still apply.
func NewFileLoader(rootDir, file string) Loader {
	home, _ := os.UserHomeDir()
	return &loader{rootDir: rootDir, homeDir: home, file: file}
}

// Load loads configuration with the priority described in the package doc.
func (l *loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// PYREFACTOR_ANALYSIS_CACHE_CAPACITY overrides analysis.cache_capacity.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	if l.homeDir != "" {
		if err := mergeFile(v, filepath.Join(l.homeDir, DirName), ""); err != nil {
			return nil, err
		}
	}
	if err := mergeFile(v, filepath.Join(l.rootDir, DirName), l.file); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile merges the config.yml (or config.yaml) in dir, or file when
// given. A missing file in dir is not an error; a missing explicit file is.
func mergeFile(v *viper.Viper, dir, file string) error {
	if file == "" {
		for _, name := range []string{"config.yml", "config.yaml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				file = candidate
				break
			}
		}
		if file == "" {
			return nil
		}
	}

	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", file, err)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", file, err)
	}
	return nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("paths.code")
	v.BindEnv("paths.ignore")
	v.BindEnv("analysis.cache_capacity")
	v.BindEnv("log.level")
	v.BindEnv("output.format")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)
	v.SetDefault("analysis.cache_capacity", defaults.Analysis.CacheCapacity)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("output.format", defaults.Output.Format)
}

// LoadConfig loads configuration for the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration for a specific project directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
