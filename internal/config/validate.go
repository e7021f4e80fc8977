package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/pyrefactor/internal/logging"
)

var (
	// ErrEmptyCodePatterns indicates no pattern selects files to scan
	ErrEmptyCodePatterns = errors.New("empty code patterns")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidCacheCapacity indicates a non-positive analysis cache size
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidFormat indicates an unsupported output format
	ErrInvalidFormat = errors.New("invalid output format")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validatePaths(&cfg.Paths)...)

	if cfg.Analysis.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_capacity must be positive, got %d", ErrInvalidCacheCapacity, cfg.Analysis.CacheCapacity))
	}

	if !logging.ValidLevel(cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn, error or off, got '%s'", ErrInvalidLogLevel, cfg.Log.Level))
	}

	switch strings.ToLower(cfg.Output.Format) {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidFormat, FormatText, FormatJSON, cfg.Output.Format))
	}

	return joinErrors(errs)
}

func validatePaths(cfg *PathsConfig) []error {
	var errs []error
	if len(cfg.Code) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one code pattern required", ErrEmptyCodePatterns))
	}
	for _, group := range [][]string{cfg.Code, cfg.Ignore} {
		for _, pattern := range group {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
			}
		}
	}
	return errs
}

// joinErrors combines multiple errors into one that still matches each of
// them with errors.Is.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return fmt.Errorf("validation failed: %w", errors.Join(errs...))
}
