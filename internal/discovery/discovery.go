// Package discovery finds the Python files a scan visits.
package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/pyrefactor/internal/config"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// rootGlob matches files in the root directory when pattern starts
	// with **/, which the glob alone would not.
	rootGlob glob.Glob
}

// FileDiscovery handles file discovery with glob patterns and ignore rules.
type FileDiscovery struct {
	rootDir        string
	codePatterns   []compiledPattern
	ignorePatterns []compiledPattern
}

// New creates a file discovery rooted at rootDir.
func New(rootDir string, codePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	var err error
	if fd.codePatterns, err = compile(codePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compile(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

// FromConfig creates a file discovery using cfg's path patterns.
func FromConfig(rootDir string, cfg *config.Config) (*FileDiscovery, error) {
	return New(rootDir, cfg.Paths.Code, cfg.Paths.Ignore)
}

func compile(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if cp.rootGlob, err = glob.Compile(simplified, '/'); err != nil {
				return nil, err
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// Discover walks the directory tree and returns the matching files in
// lexical order. Ignored directories are not entered.
func (fd *FileDiscovery) Discover(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if fd.shouldIgnore(relPath, false) {
			return nil
		}
		if matchesAny(relPath, fd.codePatterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string, dir bool) bool {
	if relPath == config.DirName || strings.HasPrefix(relPath, config.DirName+"/") {
		return true
	}
	if matchesAny(relPath, fd.ignorePatterns) {
		return true
	}
	// A directory "build" matches the pattern "build/**".
	return dir && matchesAny(relPath+"/**", fd.ignorePatterns)
}

func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if cp.rootGlob != nil && cp.rootGlob.Match(path) {
			return true
		}
	}
	return false
}
