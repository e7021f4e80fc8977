// Package engine ties the analysis core together into a session: it parses
// modules, resolves addresses, and caches the analysis of each scope so
// that repeated queries against one scope analyze it once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"github.com/mvp-joe/pyrefactor/internal/config"
	"github.com/mvp-joe/pyrefactor/internal/dataflow"
	"github.com/mvp-joe/pyrefactor/internal/extract"
	"github.com/mvp-joe/pyrefactor/internal/pyparse"
	"github.com/mvp-joe/pyrefactor/internal/scope"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// ErrNoRange is returned by operations that need a line range when the
// address has none.
var ErrNoRange = errors.New("address has no line range")

// cacheKey identifies one scope of one parsed module.
type cacheKey struct {
	module *syntax.Module
	scope  string
}

// scopeEntry is what the session caches per scope. Entries are published
// once and never modified.
type scopeEntry struct {
	match     *scope.Match
	analysis  *dataflow.Analysis
	lifetimes *dataflow.Lifetimes
}

// Session is an analysis session. It is meant to be driven by one
// goroutine; the cache itself tolerates concurrent readers.
type Session struct {
	id     uuid.UUID
	parser *pyparse.Parser
	cache  otter.Cache[cacheKey, *scopeEntry]
	logger *slog.Logger
}

// New creates a session sized by cfg.Analysis.CacheCapacity.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	builder, err := otter.NewBuilder[cacheKey, *scopeEntry](cfg.Analysis.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}
	cache, err := builder.CollectStats().Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}

	id := uuid.New()
	return &Session{
		id:     id,
		parser: pyparse.New(),
		cache:  cache,
		logger: logger.With("session", id.String()),
	}, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id.String() }

// Close releases the cache.
func (s *Session) Close() {
	s.cache.Close()
}

// CacheStats reports cache hits and misses so far.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// Stats returns the session's cache statistics.
func (s *Session) Stats() CacheStats {
	st := s.cache.Stats()
	return CacheStats{Hits: st.Hits(), Misses: st.Misses()}
}

// Load parses a Python file.
func (s *Session) Load(ctx context.Context, path string) (*syntax.Module, error) {
	mod, err := s.parser.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded module", "path", path, "statements", len(mod.Body))
	return mod, nil
}

// ParseSource parses Python source held in memory.
func (s *Session) ParseSource(ctx context.Context, src []byte) (*syntax.Module, error) {
	return s.parser.Parse(ctx, src)
}

// Resolve parses an address.
func (s *Session) Resolve(address string) (target.Locator, error) {
	return target.Parse(address)
}

// Match finds the scope loc names in module.
func (s *Session) Match(module *syntax.Module, loc target.Locator) (*scope.Match, error) {
	e, err := s.entry(module, loc)
	if err != nil {
		return nil, err
	}
	return e.match, nil
}

// Analysis returns the definition-use analysis of the scope loc names.
// The line range of loc, if any, is ignored.
func (s *Session) Analysis(module *syntax.Module, loc target.Locator) (*dataflow.Analysis, error) {
	e, err := s.entry(module, loc)
	if err != nil {
		return nil, err
	}
	return e.analysis, nil
}

// Lifetimes returns the variable lifetimes of the scope loc names.
func (s *Session) Lifetimes(module *syntax.Module, loc target.Locator) (*dataflow.Lifetimes, error) {
	e, err := s.entry(module, loc)
	if err != nil {
		return nil, err
	}
	return e.lifetimes, nil
}

// Plan computes the extraction plan for the line range of loc.
func (s *Session) Plan(module *syntax.Module, loc target.Locator) (*extract.Plan, error) {
	if !loc.HasRange() {
		return nil, ErrNoRange
	}
	a, err := s.Analysis(module, loc)
	if err != nil {
		return nil, err
	}
	p, err := extract.Compute(a, loc.Lines.Start, loc.Lines.End)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("planned extraction", "address", loc.String(), "parameters", len(p.Parameters), "output", p.ReturnName)
	return p, nil
}

func (s *Session) entry(module *syntax.Module, loc target.Locator) (*scopeEntry, error) {
	key := cacheKey{module: module, scope: loc.Scope().String()}
	if e, ok := s.cache.Get(key); ok {
		s.logger.Debug("analysis cache hit", "scope", key.scope)
		return e, nil
	}
	s.logger.Debug("analysis cache miss", "scope", key.scope)

	m, err := scope.Find(module, loc)
	if err != nil {
		return nil, err
	}
	a := dataflow.Analyze(m)
	e := &scopeEntry{match: m, analysis: a, lifetimes: dataflow.NewLifetimes(a)}
	s.cache.Set(key, e)
	return e, nil
}
