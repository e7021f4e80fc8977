package engine

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/pyrefactor/internal/dataflow"
	"github.com/mvp-joe/pyrefactor/internal/extract"
	"github.com/mvp-joe/pyrefactor/internal/scope"
	"github.com/mvp-joe/pyrefactor/internal/synth"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// ErrNoConditionRun is returned by Consolidate when the scope has no run of
// guard clauses returning the same value.
var ErrNoConditionRun = errors.New("no consecutive conditions return the same value")

// Extraction is the result of extracting a line range into a new function.
type Extraction struct {
	Plan *extract.Plan
	// Function is the new def; Call replaces the range.
	Function *syntax.FunctionDef
	Call     syntax.Stmt
	// Scope is the rewritten scope and Module the rewritten module, which
	// also holds Function.
	Scope  *syntax.FunctionDef
	Module *syntax.Module
}

// Extract plans the extraction of loc's line range and materializes it.
// The new function becomes a method next to the scope when it needs the
// receiver, and a module-level function after the scope's top-level
// statement otherwise. module is not modified.
func (s *Session) Extract(module *syntax.Module, loc target.Locator, name string) (*Extraction, error) {
	p, err := s.Plan(module, loc)
	if err != nil {
		return nil, err
	}

	fn := synth.ExtractedFunction(name, p, nil)
	call := synth.CallSite(name, p)
	first := p.Statements[0].NodeSpan()
	last := p.Statements[len(p.Statements)-1].NodeSpan()

	var scopeDef *syntax.FunctionDef
	out, err := scope.Replace(module, loc, func(def *syntax.FunctionDef) *syntax.FunctionDef {
		body, ok := splice(def.Body, first, last, syntax.CloneStmt(call))
		if !ok {
			// Plans always select statements of the scope itself.
			panic(fmt.Sprintf("engine: planned statements of %s not found in its body", loc))
		}
		def.Body = body
		scopeDef = def
		return def
	})
	if err != nil {
		return nil, err
	}
	insertAfter(out, scopeDef, syntax.CloneFunc(fn), p.UsesReceiver)

	s.logger.Debug("extracted function", "address", loc.String(), "name", name)
	return &Extraction{Plan: p, Function: fn, Call: call, Scope: scopeDef, Module: out}, nil
}

// Consolidation is the result of merging guard clauses.
type Consolidation struct {
	Run       synth.ConditionRun
	Predicate *syntax.FunctionDef
	Guard     *syntax.If
	Scope     *syntax.FunctionDef
	Module    *syntax.Module
}

// Consolidate merges the first run of guard clauses in loc's scope that
// return the same value into one guard calling a new predicate named name.
// The predicate takes the scope's names its conditions read.
func (s *Session) Consolidate(module *syntax.Module, loc target.Locator, name string) (*Consolidation, error) {
	e, err := s.entry(module, loc)
	if err != nil {
		return nil, err
	}
	run, ok := synth.SameResultRun(e.match.Func.Body)
	if !ok {
		return nil, ErrNoConditionRun
	}

	a := e.analysis
	var params []string
	usesReceiver := false
	seen := make(map[string]bool)
	for _, test := range run.Tests {
		for _, n := range dataflow.Refs(test) {
			switch {
			case n == a.Scope.Receiver:
				usesReceiver = true
			case seen[n]:
			default:
				if _, ok := a.Record(n); ok {
					seen[n] = true
					params = append(params, n)
				}
			}
		}
	}
	var receiver string
	if usesReceiver {
		receiver = a.Scope.Receiver
	}

	pred, guard := synth.ConsolidatedConditions(name, run, params, receiver)

	var scopeDef *syntax.FunctionDef
	out, err := scope.Replace(module, loc, func(def *syntax.FunctionDef) *syntax.FunctionDef {
		body := make([]syntax.Stmt, 0, len(def.Body)-(run.End-run.Start))
		body = append(body, def.Body[:run.Start]...)
		body = append(body, syntax.CloneStmt(guard))
		body = append(body, def.Body[run.End+1:]...)
		def.Body = body
		scopeDef = def
		return def
	})
	if err != nil {
		return nil, err
	}
	insertAfter(out, scopeDef, syntax.CloneFunc(pred), usesReceiver)

	return &Consolidation{Run: run, Predicate: pred, Guard: guard, Scope: scopeDef, Module: out}, nil
}

// splice replaces the statements spanning first..last, found in stmts or
// one of its nested blocks, with repl.
func splice(stmts []syntax.Stmt, first, last syntax.Span, repl syntax.Stmt) ([]syntax.Stmt, bool) {
	for i, st := range stmts {
		if st.NodeSpan() != first {
			continue
		}
		for j := i; j < len(stmts); j++ {
			if stmts[j].NodeSpan() == last {
				out := make([]syntax.Stmt, 0, len(stmts)-(j-i))
				out = append(out, stmts[:i]...)
				out = append(out, repl)
				return append(out, stmts[j+1:]...), true
			}
		}
		return nil, false
	}

	for _, st := range stmts {
		if !st.NodeSpan().ContainsLine(first.StartLine()) {
			continue
		}
		if spliceNested(st, first, last, repl) {
			return stmts, true
		}
	}
	return nil, false
}

func spliceNested(s syntax.Stmt, first, last syntax.Span, repl syntax.Stmt) bool {
	switch s.(type) {
	case *syntax.FunctionDef, *syntax.ClassDef:
		return false
	}
	for _, block := range blockRefs(s) {
		out, ok := splice(*block, first, last, repl)
		if ok {
			*block = out
			return true
		}
	}
	return false
}

// blockRefs returns the nested statement sequences of s by reference, so
// that they can be rewritten in place.
func blockRefs(s syntax.Stmt) []*[]syntax.Stmt {
	switch s := s.(type) {
	case *syntax.FunctionDef:
		return []*[]syntax.Stmt{&s.Body}
	case *syntax.ClassDef:
		return []*[]syntax.Stmt{&s.Body}
	case *syntax.For:
		return []*[]syntax.Stmt{&s.Body, &s.Orelse}
	case *syntax.While:
		return []*[]syntax.Stmt{&s.Body, &s.Orelse}
	case *syntax.If:
		return []*[]syntax.Stmt{&s.Body, &s.Orelse}
	case *syntax.With:
		return []*[]syntax.Stmt{&s.Body}
	case *syntax.Try:
		refs := []*[]syntax.Stmt{&s.Body}
		for _, h := range s.Handlers {
			refs = append(refs, &h.Body)
		}
		return append(refs, &s.Orelse, &s.Finally)
	case *syntax.Match:
		refs := make([]*[]syntax.Stmt, len(s.Cases))
		for i, c := range s.Cases {
			refs[i] = &c.Body
		}
		return refs
	}
	return nil
}

// insertAfter places def after scopeDef: next to it in the class body that
// holds it when asMethod is set, otherwise after the top-level statement
// holding it.
func insertAfter(module *syntax.Module, scopeDef, def *syntax.FunctionDef, asMethod bool) {
	for i, top := range module.Body {
		inserted, found := insertMethod(top, scopeDef, def, asMethod, false)
		if !found {
			continue
		}
		if !inserted {
			module.Body = insertAt(module.Body, i+1, def)
		}
		return
	}
	panic(fmt.Sprintf("engine: rewritten scope %s not found in its module", scopeDef.Name))
}

// insertMethod searches s for scopeDef. found reports whether s is or holds
// it; inserted reports whether def was placed right after it in a class
// body. inClass is set while s sits in a class body, directly or through
// compound statements.
func insertMethod(s syntax.Stmt, scopeDef, def *syntax.FunctionDef, asMethod, inClass bool) (inserted, found bool) {
	if s == syntax.Stmt(scopeDef) {
		return false, true
	}
	classBlock := false
	switch s.(type) {
	case *syntax.ClassDef:
		classBlock = true
	case *syntax.FunctionDef:
	default:
		classBlock = inClass
	}
	for _, block := range blockRefs(s) {
		for j, inner := range *block {
			if inner == syntax.Stmt(scopeDef) {
				if asMethod && classBlock {
					*block = insertAt(*block, j+1, def)
					return true, true
				}
				return false, true
			}
			if ins, ok := insertMethod(inner, scopeDef, def, asMethod, classBlock); ok {
				return ins, true
			}
		}
	}
	return false, false
}

func insertAt(stmts []syntax.Stmt, i int, s syntax.Stmt) []syntax.Stmt {
	out := make([]syntax.Stmt, 0, len(stmts)+1)
	out = append(out, stmts[:i]...)
	out = append(out, s)
	return append(out, stmts[i:]...)
}
