package scope

import (
	"fmt"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// NotFoundError reports an address that names no callable in the tree.
type NotFoundError struct {
	Locator target.Locator
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("target %q not found", e.Locator.String())
}

// Kind returns the error's taxonomy name.
func (e *NotFoundError) Kind() string { return "TargetNotFoundError" }

// Match is a resolved callable.
type Match struct {
	Locator   target.Locator
	Func      *syntax.FunctionDef
	Container *syntax.ClassDef // nil for module-level callables
	Frames    []Frame
	Receiver  string // empty when the callable has no receiver
}

// Receiver returns the name bound to the enclosing instance or type: the
// first positional parameter of a callable defined directly in a class,
// unless it is a staticmethod.
func Receiver(fn *syntax.FunctionDef, inContainer bool) string {
	if !inContainer || fn.HasDecorator("staticmethod") {
		return ""
	}
	if fn.Params == nil || len(fn.Params.List) == 0 {
		return ""
	}
	first := fn.Params.List[0]
	if first.Star != "" {
		return ""
	}
	return first.Name
}

type finder struct {
	tr         Tracker
	containers []*syntax.ClassDef
	match      *Match
	err        error
}

func (f *finder) Enter(n syntax.Node) bool {
	if f.match != nil || f.err != nil {
		return false
	}
	if _, ok := n.(syntax.Expr); ok {
		return false
	}
	frame, ok := FrameFor(n)
	if !ok {
		return true
	}
	f.tr = f.tr.Enter(frame)
	if cls, ok := n.(*syntax.ClassDef); ok {
		f.containers = append(f.containers, cls)
	}
	if f.tr.Matches() {
		fn := n.(*syntax.FunctionDef)
		m := &Match{Locator: f.tr.Locator(), Func: fn, Frames: f.tr.Frames()}
		if parent, _ := f.tr.Parent(); parent.Kind == ContainerFrame {
			m.Container = f.containers[len(f.containers)-1]
		}
		m.Receiver = Receiver(fn, m.Container != nil)
		f.match = m
		return false
	}
	return true
}

func (f *finder) Leave(n syntax.Node) {
	// Enter stops pushing once resolved, so stop popping too.
	if f.err != nil || f.match != nil {
		return
	}
	if _, ok := n.(syntax.Expr); ok {
		return
	}
	frame, ok := FrameFor(n)
	if !ok {
		return
	}
	if _, ok := n.(*syntax.ClassDef); ok {
		f.containers = f.containers[:len(f.containers)-1]
	}
	f.tr, f.err = f.tr.Leave(frame)
}

// Find resolves loc to the first callable in source order that it names.
// The line range, if any, is not checked against the callable's extent.
func Find(module *syntax.Module, loc target.Locator) (*Match, error) {
	f := &finder{tr: New(loc)}
	syntax.Walk(f, module)
	if f.err != nil {
		return nil, fmt.Errorf("resolve %q: %w", loc.String(), f.err)
	}
	if f.match == nil {
		return nil, &NotFoundError{Locator: loc}
	}
	return f.match, nil
}

// Addresses lists every address that names a callable in the tree, in source
// order. A redefined callable, such as a property and its setter, is listed
// once since Find resolves only the first.
func Addresses(module *syntax.Module) []target.Locator {
	var out []target.Locator
	seen := make(map[string]bool)
	tr := New(target.Locator{})
	var visit func(stmts []syntax.Stmt, tr Tracker)
	visit = func(stmts []syntax.Stmt, tr Tracker) {
		for _, s := range stmts {
			frame, ok := FrameFor(s)
			inner := tr
			if ok {
				inner = tr.Enter(frame)
				if loc, ok := inner.Address(); ok && !seen[loc.String()] {
					seen[loc.String()] = true
					out = append(out, loc)
				}
			}
			for _, block := range syntax.Blocks(s) {
				visit(block, inner)
			}
		}
	}
	root, _ := FrameFor(module)
	visit(module.Body, tr.Enter(root))
	return out
}

// Replace returns a copy of module in which the callable loc names has been
// replaced by the result of fn. fn receives a private deep copy of the
// callable and may modify it. The input module is not modified.
func Replace(module *syntax.Module, loc target.Locator, fn func(*syntax.FunctionDef) *syntax.FunctionDef) (*syntax.Module, error) {
	out := &syntax.Module{Span: module.Span, Body: syntax.CloneStmts(module.Body)}

	var replaced bool
	var replace func(block []syntax.Stmt, tr Tracker) error
	replace = func(block []syntax.Stmt, tr Tracker) error {
		for i, s := range block {
			if replaced {
				return nil
			}
			frame, ok := FrameFor(s)
			inner := tr
			if ok {
				inner = tr.Enter(frame)
				if inner.Matches() {
					block[i] = fn(s.(*syntax.FunctionDef))
					replaced = true
				}
			}
			if !replaced {
				for _, b := range syntax.Blocks(s) {
					if err := replace(b, inner); err != nil {
						return err
					}
				}
			}
			if ok {
				if _, err := inner.Leave(frame); err != nil {
					return err
				}
			}
		}
		return nil
	}

	root, _ := FrameFor(module)
	if err := replace(out.Body, New(loc).Enter(root)); err != nil {
		return nil, fmt.Errorf("rewrite %q: %w", loc.String(), err)
	}
	if !replaced {
		return nil, &NotFoundError{Locator: loc}
	}
	return out, nil
}
