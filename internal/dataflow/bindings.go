package dataflow

import (
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// nameSet is an insertion-ordered set of names.
type nameSet struct {
	seen  map[string]bool
	order []string
}

func newNameSet(names ...string) *nameSet {
	s := &nameSet{seen: make(map[string]bool)}
	for _, n := range names {
		s.add(n)
	}
	return s
}

func (s *nameSet) add(name string) {
	if name == "" || s.seen[name] {
		return
	}
	s.seen[name] = true
	s.order = append(s.order, name)
}

func (s *nameSet) has(name string) bool { return s != nil && s.seen[name] }

// with returns a copy of s extended by names.
func (s *nameSet) with(names ...string) *nameSet {
	out := newNameSet()
	if s != nil {
		for _, n := range s.order {
			out.add(n)
		}
	}
	for _, n := range names {
		out.add(n)
	}
	return out
}

// scopeBindings are the names a block of statements binds at its own level.
type scopeBindings struct {
	bound    *nameSet // assigned, imported, defined or used as loop/with/except targets
	global   *nameSet // declared global
	nonlocal *nameSet // declared nonlocal
}

// collectBindings gathers the bindings of stmts without entering nested
// def, class or lambda bodies.
func collectBindings(stmts []syntax.Stmt) scopeBindings {
	b := scopeBindings{bound: newNameSet(), global: newNameSet(), nonlocal: newNameSet()}
	b.stmts(stmts)
	return b
}

func (b scopeBindings) stmts(stmts []syntax.Stmt) {
	for _, s := range stmts {
		b.stmt(s)
	}
}

func (b scopeBindings) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.FunctionDef:
		b.bound.add(s.Name)
		b.walrus(s.Decorators...)
		return
	case *syntax.ClassDef:
		b.bound.add(s.Name)
		b.walrus(s.Decorators...)
		b.walrus(s.Bases...)
		return
	case *syntax.Assign:
		for _, t := range s.Targets {
			b.target(t)
		}
		b.walrus(s.Value)
	case *syntax.AugAssign:
		b.target(s.Target)
		b.walrus(s.Value)
	case *syntax.For:
		b.target(s.Target)
		b.walrus(s.Iter)
	case *syntax.While:
		b.walrus(s.Test)
	case *syntax.If:
		b.walrus(s.Test)
	case *syntax.With:
		for _, item := range s.Items {
			b.walrus(item.Context)
			b.target(item.Target)
		}
	case *syntax.Try:
		for _, h := range s.Handlers {
			b.bound.add(h.Name)
		}
	case *syntax.Match:
		b.walrus(s.Subject)
		for _, c := range s.Cases {
			for _, n := range c.Captures {
				b.bound.add(n.Id)
			}
			b.walrus(c.Guard)
		}
	case *syntax.Return:
		b.walrus(s.Value)
	case *syntax.ExprStmt:
		b.walrus(s.Value)
	case *syntax.Raise:
		b.walrus(s.Exc, s.Cause)
	case *syntax.Assert:
		b.walrus(s.Test, s.Msg)
	case *syntax.Delete:
		b.walrus(s.Targets...)
	case *syntax.Import:
		for _, n := range s.Names {
			b.bound.add(n)
		}
	case *syntax.Global:
		for _, n := range s.Names {
			if s.Nonlocal {
				b.nonlocal.add(n)
			} else {
				b.global.add(n)
			}
		}
	}
	for _, block := range syntax.Blocks(s) {
		b.stmts(block)
	}
}

// target records the names bound by an assignment target.
func (b scopeBindings) target(x syntax.Expr) {
	forEachTargetName(x, func(n *syntax.Name) { b.bound.add(n.Id) })
}

// walrus records := targets, which bind in the enclosing scope even inside
// comprehensions.
func (b scopeBindings) walrus(xs ...syntax.Expr) {
	for _, x := range xs {
		if x == nil {
			continue
		}
		syntax.Inspect(x, func(n syntax.Node) bool {
			switch n := n.(type) {
			case *syntax.Lambda:
				return false
			case *syntax.NamedExpr:
				b.bound.add(n.Target.Id)
			}
			return true
		})
	}
}

// forEachTargetName calls f for every bare name an assignment target binds.
// Attribute and subscript targets bind nothing.
func forEachTargetName(x syntax.Expr, f func(*syntax.Name)) {
	switch x := x.(type) {
	case *syntax.Name:
		f(x)
	case *syntax.Tuple:
		for _, e := range x.Elts {
			forEachTargetName(e, f)
		}
	case *syntax.List:
		for _, e := range x.Elts {
			forEachTargetName(e, f)
		}
	case *syntax.Paren:
		forEachTargetName(x.X, f)
	case *syntax.Starred:
		forEachTargetName(x.Value, f)
	}
}

// freeNames returns the names a nested scope refers to but does not bind,
// in order of first reference. Names declared nonlocal are free.
func freeNames(params *syntax.Parameters, body []syntax.Stmt) []string {
	local := newNameSet(LocalNames(params, body)...)
	refs := newNameSet(collectBindings(body).nonlocal.order...)
	for _, s := range body {
		collectRefs(s, refs)
	}

	var out []string
	for _, n := range refs.order {
		if !local.has(n) {
			out = append(out, n)
		}
	}
	return out
}

// freeNamesExpr is freeNames for a lambda.
func freeNamesExpr(params *syntax.Parameters, body syntax.Expr) []string {
	local := newNameSet(params.Names()...)
	refs := newNameSet()
	collectRefs(body, refs)
	var out []string
	for _, n := range refs.order {
		if !local.has(n) {
			out = append(out, n)
		}
	}
	return out
}

// collectRefs adds every name n refers to. Nested scopes contribute only
// their own free names; comprehension targets are not references.
func collectRefs(n syntax.Node, refs *nameSet) {
	syntax.Inspect(n, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Name:
			refs.add(n.Id)
		case *syntax.FunctionDef:
			for _, d := range n.Decorators {
				collectRefs(d, refs)
			}
			collectParamRefs(n.Params, refs)
			for _, name := range freeNames(n.Params, n.Body) {
				refs.add(name)
			}
			return false
		case *syntax.ClassDef:
			for _, d := range n.Decorators {
				collectRefs(d, refs)
			}
			for _, base := range n.Bases {
				collectRefs(base, refs)
			}
			for _, name := range freeNames(nil, n.Body) {
				refs.add(name)
			}
			return false
		case *syntax.Lambda:
			collectParamRefs(n.Params, refs)
			for _, name := range freeNamesExpr(n.Params, n.Body) {
				refs.add(name)
			}
			return false
		case *syntax.Comprehension:
			inner := newNameSet()
			targets := newNameSet()
			for _, g := range n.Generators {
				collectRefs(g.Iter, inner)
				forEachTargetName(g.Target, func(t *syntax.Name) { targets.add(t.Id) })
				for _, cond := range g.Ifs {
					collectRefs(cond, inner)
				}
			}
			collectRefs(n.Key, inner)
			collectRefs(n.Elt, inner)
			for _, name := range inner.order {
				if !targets.has(name) {
					refs.add(name)
				}
			}
			return false
		}
		return true
	})
}

// collectParamRefs adds the names read by parameter defaults and
// annotations, which are evaluated in the enclosing scope.
func collectParamRefs(params *syntax.Parameters, refs *nameSet) {
	if params == nil {
		return
	}
	for _, p := range params.List {
		if p.Default != nil {
			collectRefs(p.Default, refs)
		}
		if p.Annotation != nil {
			collectRefs(p.Annotation, refs)
		}
	}
}

// LocalNames returns the names a function or lambda body binds for itself:
// its parameters and every name it assigns, minus global and nonlocal
// declarations. body may be nil for a lambda.
func LocalNames(params *syntax.Parameters, body []syntax.Stmt) []string {
	b := collectBindings(body)
	local := newNameSet(params.Names()...)
	for _, n := range b.bound.order {
		if !b.nonlocal.has(n) && !b.global.has(n) {
			local.add(n)
		}
	}
	return local.order
}

// Refs returns the names n reads, in order of first reference. Names bound
// inside nested scopes and comprehensions are not included.
func Refs(n syntax.Node) []string {
	refs := newNameSet()
	collectRefs(n, refs)
	return refs.order
}
