package dataflow

import (
	"slices"

	"github.com/mvp-joe/pyrefactor/internal/scope"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// Analyze records every definition and use of the names bound in the
// matched callable. The callable's tree is only read.
func Analyze(m *scope.Match) *Analysis {
	container := ""
	if m.Container != nil {
		container = m.Container.Name
	}
	return AnalyzeFunc(m.Func, container, m.Receiver)
}

// AnalyzeFunc analyzes fn directly. container is the enclosing class name,
// if any; receiver is the name bound to the instance, if any.
func AnalyzeFunc(fn *syntax.FunctionDef, container, receiver string) *Analysis {
	a := &analyzer{
		receiver: receiver,
		records:  make(map[string]*VariableRecord),
		free:     newNameSet(),
	}

	b := collectBindings(fn.Body)
	a.bound = newNameSet()
	excluded := b.global.with(b.nonlocal.order...)
	excluded.add(receiver)

	info := ScopeInfo{
		Name:      fn.Name,
		Container: container,
		Start:     fn.StartLine(),
		End:       fn.EndLine(),
		Receiver:  receiver,
	}

	a.line = info.Start
	if fn.Params != nil {
		for _, p := range fn.Params.List {
			if p.Name == "" || p.Name == receiver {
				continue
			}
			info.Params = append(info.Params, p.Name)
			a.bound.add(p.Name)
			r := a.record(p.Name)
			r.IsParameter = true
			a.define(p.Name, p.Span.Start)
		}
	}
	for _, n := range b.bound.order {
		if !excluded.has(n) {
			a.bound.add(n)
		}
	}

	a.stmts(fn.Body)

	slices.Sort(a.receiverLines)
	return &Analysis{
		Scope:         info,
		Free:          a.free.order,
		Opaque:        a.opaque,
		ReceiverLines: slices.Compact(a.receiverLines),
		Body:          fn.Body,
		records:       a.records,
		order:         a.order,
	}
}

// analyzer is the single source-order pass. line is the statement or
// clause header currently being read; every access is attributed to it.
type analyzer struct {
	receiver string
	bound    *nameSet

	line int
	seq  int

	records       map[string]*VariableRecord
	order         []string
	free          *nameSet
	opaque        []OpaqueScope
	receiverLines []int
}

func (a *analyzer) record(name string) *VariableRecord {
	r, ok := a.records[name]
	if !ok {
		r = &VariableRecord{Name: name}
		a.records[name] = r
		a.order = append(a.order, name)
	}
	return r
}

func (a *analyzer) next() int {
	a.seq++
	return a.seq
}

func (a *analyzer) define(name string, pos syntax.Position) {
	if !a.bound.has(name) {
		return
	}
	r := a.record(name)
	if len(r.Definitions) == 0 {
		r.FirstDefinition = a.line
	}
	r.Definitions = append(r.Definitions, Site{Line: a.line, Pos: pos, Seq: a.next()})
}

func (a *analyzer) use(name string, pos syntax.Position) {
	switch {
	case name == a.receiver && a.receiver != "":
		a.receiverLines = append(a.receiverLines, a.line)
	case a.bound.has(name):
		r := a.record(name)
		r.Uses = append(r.Uses, Site{Line: a.line, Pos: pos, Seq: a.next()})
	default:
		a.free.add(name)
	}
}

func (a *analyzer) stmts(stmts []syntax.Stmt) {
	for _, s := range stmts {
		a.stmt(s)
	}
}

func (a *analyzer) stmt(s syntax.Stmt) {
	a.line = s.NodeSpan().StartLine()

	switch s := s.(type) {
	case *syntax.FunctionDef:
		a.reads(nil, s.Decorators...)
		a.paramReads(s.Params)
		a.read(s.Returns, nil)
		a.enclose(OpaqueFunction, s.Name, s.Span, freeNames(s.Params, s.Body))
		a.define(s.Name, s.Span.Start)
	case *syntax.ClassDef:
		a.reads(nil, s.Decorators...)
		a.reads(nil, s.Bases...)
		a.enclose(OpaqueClass, s.Name, s.Span, freeNames(nil, s.Body))
		a.define(s.Name, s.Span.Start)
	case *syntax.Assign:
		a.read(s.Value, nil)
		for _, t := range s.Targets {
			a.bind(t)
		}
	case *syntax.AugAssign:
		a.read(s.Value, nil)
		if n, ok := s.Target.(*syntax.Name); ok {
			a.use(n.Id, n.Span.Start)
			a.define(n.Id, n.Span.Start)
		} else {
			a.read(s.Target, nil)
		}
	case *syntax.For:
		a.read(s.Iter, nil)
		a.bind(s.Target)
		a.stmts(s.Body)
		a.stmts(s.Orelse)
	case *syntax.While:
		a.read(s.Test, nil)
		a.stmts(s.Body)
		a.stmts(s.Orelse)
	case *syntax.If:
		a.read(s.Test, nil)
		a.stmts(s.Body)
		a.stmts(s.Orelse)
	case *syntax.With:
		for _, item := range s.Items {
			a.read(item.Context, nil)
			a.bind(item.Target)
		}
		a.stmts(s.Body)
	case *syntax.Try:
		a.stmts(s.Body)
		for _, h := range s.Handlers {
			a.line = h.StartLine()
			a.read(h.Type, nil)
			if h.Name != "" {
				a.define(h.Name, h.NamePos)
			}
			a.stmts(h.Body)
		}
		a.stmts(s.Orelse)
		a.stmts(s.Finally)
	case *syntax.Return:
		a.read(s.Value, nil)
	case *syntax.ExprStmt:
		a.read(s.Value, nil)
	case *syntax.Raise:
		a.read(s.Exc, nil)
		a.read(s.Cause, nil)
	case *syntax.Assert:
		a.read(s.Test, nil)
		a.read(s.Msg, nil)
	case *syntax.Delete:
		a.reads(nil, s.Targets...)
	case *syntax.Import:
		for _, n := range s.Names {
			a.define(n, s.Span.Start)
		}
	case *syntax.Match:
		a.read(s.Subject, nil)
		for _, c := range s.Cases {
			a.line = c.StartLine()
			for _, r := range c.Reads {
				a.use(r.Id, r.Span.Start)
			}
			for _, n := range c.Captures {
				a.define(n.Id, n.Span.Start)
			}
			a.read(c.Guard, nil)
			a.stmts(c.Body)
		}
	case *syntax.RawStmt:
		for _, r := range s.Refs {
			a.use(r.Id, r.Span.Start)
		}
	case *syntax.Break, *syntax.Continue, *syntax.Pass, *syntax.Global:
	default:
		panic("dataflow: unhandled statement kind")
	}
}

// bind records the definitions made by an assignment target. Attribute and
// subscript targets read their object and index instead.
func (a *analyzer) bind(x syntax.Expr) {
	switch x := x.(type) {
	case nil:
	case *syntax.Name:
		a.define(x.Id, x.Span.Start)
	case *syntax.Tuple:
		for _, e := range x.Elts {
			a.bind(e)
		}
	case *syntax.List:
		for _, e := range x.Elts {
			a.bind(e)
		}
	case *syntax.Paren:
		a.bind(x.X)
	case *syntax.Starred:
		a.bind(x.Value)
	default:
		a.read(x, nil)
	}
}

func (a *analyzer) reads(shadow *nameSet, xs ...syntax.Expr) {
	for _, x := range xs {
		a.read(x, shadow)
	}
}

func (a *analyzer) paramReads(params *syntax.Parameters) {
	if params == nil {
		return
	}
	for _, p := range params.List {
		a.read(p.Default, nil)
		a.read(p.Annotation, nil)
	}
}

// read records the uses in x. shadow holds comprehension targets, which are
// not names of the analyzed scope.
func (a *analyzer) read(x syntax.Expr, shadow *nameSet) {
	if x == nil {
		return
	}
	syntax.Inspect(x, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Name:
			if !shadow.has(n.Id) {
				a.use(n.Id, n.Span.Start)
			}
		case *syntax.NamedExpr:
			a.read(n.Value, shadow)
			a.define(n.Target.Id, n.Target.Span.Start)
			return false
		case *syntax.Lambda:
			a.paramReads(n.Params)
			a.enclose(OpaqueLambda, "<lambda>", n.Span, freeNamesExpr(n.Params, n.Body))
			return false
		case *syntax.Comprehension:
			a.comprehension(n, shadow)
			return false
		}
		return true
	})
}

// comprehension reads a comprehension in evaluation order. Its targets
// shadow outer names for the clauses that follow them.
func (a *analyzer) comprehension(c *syntax.Comprehension, shadow *nameSet) {
	inner := shadow
	for _, g := range c.Generators {
		a.read(g.Iter, inner)
		var targets []string
		forEachTargetName(g.Target, func(n *syntax.Name) { targets = append(targets, n.Id) })
		inner = inner.with(targets...)
		a.reads(inner, g.Ifs...)
	}
	a.read(c.Key, inner)
	a.read(c.Elt, inner)
}

// enclose summarizes a nested scope. Names of the analyzed scope it refers
// to become captures, not uses; the receiver still marks the current line.
func (a *analyzer) enclose(kind OpaqueKind, name string, span syntax.Span, free []string) {
	o := OpaqueScope{Kind: kind, Name: name, Start: span.StartLine(), End: span.EndLine(), Pos: span.Start}
	for _, n := range free {
		if kind != OpaqueLambda && n == name {
			continue
		}
		switch {
		case n == a.receiver && a.receiver != "":
			a.receiverLines = append(a.receiverLines, a.line)
		case a.bound.has(n):
			o.Captures = append(o.Captures, n)
		default:
			a.free.add(n)
		}
	}
	a.opaque = append(a.opaque, o)
}
