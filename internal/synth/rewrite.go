package synth

import (
	"slices"
	"strings"

	"github.com/mvp-joe/pyrefactor/internal/dataflow"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// RewriteNames returns a copy of stmts in which every free occurrence of a
// name in names, read or written, becomes carrier.name. Occurrences bound
// by a nested def, class, lambda or comprehension are left alone, as are
// := targets and case pattern text, which must stay bare names.
func RewriteNames(stmts []syntax.Stmt, names []string, carrier string) []syntax.Stmt {
	out := syntax.CloneStmts(stmts)
	newRewriter(names, carrier).stmts(out, nil)
	return out
}

// RewriteNamesExpr is RewriteNames for a single expression.
func RewriteNamesExpr(x syntax.Expr, names []string, carrier string) syntax.Expr {
	return newRewriter(names, carrier).expr(syntax.CloneExpr(x), nil)
}

type rewriter struct {
	names   map[string]bool
	carrier string
}

func newRewriter(names []string, carrier string) *rewriter {
	r := &rewriter{names: make(map[string]bool, len(names)), carrier: carrier}
	for _, n := range names {
		r.names[n] = true
	}
	return r
}

// shadow is the set of names rebound by the nested scopes around a node.
type shadow map[string]bool

func (s shadow) with(names ...string) shadow {
	out := make(shadow, len(s)+len(names))
	for n := range s {
		out[n] = true
	}
	for _, n := range names {
		out[n] = true
	}
	return out
}

func (r *rewriter) rewrites(name string, sh shadow) bool {
	return r.names[name] && !sh[name]
}

func (r *rewriter) stmts(stmts []syntax.Stmt, sh shadow) {
	for _, s := range stmts {
		r.stmt(s, sh)
	}
}

func (r *rewriter) exprs(xs []syntax.Expr, sh shadow) {
	for i := range xs {
		xs[i] = r.expr(xs[i], sh)
	}
}

func (r *rewriter) params(params *syntax.Parameters, sh shadow) {
	if params == nil {
		return
	}
	for _, p := range params.List {
		p.Annotation = r.expr(p.Annotation, sh)
		p.Default = r.expr(p.Default, sh)
	}
}

func (r *rewriter) stmt(s syntax.Stmt, sh shadow) {
	switch s := s.(type) {
	case *syntax.FunctionDef:
		r.exprs(s.Decorators, sh)
		r.params(s.Params, sh)
		s.Returns = r.expr(s.Returns, sh)
		r.stmts(s.Body, sh.with(dataflow.LocalNames(s.Params, s.Body)...))
	case *syntax.ClassDef:
		r.exprs(s.Decorators, sh)
		r.exprs(s.Bases, sh)
		r.stmts(s.Body, sh.with(dataflow.LocalNames(nil, s.Body)...))
	case *syntax.Assign:
		r.exprs(s.Targets, sh)
		s.Value = r.expr(s.Value, sh)
		s.Annotation = r.expr(s.Annotation, sh)
	case *syntax.AugAssign:
		s.Target = r.expr(s.Target, sh)
		s.Value = r.expr(s.Value, sh)
	case *syntax.For:
		s.Target = r.expr(s.Target, sh)
		s.Iter = r.expr(s.Iter, sh)
		r.stmts(s.Body, sh)
		r.stmts(s.Orelse, sh)
	case *syntax.While:
		s.Test = r.expr(s.Test, sh)
		r.stmts(s.Body, sh)
		r.stmts(s.Orelse, sh)
	case *syntax.If:
		s.Test = r.expr(s.Test, sh)
		r.stmts(s.Body, sh)
		r.stmts(s.Orelse, sh)
	case *syntax.With:
		for _, item := range s.Items {
			item.Context = r.expr(item.Context, sh)
			item.Target = r.expr(item.Target, sh)
		}
		r.stmts(s.Body, sh)
	case *syntax.Try:
		r.stmts(s.Body, sh)
		for _, h := range s.Handlers {
			h.Type = r.expr(h.Type, sh)
			r.stmts(h.Body, sh)
		}
		r.stmts(s.Orelse, sh)
		r.stmts(s.Finally, sh)
	case *syntax.Return:
		s.Value = r.expr(s.Value, sh)
	case *syntax.ExprStmt:
		s.Value = r.expr(s.Value, sh)
	case *syntax.Raise:
		s.Exc = r.expr(s.Exc, sh)
		s.Cause = r.expr(s.Cause, sh)
	case *syntax.Assert:
		s.Test = r.expr(s.Test, sh)
		s.Msg = r.expr(s.Msg, sh)
	case *syntax.Delete:
		r.exprs(s.Targets, sh)
	case *syntax.Match:
		s.Subject = r.expr(s.Subject, sh)
		for _, c := range s.Cases {
			c.Guard = r.expr(c.Guard, sh)
			r.stmts(c.Body, sh)
		}
	case *syntax.RawStmt:
		s.Text, s.Refs = r.raw(s.Text, s.Start, s.Refs, sh)
	}
}

func (r *rewriter) expr(x syntax.Expr, sh shadow) syntax.Expr {
	switch x := x.(type) {
	case nil:
		return nil
	case *syntax.Name:
		if r.rewrites(x.Id, sh) {
			return &syntax.Attribute{Span: x.Span, Value: syntax.NewName(r.carrier), Attr: x.Id}
		}
	case *syntax.Attribute:
		x.Value = r.expr(x.Value, sh)
	case *syntax.Call:
		x.Func = r.expr(x.Func, sh)
		r.exprs(x.Args, sh)
		for _, k := range x.Keywords {
			k.Value = r.expr(k.Value, sh)
		}
	case *syntax.BinaryOp:
		x.Left = r.expr(x.Left, sh)
		x.Right = r.expr(x.Right, sh)
	case *syntax.UnaryOp:
		x.Operand = r.expr(x.Operand, sh)
	case *syntax.Compare:
		x.Left = r.expr(x.Left, sh)
		r.exprs(x.Comparators, sh)
	case *syntax.Paren:
		x.X = r.expr(x.X, sh)
	case *syntax.Tuple:
		r.exprs(x.Elts, sh)
	case *syntax.List:
		r.exprs(x.Elts, sh)
	case *syntax.Set:
		r.exprs(x.Elts, sh)
	case *syntax.Dict:
		r.exprs(x.Keys, sh)
		r.exprs(x.Values, sh)
	case *syntax.Subscript:
		x.Value = r.expr(x.Value, sh)
		x.Index = r.expr(x.Index, sh)
	case *syntax.Starred:
		x.Value = r.expr(x.Value, sh)
	case *syntax.Lambda:
		r.params(x.Params, sh)
		x.Body = r.expr(x.Body, sh.with(x.Params.Names()...))
	case *syntax.IfExp:
		x.Test = r.expr(x.Test, sh)
		x.Body = r.expr(x.Body, sh)
		x.Orelse = r.expr(x.Orelse, sh)
	case *syntax.NamedExpr:
		x.Value = r.expr(x.Value, sh)
	case *syntax.Await:
		x.Value = r.expr(x.Value, sh)
	case *syntax.Yield:
		x.Value = r.expr(x.Value, sh)
	case *syntax.Comprehension:
		inner := sh
		for _, g := range x.Generators {
			// The first iterable is evaluated in the enclosing scope.
			g.Iter = r.expr(g.Iter, inner)
			inner = inner.with(targetNames(g.Target)...)
			r.exprs(g.Ifs, inner)
		}
		x.Key = r.expr(x.Key, inner)
		x.Elt = r.expr(x.Elt, inner)
	case *syntax.RawExpr:
		x.Text, x.Refs = r.raw(x.Text, x.Start, x.Refs, sh)
	}
	return x
}

// raw rewrites the references inside verbatim source. Continuation lines
// of text hold their full original line, so only the first line is offset
// by the node's start column.
func (r *rewriter) raw(text string, start syntax.Position, refs []*syntax.Name, sh shadow) (string, []*syntax.Name) {
	lines := strings.Split(text, "\n")
	order := slices.Clone(refs)
	slices.SortFunc(order, func(a, b *syntax.Name) int {
		switch {
		case a.Start.Before(b.Start):
			return 1
		case b.Start.Before(a.Start):
			return -1
		}
		return 0
	})

	prefix := r.carrier + "."
	for _, ref := range order {
		if !r.rewrites(ref.Id, sh) {
			continue
		}
		li := ref.Start.Line - start.Line
		col := ref.Start.Column
		if li == 0 {
			col -= start.Column
		}
		if li < 0 || li >= len(lines) || col < 0 || col > len(lines[li]) || !strings.HasPrefix(lines[li][col:], ref.Id) {
			continue
		}
		lines[li] = lines[li][:col] + prefix + lines[li][col:]
		// Later references on the same line move right.
		for _, other := range refs {
			if other != ref && other.Start.Line == ref.Start.Line && ref.Start.Before(other.Start) {
				other.Start.Column += len(prefix)
				other.End.Column += len(prefix)
			}
		}
		ref.Id = r.carrier
		ref.End.Column = ref.Start.Column + len(r.carrier)
	}
	return strings.Join(lines, "\n"), refs
}

func targetNames(x syntax.Expr) []string {
	var out []string
	syntax.Inspect(x, func(n syntax.Node) bool {
		if name, ok := n.(*syntax.Name); ok {
			out = append(out, name.Id)
		}
		return true
	})
	return out
}
