package pyparse

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

func (c *converter) exprs(nodes []*sitter.Node) []syntax.Expr {
	var out []syntax.Expr
	for _, n := range nodes {
		if x := c.expr(n); x != nil {
			out = append(out, x)
		}
	}
	return out
}

// expr converts an expression node. A nil node yields a nil Expr, never a
// typed nil.
func (c *converter) expr(n *sitter.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	sp := span(n)
	switch n.Kind() {
	case "identifier", "keyword_identifier":
		return &syntax.Name{Span: sp, Id: c.text(n)}
	case "type", "as_pattern_target":
		if inner := firstNamed(n); inner != nil {
			return c.expr(inner)
		}
		return &syntax.Name{Span: sp, Id: c.text(n)}
	case "attribute":
		return &syntax.Attribute{
			Span:  sp,
			Value: c.expr(n.ChildByFieldName("object")),
			Attr:  c.text(n.ChildByFieldName("attribute")),
		}
	case "call":
		return c.call(n)
	case "integer":
		return &syntax.Literal{Span: sp, Kind: syntax.IntLiteral, Value: c.text(n)}
	case "float":
		return &syntax.Literal{Span: sp, Kind: syntax.FloatLiteral, Value: c.text(n)}
	case "true", "false":
		return &syntax.Literal{Span: sp, Kind: syntax.BoolLiteral, Value: c.text(n)}
	case "none":
		return &syntax.Literal{Span: sp, Kind: syntax.NoneLiteral, Value: c.text(n)}
	case "ellipsis":
		return &syntax.Literal{Span: sp, Kind: syntax.EllipsisLiteral, Value: c.text(n)}
	case "string", "concatenated_string":
		if hasInterpolation(n) {
			return &syntax.RawExpr{Span: sp, Kind: "fstring", Text: c.text(n), Refs: c.refs(n)}
		}
		return &syntax.Literal{Span: sp, Kind: syntax.StringLiteral, Value: c.text(n)}
	case "binary_operator", "boolean_operator":
		return &syntax.BinaryOp{
			Span:  sp,
			Left:  c.expr(n.ChildByFieldName("left")),
			Op:    n.ChildByFieldName("operator").Kind(),
			Right: c.expr(n.ChildByFieldName("right")),
		}
	case "not_operator":
		return &syntax.UnaryOp{Span: sp, Op: "not", Operand: c.expr(n.ChildByFieldName("argument"))}
	case "unary_operator":
		return &syntax.UnaryOp{
			Span:    sp,
			Op:      n.ChildByFieldName("operator").Kind(),
			Operand: c.expr(n.ChildByFieldName("argument")),
		}
	case "comparison_operator":
		return c.comparison(n)
	case "parenthesized_expression":
		return &syntax.Paren{Span: sp, X: c.expr(firstNamed(n))}
	case "tuple", "tuple_pattern":
		return &syntax.Tuple{Span: sp, Elts: c.exprs(namedChildren(n)), Parenthesed: true}
	case "expression_list", "pattern_list":
		return &syntax.Tuple{Span: sp, Elts: c.exprs(namedChildren(n))}
	case "list", "list_pattern":
		return &syntax.List{Span: sp, Elts: c.exprs(namedChildren(n))}
	case "set":
		return &syntax.Set{Span: sp, Elts: c.exprs(namedChildren(n))}
	case "dictionary":
		return c.dictionary(n)
	case "subscript":
		return c.subscript(n)
	case "list_splat", "list_splat_pattern":
		return &syntax.Starred{Span: sp, Value: c.expr(firstNamed(n))}
	case "dictionary_splat", "dictionary_splat_pattern":
		return &syntax.Starred{Span: sp, Value: c.expr(firstNamed(n)), Double: true}
	case "lambda":
		return &syntax.Lambda{
			Span:   sp,
			Params: c.parameters(n.ChildByFieldName("parameters")),
			Body:   c.expr(n.ChildByFieldName("body")),
		}
	case "conditional_expression":
		parts := namedChildren(n)
		if len(parts) == 3 {
			return &syntax.IfExp{
				Span:   sp,
				Body:   c.expr(parts[0]),
				Test:   c.expr(parts[1]),
				Orelse: c.expr(parts[2]),
			}
		}
	case "named_expression":
		name := n.ChildByFieldName("name")
		return &syntax.NamedExpr{
			Span:   sp,
			Target: &syntax.Name{Span: span(name), Id: c.text(name)},
			Value:  c.expr(n.ChildByFieldName("value")),
		}
	case "await":
		return &syntax.Await{Span: sp, Value: c.expr(firstNamed(n))}
	case "yield":
		return &syntax.Yield{
			Span:  sp,
			Value: c.expr(firstNamed(n)),
			From:  findChildByType(n, "from") != nil,
		}
	case "list_comprehension":
		return c.comprehension(n, syntax.ListComp)
	case "set_comprehension":
		return c.comprehension(n, syntax.SetComp)
	case "dictionary_comprehension":
		return c.comprehension(n, syntax.DictComp)
	case "generator_expression":
		return c.comprehension(n, syntax.GeneratorExp)
	}
	return &syntax.RawExpr{Span: sp, Kind: n.Kind(), Text: c.text(n), Refs: c.refs(n)}
}

func (c *converter) call(n *sitter.Node) *syntax.Call {
	call := &syntax.Call{Span: span(n), Func: c.expr(n.ChildByFieldName("function"))}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	if args.Kind() == "generator_expression" {
		call.Args = []syntax.Expr{c.expr(args)}
		return call
	}
	for _, arg := range namedChildren(args) {
		switch arg.Kind() {
		case "keyword_argument":
			call.Keywords = append(call.Keywords, &syntax.Keyword{
				Span:  span(arg),
				Name:  c.text(arg.ChildByFieldName("name")),
				Value: c.expr(arg.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			call.Keywords = append(call.Keywords, &syntax.Keyword{
				Span:  span(arg),
				Value: c.expr(firstNamed(arg)),
			})
		default:
			call.Args = append(call.Args, c.expr(arg))
		}
	}
	return call
}

// comparison reads operators from the anonymous children between operands;
// "not in" and "is not" arrive as single aliased tokens.
func (c *converter) comparison(n *sitter.Node) *syntax.Compare {
	cmp := &syntax.Compare{Span: span(n)}
	first := true
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch {
		case child.Kind() == "comment":
		case child.IsNamed():
			if first {
				cmp.Left = c.expr(child)
				first = false
			} else {
				cmp.Comparators = append(cmp.Comparators, c.expr(child))
			}
		default:
			cmp.Ops = append(cmp.Ops, child.Kind())
		}
	}
	return cmp
}

func (c *converter) dictionary(n *sitter.Node) *syntax.Dict {
	d := &syntax.Dict{Span: span(n)}
	for _, entry := range namedChildren(n) {
		switch entry.Kind() {
		case "pair":
			d.Keys = append(d.Keys, c.expr(entry.ChildByFieldName("key")))
			d.Values = append(d.Values, c.expr(entry.ChildByFieldName("value")))
		case "dictionary_splat":
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, c.expr(firstNamed(entry)))
		}
	}
	return d
}

func (c *converter) subscript(n *sitter.Node) *syntax.Subscript {
	value := n.ChildByFieldName("value")
	s := &syntax.Subscript{Span: span(n), Value: c.expr(value)}
	var index []syntax.Expr
	for _, child := range namedChildren(n) {
		if sameNode(child, value) {
			continue
		}
		index = append(index, c.expr(child))
	}
	switch len(index) {
	case 0:
	case 1:
		s.Index = index[0]
	default:
		s.Index = &syntax.Tuple{Elts: index}
	}
	return s
}

func (c *converter) comprehension(n *sitter.Node, kind syntax.ComprehensionKind) *syntax.Comprehension {
	comp := &syntax.Comprehension{Span: span(n), Kind: kind}
	body := n.ChildByFieldName("body")
	if kind == syntax.DictComp && body != nil && body.Kind() == "pair" {
		comp.Key = c.expr(body.ChildByFieldName("key"))
		comp.Elt = c.expr(body.ChildByFieldName("value"))
	} else {
		comp.Elt = c.expr(body)
	}
	var last *syntax.CompFor
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "for_in_clause":
			last = &syntax.CompFor{
				Span:   span(child),
				Target: c.expr(child.ChildByFieldName("left")),
				Iter:   c.expr(child.ChildByFieldName("right")),
				Async:  findChildByType(child, "async") != nil,
			}
			comp.Generators = append(comp.Generators, last)
		case "if_clause":
			if last != nil {
				last.Ifs = append(last.Ifs, c.expr(firstNamed(child)))
			}
		}
	}
	return comp
}

func hasInterpolation(n *sitter.Node) bool {
	found := false
	walkTree(n, func(child *sitter.Node) bool {
		if found {
			return false
		}
		if child.Kind() == "interpolation" {
			found = true
			return false
		}
		return true
	})
	return found
}

// refs collects the bare names read inside a construct kept as raw text.
// Attribute names, keyword argument names and the bodies of nested
// function-like constructs are not references.
func (c *converter) refs(n *sitter.Node) []*syntax.Name {
	var out []*syntax.Name
	var visit func(*sitter.Node)
	visit = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "identifier":
			out = append(out, &syntax.Name{Span: span(node), Id: c.text(node)})
			return
		case "attribute":
			visit(node.ChildByFieldName("object"))
			return
		case "keyword_argument":
			visit(node.ChildByFieldName("value"))
			return
		case "lambda", "function_definition", "class_definition":
			return
		}
		for _, child := range namedChildren(node) {
			visit(child)
		}
	}
	visit(n)
	return out
}
