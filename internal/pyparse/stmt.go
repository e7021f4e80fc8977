package pyparse

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// converter turns tree-sitter-python nodes into syntax nodes.
type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	return extractNodeText(n, c.src)
}

// block converts the statements of a module or block node.
func (c *converter) block(n *sitter.Node) []syntax.Stmt {
	var out []syntax.Stmt
	for _, child := range namedChildren(n) {
		out = append(out, c.stmt(child))
	}
	return out
}

// clauseBody returns the block of an else/finally clause.
func (c *converter) clauseBody(n *sitter.Node) []syntax.Stmt {
	if n == nil {
		return nil
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return c.block(body)
	}
	return c.block(findChildByType(n, "block"))
}

func (c *converter) stmt(n *sitter.Node) syntax.Stmt {
	sp := span(n)
	switch n.Kind() {
	case "expression_statement":
		return c.expressionStatement(n)
	case "function_definition":
		return c.functionDef(n, nil)
	case "class_definition":
		return c.classDef(n, nil)
	case "decorated_definition":
		return c.decorated(n)
	case "return_statement":
		return &syntax.Return{Span: sp, Value: c.expr(firstNamed(n))}
	case "pass_statement":
		return &syntax.Pass{Span: sp}
	case "break_statement":
		return &syntax.Break{Span: sp}
	case "continue_statement":
		return &syntax.Continue{Span: sp}
	case "if_statement":
		return c.ifStatement(n)
	case "for_statement":
		return &syntax.For{
			Span:   sp,
			Target: c.expr(n.ChildByFieldName("left")),
			Iter:   c.expr(n.ChildByFieldName("right")),
			Body:   c.block(n.ChildByFieldName("body")),
			Orelse: c.clauseBody(n.ChildByFieldName("alternative")),
			Async:  findChildByType(n, "async") != nil,
		}
	case "while_statement":
		return &syntax.While{
			Span:   sp,
			Test:   c.expr(n.ChildByFieldName("condition")),
			Body:   c.block(n.ChildByFieldName("body")),
			Orelse: c.clauseBody(n.ChildByFieldName("alternative")),
		}
	case "with_statement":
		return c.withStatement(n)
	case "try_statement":
		return c.tryStatement(n)
	case "match_statement":
		return c.matchStatement(n)
	case "raise_statement":
		cause := n.ChildByFieldName("cause")
		s := &syntax.Raise{Span: sp, Cause: c.expr(cause)}
		for _, child := range namedChildren(n) {
			if !sameNode(child, cause) {
				s.Exc = c.expr(child)
				break
			}
		}
		return s
	case "assert_statement":
		children := namedChildren(n)
		s := &syntax.Assert{Span: sp}
		if len(children) > 0 {
			s.Test = c.expr(children[0])
		}
		if len(children) > 1 {
			s.Msg = c.expr(children[1])
		}
		return s
	case "delete_statement":
		target := firstNamed(n)
		if target != nil && target.Kind() == "expression_list" {
			return &syntax.Delete{Span: sp, Targets: c.exprs(namedChildren(target))}
		}
		return &syntax.Delete{Span: sp, Targets: []syntax.Expr{c.expr(target)}}
	case "global_statement", "nonlocal_statement":
		s := &syntax.Global{Span: sp, Nonlocal: n.Kind() == "nonlocal_statement"}
		for _, child := range namedChildren(n) {
			s.Names = append(s.Names, c.text(child))
		}
		return s
	case "import_statement", "import_from_statement", "future_import_statement":
		return &syntax.Import{Span: sp, Text: c.text(n), Names: c.importedNames(n)}
	}
	return &syntax.RawStmt{Span: sp, Kind: n.Kind(), Text: c.text(n), Refs: c.refs(n)}
}

func (c *converter) expressionStatement(n *sitter.Node) syntax.Stmt {
	sp := span(n)
	children := namedChildren(n)
	if len(children) != 1 {
		return &syntax.ExprStmt{Span: sp, Value: &syntax.Tuple{Span: sp, Elts: c.exprs(children)}}
	}
	child := children[0]
	switch child.Kind() {
	case "assignment":
		return c.assignment(child, sp)
	case "augmented_assignment":
		return &syntax.AugAssign{
			Span:   sp,
			Target: c.expr(child.ChildByFieldName("left")),
			Op:     child.ChildByFieldName("operator").Kind(),
			Value:  c.expr(child.ChildByFieldName("right")),
		}
	}
	return &syntax.ExprStmt{Span: sp, Value: c.expr(child)}
}

// assignment flattens chained assignments (a = b = v) into one Assign.
func (c *converter) assignment(n *sitter.Node, sp syntax.Span) *syntax.Assign {
	a := &syntax.Assign{Span: sp}
	cur := n
	for {
		a.Targets = append(a.Targets, c.expr(cur.ChildByFieldName("left")))
		if t := cur.ChildByFieldName("type"); t != nil {
			a.Annotation = c.expr(t)
		}
		right := cur.ChildByFieldName("right")
		if right == nil {
			return a
		}
		if right.Kind() != "assignment" {
			a.Value = c.expr(right)
			return a
		}
		cur = right
	}
}

func (c *converter) decorated(n *sitter.Node) syntax.Stmt {
	var decorators []syntax.Expr
	for _, child := range namedChildren(n) {
		if child.Kind() == "decorator" {
			decorators = append(decorators, c.expr(firstNamed(child)))
		}
	}
	def := n.ChildByFieldName("definition")
	switch def.Kind() {
	case "function_definition":
		return c.functionDef(def, decorators)
	case "class_definition":
		return c.classDef(def, decorators)
	}
	return &syntax.RawStmt{Span: span(n), Kind: n.Kind(), Text: c.text(n), Refs: c.refs(n)}
}

func (c *converter) functionDef(n *sitter.Node, decorators []syntax.Expr) *syntax.FunctionDef {
	return &syntax.FunctionDef{
		Span:       span(n),
		Name:       c.text(n.ChildByFieldName("name")),
		Params:     c.parameters(n.ChildByFieldName("parameters")),
		Returns:    c.expr(n.ChildByFieldName("return_type")),
		Body:       c.block(n.ChildByFieldName("body")),
		Decorators: decorators,
		Async:      findChildByType(n, "async") != nil,
	}
}

func (c *converter) classDef(n *sitter.Node, decorators []syntax.Expr) *syntax.ClassDef {
	return &syntax.ClassDef{
		Span:       span(n),
		Name:       c.text(n.ChildByFieldName("name")),
		Bases:      c.exprs(namedChildren(n.ChildByFieldName("superclasses"))),
		Body:       c.block(n.ChildByFieldName("body")),
		Decorators: decorators,
	}
}

// parameters converts a parameters or lambda_parameters node.
func (c *converter) parameters(n *sitter.Node) *syntax.Parameters {
	if n == nil {
		return &syntax.Parameters{}
	}
	ps := &syntax.Parameters{Span: span(n)}
	for _, child := range namedChildren(n) {
		p := &syntax.Param{Span: span(child)}
		switch child.Kind() {
		case "identifier":
			p.Name = c.text(child)
		case "typed_parameter":
			inner := firstNamed(child)
			p.Name, p.Star = c.paramName(inner)
			p.Annotation = c.expr(child.ChildByFieldName("type"))
		case "default_parameter":
			p.Name = c.text(child.ChildByFieldName("name"))
			p.Default = c.expr(child.ChildByFieldName("value"))
		case "typed_default_parameter":
			p.Name = c.text(child.ChildByFieldName("name"))
			p.Annotation = c.expr(child.ChildByFieldName("type"))
			p.Default = c.expr(child.ChildByFieldName("value"))
		case "list_splat_pattern", "dictionary_splat_pattern":
			p.Name, p.Star = c.paramName(child)
		case "keyword_separator":
			p.Star = "*"
		case "positional_separator":
			p.Star = "/"
		default:
			p.Name = c.text(child)
		}
		ps.List = append(ps.List, p)
	}
	return ps
}

func (c *converter) paramName(n *sitter.Node) (name, star string) {
	switch n.Kind() {
	case "list_splat_pattern":
		return c.text(firstNamed(n)), "*"
	case "dictionary_splat_pattern":
		return c.text(firstNamed(n)), "**"
	}
	return c.text(n), ""
}

func (c *converter) ifStatement(n *sitter.Node) *syntax.If {
	sp := span(n)
	s := &syntax.If{
		Span: sp,
		Test: c.expr(n.ChildByFieldName("condition")),
		Body: c.block(n.ChildByFieldName("consequence")),
	}
	cur := s
	for _, alt := range namedChildren(n) {
		switch alt.Kind() {
		case "elif_clause":
			nested := &syntax.If{
				Span: syntax.Span{Start: span(alt).Start, End: sp.End},
				Test: c.expr(alt.ChildByFieldName("condition")),
				Body: c.block(alt.ChildByFieldName("consequence")),
				Elif: true,
			}
			cur.Orelse = []syntax.Stmt{nested}
			cur = nested
		case "else_clause":
			cur.Orelse = c.clauseBody(alt)
		}
	}
	return s
}

func (c *converter) withStatement(n *sitter.Node) *syntax.With {
	s := &syntax.With{
		Span:  span(n),
		Body:  c.block(n.ChildByFieldName("body")),
		Async: findChildByType(n, "async") != nil,
	}
	clause := findChildByType(n, "with_clause")
	for _, item := range namedChildren(clause) {
		if item.Kind() != "with_item" {
			continue
		}
		wi := &syntax.WithItem{Span: span(item)}
		value := item.ChildByFieldName("value")
		if value != nil && value.Kind() == "as_pattern" {
			wi.Context = c.expr(firstNamed(value))
			wi.Target = c.expr(value.ChildByFieldName("alias"))
		} else {
			wi.Context = c.expr(value)
			wi.Target = c.expr(item.ChildByFieldName("alias"))
		}
		s.Items = append(s.Items, wi)
	}
	return s
}

func (c *converter) tryStatement(n *sitter.Node) *syntax.Try {
	s := &syntax.Try{Span: span(n), Body: c.block(n.ChildByFieldName("body"))}
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "except_clause", "except_group_clause":
			s.Handlers = append(s.Handlers, c.exceptClause(child))
		case "else_clause":
			s.Orelse = c.clauseBody(child)
		case "finally_clause":
			s.Finally = c.clauseBody(child)
		}
	}
	return s
}

// exceptClause handles both the as_pattern form and the older
// "except E as name" token sequence.
func (c *converter) exceptClause(n *sitter.Node) *syntax.ExceptHandler {
	h := &syntax.ExceptHandler{Span: span(n)}
	sawAs := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch {
		case child.Kind() == "block":
			h.Body = c.block(child)
		case !child.IsNamed():
			if child.Kind() == "as" {
				sawAs = true
			}
		case child.Kind() == "comment":
		case child.Kind() == "as_pattern":
			h.Type = c.expr(firstNamed(child))
			if alias := child.ChildByFieldName("alias"); alias != nil {
				if inner := firstNamed(alias); inner != nil && alias.Kind() == "as_pattern_target" {
					alias = inner
				}
				h.Name = c.text(alias)
				h.NamePos = span(alias).Start
			}
		case sawAs:
			h.Name = c.text(child)
			h.NamePos = span(child).Start
		case h.Type == nil:
			h.Type = c.expr(child)
		}
	}
	return h
}

// importedNames returns the local names an import statement binds.
func (c *converter) importedNames(n *sitter.Node) []string {
	if n.Kind() == "future_import_statement" {
		return nil
	}
	module := n.ChildByFieldName("module_name")
	var names []string
	for _, child := range namedChildren(n) {
		if sameNode(child, module) {
			continue
		}
		switch child.Kind() {
		case "aliased_import":
			names = append(names, c.text(child.ChildByFieldName("alias")))
		case "dotted_name":
			// import a.b binds a; from m import b binds b.
			if first := firstNamed(child); first != nil {
				names = append(names, c.text(first))
			}
		}
	}
	return names
}

func (c *converter) matchStatement(n *sitter.Node) *syntax.Match {
	s := &syntax.Match{Span: span(n)}
	var subjects []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(uint32(i)) == "subject" {
			subjects = append(subjects, n.Child(uint(i)))
		}
	}
	if len(subjects) == 1 {
		s.Subject = c.expr(subjects[0])
	} else {
		s.Subject = &syntax.Tuple{Span: s.Span, Elts: c.exprs(subjects)}
	}

	for _, clause := range namedChildren(n.ChildByFieldName("body")) {
		if clause.Kind() != "case_clause" {
			continue
		}
		mc := &syntax.MatchCase{
			Span: span(clause),
			Body: c.block(clause.ChildByFieldName("consequence")),
		}
		if guard := clause.ChildByFieldName("guard"); guard != nil {
			mc.Guard = c.expr(firstNamed(guard))
		}
		var patterns []*sitter.Node
		for _, child := range namedChildren(clause) {
			if child.Kind() == "case_pattern" {
				patterns = append(patterns, child)
				c.pattern(child, mc)
			}
		}
		if len(patterns) > 0 {
			first, last := patterns[0], patterns[len(patterns)-1]
			mc.Pattern = string(c.src[first.StartByte():last.EndByte()])
		}
		s.Cases = append(s.Cases, mc)
	}
	return s
}

// pattern collects the names a case pattern binds and the names it reads.
// A bare name is a capture; a dotted name is a value lookup of its first
// part, as is the class of a class pattern and the key of a mapping entry.
func (c *converter) pattern(n *sitter.Node, mc *syntax.MatchCase) {
	name := func(id *sitter.Node) *syntax.Name {
		return &syntax.Name{Span: span(id), Id: c.text(id)}
	}
	read := func(dotted *sitter.Node) {
		if first := firstNamed(dotted); first != nil {
			mc.Reads = append(mc.Reads, name(first))
		}
	}

	switch n.Kind() {
	case "dotted_name":
		parts := namedChildren(n)
		if len(parts) == 1 {
			mc.Captures = append(mc.Captures, name(parts[0]))
		} else {
			read(n)
		}
		return
	case "class_pattern":
		for i, child := range namedChildren(n) {
			if i == 0 && child.Kind() == "dotted_name" {
				read(child)
				continue
			}
			c.pattern(child, mc)
		}
		return
	case "keyword_pattern":
		// The leading identifier is the attribute being matched.
		for i, child := range namedChildren(n) {
			if i > 0 {
				c.pattern(child, mc)
			}
		}
		return
	case "as_pattern":
		children := namedChildren(n)
		for i, child := range children {
			if i == len(children)-1 && child.Kind() == "identifier" {
				mc.Captures = append(mc.Captures, name(child))
				continue
			}
			c.pattern(child, mc)
		}
		return
	case "splat_pattern":
		if id := firstNamed(n); id != nil && id.Kind() == "identifier" {
			mc.Captures = append(mc.Captures, name(id))
		}
		return
	case "dict_pattern":
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(uint(i))
			if !child.IsNamed() || child.Kind() == "comment" {
				continue
			}
			if n.FieldNameForChild(uint32(i)) == "key" {
				if child.Kind() == "dotted_name" {
					read(child)
				}
				continue
			}
			c.pattern(child, mc)
		}
		return
	}
	for _, child := range namedChildren(n) {
		c.pattern(child, mc)
	}
}
