package syntax

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// FormatStmts renders stmts as Python source at the given indent level.
// Parentheses are only emitted where the tree holds a Paren node, so
// synthesized trees must add Paren themselves when precedence requires it.
func FormatStmts(stmts []Stmt, level int) string {
	var p printer
	p.block(stmts, level)
	return p.String()
}

// FormatStmt renders a single statement at indent level 0.
func FormatStmt(s Stmt) string {
	return FormatStmts([]Stmt{s}, 0)
}

// FormatExpr renders an expression.
func FormatExpr(x Expr) string {
	var p printer
	p.expr(x)
	return p.String()
}

// FormatParams renders a parameter list without the surrounding parentheses.
func FormatParams(params *Parameters) string {
	var p printer
	p.params(params)
	return p.String()
}

type printer struct {
	strings.Builder
}

func (p *printer) line(level int, format string, args ...any) {
	p.WriteString(strings.Repeat(indentUnit, level))
	fmt.Fprintf(p, format, args...)
	p.WriteByte('\n')
}

func (p *printer) block(stmts []Stmt, level int) {
	if len(stmts) == 0 {
		p.line(level, "pass")
		return
	}
	for _, s := range stmts {
		p.stmt(s, level)
	}
}

func (p *printer) stmt(s Stmt, level int) {
	switch s := s.(type) {
	case *FunctionDef:
		for _, d := range s.Decorators {
			p.line(level, "@%s", FormatExpr(d))
		}
		prefix := "def"
		if s.Async {
			prefix = "async def"
		}
		ret := ""
		if s.Returns != nil {
			ret = " -> " + FormatExpr(s.Returns)
		}
		p.line(level, "%s %s(%s)%s:", prefix, s.Name, FormatParams(s.Params), ret)
		p.block(s.Body, level+1)
	case *ClassDef:
		for _, d := range s.Decorators {
			p.line(level, "@%s", FormatExpr(d))
		}
		if len(s.Bases) > 0 {
			p.line(level, "class %s(%s):", s.Name, joinExprs(s.Bases))
		} else {
			p.line(level, "class %s:", s.Name)
		}
		p.block(s.Body, level+1)
	case *Assign:
		if s.Annotation != nil {
			text := FormatExpr(s.Targets[0]) + ": " + FormatExpr(s.Annotation)
			if s.Value != nil {
				text += " = " + FormatExpr(s.Value)
			}
			p.line(level, "%s", text)
			return
		}
		var sb strings.Builder
		for _, t := range s.Targets {
			sb.WriteString(FormatExpr(t))
			sb.WriteString(" = ")
		}
		sb.WriteString(FormatExpr(s.Value))
		p.line(level, "%s", sb.String())
	case *AugAssign:
		p.line(level, "%s %s %s", FormatExpr(s.Target), s.Op, FormatExpr(s.Value))
	case *For:
		prefix := "for"
		if s.Async {
			prefix = "async for"
		}
		p.line(level, "%s %s in %s:", prefix, FormatExpr(s.Target), FormatExpr(s.Iter))
		p.block(s.Body, level+1)
		if len(s.Orelse) > 0 {
			p.line(level, "else:")
			p.block(s.Orelse, level+1)
		}
	case *While:
		p.line(level, "while %s:", FormatExpr(s.Test))
		p.block(s.Body, level+1)
		if len(s.Orelse) > 0 {
			p.line(level, "else:")
			p.block(s.Orelse, level+1)
		}
	case *If:
		p.ifChain(s, level, "if")
	case *With:
		items := make([]string, len(s.Items))
		for i, item := range s.Items {
			items[i] = FormatExpr(item.Context)
			if item.Target != nil {
				items[i] += " as " + FormatExpr(item.Target)
			}
		}
		prefix := "with"
		if s.Async {
			prefix = "async with"
		}
		p.line(level, "%s %s:", prefix, strings.Join(items, ", "))
		p.block(s.Body, level+1)
	case *Try:
		p.line(level, "try:")
		p.block(s.Body, level+1)
		for _, h := range s.Handlers {
			clause := "except"
			if h.Type != nil {
				clause += " " + FormatExpr(h.Type)
			}
			if h.Name != "" {
				clause += " as " + h.Name
			}
			p.line(level, "%s:", clause)
			p.block(h.Body, level+1)
		}
		if len(s.Orelse) > 0 {
			p.line(level, "else:")
			p.block(s.Orelse, level+1)
		}
		if len(s.Finally) > 0 {
			p.line(level, "finally:")
			p.block(s.Finally, level+1)
		}
	case *Return:
		if s.Value == nil {
			p.line(level, "return")
		} else {
			p.line(level, "return %s", FormatExpr(s.Value))
		}
	case *ExprStmt:
		p.line(level, "%s", FormatExpr(s.Value))
	case *Break:
		p.line(level, "break")
	case *Continue:
		p.line(level, "continue")
	case *Pass:
		p.line(level, "pass")
	case *Raise:
		text := "raise"
		if s.Exc != nil {
			text += " " + FormatExpr(s.Exc)
		}
		if s.Cause != nil {
			text += " from " + FormatExpr(s.Cause)
		}
		p.line(level, "%s", text)
	case *Assert:
		if s.Msg != nil {
			p.line(level, "assert %s, %s", FormatExpr(s.Test), FormatExpr(s.Msg))
		} else {
			p.line(level, "assert %s", FormatExpr(s.Test))
		}
	case *Delete:
		p.line(level, "del %s", joinExprs(s.Targets))
	case *Global:
		kw := "global"
		if s.Nonlocal {
			kw = "nonlocal"
		}
		p.line(level, "%s %s", kw, strings.Join(s.Names, ", "))
	case *Import:
		p.line(level, "%s", s.Text)
	case *Match:
		p.line(level, "match %s:", FormatExpr(s.Subject))
		for _, c := range s.Cases {
			if c.Guard != nil {
				p.line(level+1, "case %s if %s:", c.Pattern, FormatExpr(c.Guard))
			} else {
				p.line(level+1, "case %s:", c.Pattern)
			}
			p.block(c.Body, level+2)
		}
	case *RawStmt:
		p.raw(s.Text, s.Span.Start.Column, level)
	default:
		panic(fmt.Sprintf("syntax: cannot format statement %T", s))
	}
}

func (p *printer) ifChain(s *If, level int, kw string) {
	p.line(level, "%s %s:", kw, FormatExpr(s.Test))
	p.block(s.Body, level+1)
	if len(s.Orelse) == 0 {
		return
	}
	if elif, ok := s.Orelse[0].(*If); ok && elif.Elif && len(s.Orelse) == 1 {
		p.ifChain(elif, level, "elif")
		return
	}
	p.line(level, "else:")
	p.block(s.Orelse, level+1)
}

// raw re-indents verbatim source whose first line started at column col.
func (p *printer) raw(text string, col int, level int) {
	prefix := strings.Repeat(" ", col)
	for i, ln := range strings.Split(text, "\n") {
		if i > 0 {
			ln = strings.TrimPrefix(ln, prefix)
		}
		p.line(level, "%s", ln)
	}
}

func (p *printer) params(params *Parameters) {
	if params == nil {
		return
	}
	for i, param := range params.List {
		if i > 0 {
			p.WriteString(", ")
		}
		if param.Star == "/" {
			p.WriteString("/")
			continue
		}
		p.WriteString(param.Star)
		p.WriteString(param.Name)
		if param.Annotation != nil {
			p.WriteString(": ")
			p.expr(param.Annotation)
		}
		if param.Default != nil {
			if param.Annotation != nil {
				p.WriteString(" = ")
			} else {
				p.WriteString("=")
			}
			p.expr(param.Default)
		}
	}
}

func (p *printer) exprs(xs []Expr) {
	for i, x := range xs {
		if i > 0 {
			p.WriteString(", ")
		}
		p.expr(x)
	}
}

func (p *printer) expr(x Expr) {
	switch x := x.(type) {
	case nil:
	case *Name:
		p.WriteString(x.Id)
	case *Attribute:
		p.expr(x.Value)
		p.WriteByte('.')
		p.WriteString(x.Attr)
	case *Call:
		p.expr(x.Func)
		p.WriteByte('(')
		p.exprs(x.Args)
		for i, k := range x.Keywords {
			if i > 0 || len(x.Args) > 0 {
				p.WriteString(", ")
			}
			if k.Name == "" {
				p.WriteString("**")
			} else {
				p.WriteString(k.Name)
				p.WriteByte('=')
			}
			p.expr(k.Value)
		}
		p.WriteByte(')')
	case *Literal:
		p.WriteString(x.Value)
	case *BinaryOp:
		p.expr(x.Left)
		fmt.Fprintf(p, " %s ", x.Op)
		p.expr(x.Right)
	case *UnaryOp:
		p.WriteString(x.Op)
		if x.Op == "not" {
			p.WriteByte(' ')
		}
		p.expr(x.Operand)
	case *Compare:
		p.expr(x.Left)
		for i, op := range x.Ops {
			fmt.Fprintf(p, " %s ", op)
			p.expr(x.Comparators[i])
		}
	case *Paren:
		p.WriteByte('(')
		p.expr(x.X)
		p.WriteByte(')')
	case *Tuple:
		if x.Parenthesed {
			p.WriteByte('(')
		}
		p.exprs(x.Elts)
		if len(x.Elts) == 1 {
			p.WriteByte(',')
		}
		if x.Parenthesed {
			p.WriteByte(')')
		}
	case *List:
		p.WriteByte('[')
		p.exprs(x.Elts)
		p.WriteByte(']')
	case *Set:
		p.WriteByte('{')
		p.exprs(x.Elts)
		p.WriteByte('}')
	case *Dict:
		p.WriteByte('{')
		for i := range x.Values {
			if i > 0 {
				p.WriteString(", ")
			}
			if x.Keys[i] == nil {
				p.WriteString("**")
			} else {
				p.expr(x.Keys[i])
				p.WriteString(": ")
			}
			p.expr(x.Values[i])
		}
		p.WriteByte('}')
	case *Subscript:
		p.expr(x.Value)
		p.WriteByte('[')
		p.expr(x.Index)
		p.WriteByte(']')
	case *Starred:
		if x.Double {
			p.WriteString("**")
		} else {
			p.WriteByte('*')
		}
		p.expr(x.Value)
	case *Lambda:
		p.WriteString("lambda")
		if x.Params != nil && len(x.Params.List) > 0 {
			p.WriteByte(' ')
			p.params(x.Params)
		}
		p.WriteString(": ")
		p.expr(x.Body)
	case *IfExp:
		p.expr(x.Body)
		p.WriteString(" if ")
		p.expr(x.Test)
		p.WriteString(" else ")
		p.expr(x.Orelse)
	case *NamedExpr:
		p.WriteString(x.Target.Id)
		p.WriteString(" := ")
		p.expr(x.Value)
	case *Await:
		p.WriteString("await ")
		p.expr(x.Value)
	case *Yield:
		p.WriteString("yield")
		if x.From {
			p.WriteString(" from")
		}
		if x.Value != nil {
			p.WriteByte(' ')
			p.expr(x.Value)
		}
	case *Comprehension:
		lhs, rhs := "[", "]"
		switch x.Kind {
		case SetComp, DictComp:
			lhs, rhs = "{", "}"
		case GeneratorExp:
			lhs, rhs = "(", ")"
		}
		p.WriteString(lhs)
		if x.Key != nil {
			p.expr(x.Key)
			p.WriteString(": ")
		}
		p.expr(x.Elt)
		for _, g := range x.Generators {
			if g.Async {
				p.WriteString(" async")
			}
			p.WriteString(" for ")
			p.expr(g.Target)
			p.WriteString(" in ")
			p.expr(g.Iter)
			for _, cond := range g.Ifs {
				p.WriteString(" if ")
				p.expr(cond)
			}
		}
		p.WriteString(rhs)
	case *RawExpr:
		p.WriteString(x.Text)
	default:
		panic(fmt.Sprintf("syntax: cannot format expression %T", x))
	}
}

func joinExprs(xs []Expr) string {
	var p printer
	p.exprs(xs)
	return p.String()
}
