package syntax

// CloneStmts returns a deep copy of stmts. Spans are preserved.
func CloneStmts(stmts []Stmt) []Stmt {
	if stmts == nil {
		return nil
	}
	out := make([]Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = CloneStmt(s)
	}
	return out
}

// CloneExprs returns a deep copy of xs.
func CloneExprs(xs []Expr) []Expr {
	if xs == nil {
		return nil
	}
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = CloneExpr(x)
	}
	return out
}

// CloneParams returns a deep copy of a parameter list.
func CloneParams(p *Parameters) *Parameters {
	if p == nil {
		return nil
	}
	out := &Parameters{Span: p.Span, List: make([]*Param, len(p.List))}
	for i, param := range p.List {
		out.List[i] = &Param{
			Span:       param.Span,
			Name:       param.Name,
			Annotation: CloneExpr(param.Annotation),
			Default:    CloneExpr(param.Default),
			Star:       param.Star,
		}
	}
	return out
}

// CloneFunc returns a deep copy of fn.
func CloneFunc(fn *FunctionDef) *FunctionDef {
	return CloneStmt(fn).(*FunctionDef)
}

// CloneStmt returns a deep copy of s.
func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *FunctionDef:
		return &FunctionDef{
			Span:       s.Span,
			Name:       s.Name,
			Params:     CloneParams(s.Params),
			Returns:    CloneExpr(s.Returns),
			Body:       CloneStmts(s.Body),
			Decorators: CloneExprs(s.Decorators),
			Async:      s.Async,
		}
	case *ClassDef:
		return &ClassDef{
			Span:       s.Span,
			Name:       s.Name,
			Bases:      CloneExprs(s.Bases),
			Body:       CloneStmts(s.Body),
			Decorators: CloneExprs(s.Decorators),
		}
	case *Assign:
		return &Assign{
			Span:       s.Span,
			Targets:    CloneExprs(s.Targets),
			Value:      CloneExpr(s.Value),
			Annotation: CloneExpr(s.Annotation),
		}
	case *AugAssign:
		return &AugAssign{Span: s.Span, Target: CloneExpr(s.Target), Op: s.Op, Value: CloneExpr(s.Value)}
	case *For:
		return &For{
			Span:   s.Span,
			Target: CloneExpr(s.Target),
			Iter:   CloneExpr(s.Iter),
			Body:   CloneStmts(s.Body),
			Orelse: CloneStmts(s.Orelse),
			Async:  s.Async,
		}
	case *While:
		return &While{Span: s.Span, Test: CloneExpr(s.Test), Body: CloneStmts(s.Body), Orelse: CloneStmts(s.Orelse)}
	case *If:
		return &If{Span: s.Span, Test: CloneExpr(s.Test), Body: CloneStmts(s.Body), Orelse: CloneStmts(s.Orelse), Elif: s.Elif}
	case *With:
		items := make([]*WithItem, len(s.Items))
		for i, item := range s.Items {
			items[i] = &WithItem{Span: item.Span, Context: CloneExpr(item.Context), Target: CloneExpr(item.Target)}
		}
		return &With{Span: s.Span, Items: items, Body: CloneStmts(s.Body), Async: s.Async}
	case *Try:
		handlers := make([]*ExceptHandler, len(s.Handlers))
		for i, h := range s.Handlers {
			handlers[i] = &ExceptHandler{
				Span:    h.Span,
				Type:    CloneExpr(h.Type),
				Name:    h.Name,
				NamePos: h.NamePos,
				Body:    CloneStmts(h.Body),
			}
		}
		return &Try{
			Span:     s.Span,
			Body:     CloneStmts(s.Body),
			Handlers: handlers,
			Orelse:   CloneStmts(s.Orelse),
			Finally:  CloneStmts(s.Finally),
		}
	case *Return:
		return &Return{Span: s.Span, Value: CloneExpr(s.Value)}
	case *ExprStmt:
		return &ExprStmt{Span: s.Span, Value: CloneExpr(s.Value)}
	case *Break:
		return &Break{Span: s.Span}
	case *Continue:
		return &Continue{Span: s.Span}
	case *Pass:
		return &Pass{Span: s.Span}
	case *Raise:
		return &Raise{Span: s.Span, Exc: CloneExpr(s.Exc), Cause: CloneExpr(s.Cause)}
	case *Assert:
		return &Assert{Span: s.Span, Test: CloneExpr(s.Test), Msg: CloneExpr(s.Msg)}
	case *Delete:
		return &Delete{Span: s.Span, Targets: CloneExprs(s.Targets)}
	case *Global:
		return &Global{Span: s.Span, Names: cloneStrings(s.Names), Nonlocal: s.Nonlocal}
	case *Import:
		return &Import{Span: s.Span, Text: s.Text, Names: cloneStrings(s.Names)}
	case *Match:
		out := &Match{Span: s.Span, Subject: CloneExpr(s.Subject)}
		for _, c := range s.Cases {
			out.Cases = append(out.Cases, &MatchCase{
				Span:     c.Span,
				Pattern:  c.Pattern,
				Captures: cloneNames(c.Captures),
				Reads:    cloneNames(c.Reads),
				Guard:    CloneExpr(c.Guard),
				Body:     CloneStmts(c.Body),
			})
		}
		return out
	case *RawStmt:
		return &RawStmt{Span: s.Span, Kind: s.Kind, Text: s.Text, Refs: cloneNames(s.Refs)}
	}
	panic("syntax: CloneStmt: unhandled statement kind")
}

// CloneExpr returns a deep copy of x.
func CloneExpr(x Expr) Expr {
	switch x := x.(type) {
	case nil:
		return nil
	case *Name:
		return &Name{Span: x.Span, Id: x.Id}
	case *Attribute:
		return &Attribute{Span: x.Span, Value: CloneExpr(x.Value), Attr: x.Attr}
	case *Call:
		return &Call{Span: x.Span, Func: CloneExpr(x.Func), Args: CloneExprs(x.Args), Keywords: cloneKeywords(x.Keywords)}
	case *Literal:
		return &Literal{Span: x.Span, Kind: x.Kind, Value: x.Value}
	case *BinaryOp:
		return &BinaryOp{Span: x.Span, Left: CloneExpr(x.Left), Op: x.Op, Right: CloneExpr(x.Right)}
	case *UnaryOp:
		return &UnaryOp{Span: x.Span, Op: x.Op, Operand: CloneExpr(x.Operand)}
	case *Compare:
		return &Compare{Span: x.Span, Left: CloneExpr(x.Left), Ops: cloneStrings(x.Ops), Comparators: CloneExprs(x.Comparators)}
	case *Paren:
		return &Paren{Span: x.Span, X: CloneExpr(x.X)}
	case *Tuple:
		return &Tuple{Span: x.Span, Elts: CloneExprs(x.Elts), Parenthesed: x.Parenthesed}
	case *List:
		return &List{Span: x.Span, Elts: CloneExprs(x.Elts)}
	case *Set:
		return &Set{Span: x.Span, Elts: CloneExprs(x.Elts)}
	case *Dict:
		return &Dict{Span: x.Span, Keys: CloneExprs(x.Keys), Values: CloneExprs(x.Values)}
	case *Subscript:
		return &Subscript{Span: x.Span, Value: CloneExpr(x.Value), Index: CloneExpr(x.Index)}
	case *Starred:
		return &Starred{Span: x.Span, Value: CloneExpr(x.Value), Double: x.Double}
	case *Lambda:
		return &Lambda{Span: x.Span, Params: CloneParams(x.Params), Body: CloneExpr(x.Body)}
	case *IfExp:
		return &IfExp{Span: x.Span, Test: CloneExpr(x.Test), Body: CloneExpr(x.Body), Orelse: CloneExpr(x.Orelse)}
	case *NamedExpr:
		return &NamedExpr{Span: x.Span, Target: &Name{Span: x.Target.Span, Id: x.Target.Id}, Value: CloneExpr(x.Value)}
	case *Await:
		return &Await{Span: x.Span, Value: CloneExpr(x.Value)}
	case *Yield:
		return &Yield{Span: x.Span, Value: CloneExpr(x.Value), From: x.From}
	case *Comprehension:
		gens := make([]*CompFor, len(x.Generators))
		for i, g := range x.Generators {
			gens[i] = &CompFor{Span: g.Span, Target: CloneExpr(g.Target), Iter: CloneExpr(g.Iter), Ifs: CloneExprs(g.Ifs), Async: g.Async}
		}
		return &Comprehension{Span: x.Span, Kind: x.Kind, Key: CloneExpr(x.Key), Elt: CloneExpr(x.Elt), Generators: gens}
	case *RawExpr:
		return &RawExpr{Span: x.Span, Kind: x.Kind, Text: x.Text, Refs: cloneNames(x.Refs)}
	}
	panic("syntax: CloneExpr: unhandled expression kind")
}

func cloneKeywords(ks []*Keyword) []*Keyword {
	if ks == nil {
		return nil
	}
	out := make([]*Keyword, len(ks))
	for i, k := range ks {
		out[i] = &Keyword{Span: k.Span, Name: k.Name, Value: CloneExpr(k.Value)}
	}
	return out
}

func cloneNames(ns []*Name) []*Name {
	if ns == nil {
		return nil
	}
	out := make([]*Name, len(ns))
	for i, n := range ns {
		out[i] = &Name{Span: n.Span, Id: n.Id}
	}
	return out
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	return append([]string(nil), ss...)
}
