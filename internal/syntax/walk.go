package syntax

// Visitor is driven by Walk. Enter is called before a node's children and
// reports whether to descend; Leave is called after, for every node that was
// entered, whether or not its children were visited.
type Visitor interface {
	Enter(n Node) bool
	Leave(n Node)
}

// Walk traverses the tree rooted at n in source order.
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	if v.Enter(n) {
		for _, c := range Children(n) {
			Walk(v, c)
		}
	}
	v.Leave(n)
}

type inspector func(Node) bool

func (f inspector) Enter(n Node) bool { return f(n) }
func (f inspector) Leave(Node)        {}

// Inspect calls f for every node in pre-order; children are skipped when f
// returns false.
func Inspect(n Node, f func(Node) bool) {
	Walk(inspector(f), n)
}

// Children returns the direct children of n in source order. Nil optional
// children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}
	addExprs := func(xs []Expr) {
		for _, x := range xs {
			add(x)
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			add(s)
		}
	}

	switch n := n.(type) {
	case *Module:
		addStmts(n.Body)
	case *Parameters:
		for _, p := range n.List {
			add(p)
		}
	case *Param:
		add(n.Annotation, n.Default)
	case *FunctionDef:
		addExprs(n.Decorators)
		add(n.Params, n.Returns)
		addStmts(n.Body)
	case *ClassDef:
		addExprs(n.Decorators)
		addExprs(n.Bases)
		addStmts(n.Body)
	case *Assign:
		add(n.Value)
		addExprs(n.Targets)
		add(n.Annotation)
	case *AugAssign:
		add(n.Target, n.Value)
	case *For:
		add(n.Target, n.Iter)
		addStmts(n.Body)
		addStmts(n.Orelse)
	case *While:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Orelse)
	case *If:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Orelse)
	case *WithItem:
		add(n.Context, n.Target)
	case *With:
		for _, item := range n.Items {
			add(item)
		}
		addStmts(n.Body)
	case *ExceptHandler:
		add(n.Type)
		addStmts(n.Body)
	case *Try:
		addStmts(n.Body)
		for _, h := range n.Handlers {
			add(h)
		}
		addStmts(n.Orelse)
		addStmts(n.Finally)
	case *MatchCase:
		for _, r := range n.Reads {
			add(r)
		}
		for _, c := range n.Captures {
			add(c)
		}
		add(n.Guard)
		addStmts(n.Body)
	case *Match:
		add(n.Subject)
		for _, c := range n.Cases {
			add(c)
		}
	case *Return:
		add(n.Value)
	case *ExprStmt:
		add(n.Value)
	case *Raise:
		add(n.Exc, n.Cause)
	case *Assert:
		add(n.Test, n.Msg)
	case *Delete:
		addExprs(n.Targets)
	case *RawStmt:
		for _, r := range n.Refs {
			add(r)
		}
	case *Break, *Continue, *Pass, *Global, *Import, *Name, *Literal:
	case *Attribute:
		add(n.Value)
	case *Keyword:
		add(n.Value)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
		for _, k := range n.Keywords {
			add(k)
		}
	case *BinaryOp:
		add(n.Left, n.Right)
	case *UnaryOp:
		add(n.Operand)
	case *Compare:
		add(n.Left)
		addExprs(n.Comparators)
	case *Paren:
		add(n.X)
	case *Tuple:
		addExprs(n.Elts)
	case *List:
		addExprs(n.Elts)
	case *Set:
		addExprs(n.Elts)
	case *Dict:
		for i := range n.Values {
			if n.Keys[i] != nil {
				add(n.Keys[i])
			}
			add(n.Values[i])
		}
	case *Subscript:
		add(n.Value, n.Index)
	case *Starred:
		add(n.Value)
	case *Lambda:
		add(n.Params, n.Body)
	case *IfExp:
		add(n.Body, n.Test, n.Orelse)
	case *NamedExpr:
		add(n.Target, n.Value)
	case *Await:
		add(n.Value)
	case *Yield:
		add(n.Value)
	case *CompFor:
		add(n.Target, n.Iter)
		addExprs(n.Ifs)
	case *Comprehension:
		add(n.Key, n.Elt)
		for _, g := range n.Generators {
			add(g)
		}
	case *RawExpr:
		for _, r := range n.Refs {
			add(r)
		}
	}
	return out
}

// Blocks returns the nested statement sequences of a compound statement in
// source order. Function and class bodies are included; callers that treat
// them as opaque must filter by kind.
func Blocks(s Stmt) [][]Stmt {
	switch s := s.(type) {
	case *FunctionDef:
		return [][]Stmt{s.Body}
	case *ClassDef:
		return [][]Stmt{s.Body}
	case *For:
		return [][]Stmt{s.Body, s.Orelse}
	case *While:
		return [][]Stmt{s.Body, s.Orelse}
	case *If:
		return [][]Stmt{s.Body, s.Orelse}
	case *With:
		return [][]Stmt{s.Body}
	case *Try:
		blocks := [][]Stmt{s.Body}
		for _, h := range s.Handlers {
			blocks = append(blocks, h.Body)
		}
		return append(blocks, s.Orelse, s.Finally)
	case *Match:
		blocks := make([][]Stmt, len(s.Cases))
		for i, c := range s.Cases {
			blocks[i] = c.Body
		}
		return blocks
	}
	return nil
}

// isNil reports whether a Node interface holds nothing or a typed nil.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Name:
		return n == nil
	case *Parameters:
		return n == nil
	case *Param:
		return n == nil
	case *Keyword:
		return n == nil
	case *WithItem:
		return n == nil
	case *ExceptHandler:
		return n == nil
	case *CompFor:
		return n == nil
	case *MatchCase:
		return n == nil
	}
	return false
}
