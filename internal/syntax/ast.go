// Package syntax defines the tree the analysis core works on: a closed set of
// Python statement and expression kinds, each carrying its source span.
//
// The set is deliberately small. Constructs the analyses do not need to look
// inside are kept as RawStmt/RawExpr, which remember their source text and
// the bare names referenced in it.
package syntax

// Position is a 1-based line and a 0-based byte column.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p sorts before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is the extent of a node in the source. Synthesized nodes have a zero Span.
type Span struct {
	Start Position
	End   Position
}

// StartLine returns the line the node begins on.
func (s Span) StartLine() int { return s.Start.Line }

// EndLine returns the line the node ends on.
func (s Span) EndLine() int { return s.End.Line }

// ContainsLine reports whether line falls within the span.
func (s Span) ContainsLine(line int) bool {
	return line >= s.Start.Line && line <= s.End.Line
}

// Node is implemented by every tree node.
type Node interface {
	NodeSpan() Span
}

// Stmt is a statement node. The set of implementations is closed.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node. The set of implementations is closed.
type Expr interface {
	Node
	exprNode()
}

// Module is the root of a parsed file.
type Module struct {
	Span
	Body []Stmt
}

func (m *Module) NodeSpan() Span { return m.Span }

// ---------------------------------------------------------------------------
// Statements

// Param is a single formal parameter.
type Param struct {
	Span
	Name       string
	Annotation Expr   // optional
	Default    Expr   // optional
	Star       string // "", "*", "**", or "/" for the positional-only marker
}

func (p *Param) NodeSpan() Span { return p.Span }

// Parameters is a formal parameter list.
type Parameters struct {
	Span
	List []*Param
}

func (p *Parameters) NodeSpan() Span { return p.Span }

// Names returns the parameter names in declaration order.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.List))
	for _, param := range p.List {
		names = append(names, param.Name)
	}
	return names
}

// FunctionDef is a def or async def statement.
type FunctionDef struct {
	Span
	Name       string
	Params     *Parameters
	Returns    Expr // optional
	Body       []Stmt
	Decorators []Expr
	Async      bool
}

// HasDecorator reports whether a decorator named name (bare or called) is applied.
func (f *FunctionDef) HasDecorator(name string) bool {
	for _, d := range f.Decorators {
		if c, ok := d.(*Call); ok {
			d = c.Func
		}
		if n, ok := d.(*Name); ok && n.Id == name {
			return true
		}
	}
	return false
}

// ClassDef is a class statement.
type ClassDef struct {
	Span
	Name       string
	Bases      []Expr
	Body       []Stmt
	Decorators []Expr
}

// Assign covers plain, chained and annotated assignment. Targets holds one
// entry per "=" (a = b = v has two). An annotated assignment has exactly one
// target, a non-nil Annotation and possibly a nil Value.
type Assign struct {
	Span
	Targets    []Expr
	Value      Expr
	Annotation Expr
}

// AugAssign is an augmented update such as x += e.
type AugAssign struct {
	Span
	Target Expr
	Op     string
	Value  Expr
}

// For is a for loop.
type For struct {
	Span
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
	Async  bool
}

// While is a while loop.
type While struct {
	Span
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// If is an if statement. An elif chain is represented as a nested If that
// is the only statement of Orelse, with Elif set on it.
type If struct {
	Span
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
	Elif   bool
}

// WithItem is one "expr [as target]" clause.
type WithItem struct {
	Span
	Context Expr
	Target  Expr // optional
}

func (w *WithItem) NodeSpan() Span { return w.Span }

// With is a with statement.
type With struct {
	Span
	Items []*WithItem
	Body  []Stmt
	Async bool
}

// ExceptHandler is one except clause.
type ExceptHandler struct {
	Span
	Type    Expr   // optional
	Name    string // optional "as" binding
	NamePos Position
	Body    []Stmt
}

func (h *ExceptHandler) NodeSpan() Span { return h.Span }

// Try is a try statement.
type Try struct {
	Span
	Body     []Stmt
	Handlers []*ExceptHandler
	Orelse   []Stmt
	Finally  []Stmt
}

// MatchCase is one case clause. Pattern is the verbatim pattern text.
// Captures are the names the pattern binds and Reads the names it looks up
// (value and class patterns), both in source order.
type MatchCase struct {
	Span
	Pattern  string
	Captures []*Name
	Reads    []*Name
	Guard    Expr // optional
	Body     []Stmt
}

func (c *MatchCase) NodeSpan() Span { return c.Span }

// Match is a match statement.
type Match struct {
	Span
	Subject Expr
	Cases   []*MatchCase
}

// Return is a return statement.
type Return struct {
	Span
	Value Expr // optional
}

// ExprStmt is a bare expression used as a statement.
type ExprStmt struct {
	Span
	Value Expr
}

// Break is a break statement.
type Break struct{ Span }

// Continue is a continue statement.
type Continue struct{ Span }

// Pass is a pass statement.
type Pass struct{ Span }

// Raise is a raise statement.
type Raise struct {
	Span
	Exc   Expr // optional
	Cause Expr // optional
}

// Assert is an assert statement.
type Assert struct {
	Span
	Test Expr
	Msg  Expr // optional
}

// Delete is a del statement.
type Delete struct {
	Span
	Targets []Expr
}

// Global is a global or nonlocal declaration.
type Global struct {
	Span
	Names    []string
	Nonlocal bool
}

// Import is an import or from-import. Names are the local names it binds.
type Import struct {
	Span
	Text  string
	Names []string
}

// RawStmt is any statement kind the core does not model. Refs are the bare
// names read inside it. Text is the verbatim source, so continuation lines
// keep their original indentation relative to Span.Start.Column.
type RawStmt struct {
	Span
	Kind string
	Text string
	Refs []*Name
}

func (s *FunctionDef) NodeSpan() Span { return s.Span }
func (s *ClassDef) NodeSpan() Span    { return s.Span }
func (s *Assign) NodeSpan() Span      { return s.Span }
func (s *AugAssign) NodeSpan() Span   { return s.Span }
func (s *For) NodeSpan() Span         { return s.Span }
func (s *While) NodeSpan() Span       { return s.Span }
func (s *If) NodeSpan() Span          { return s.Span }
func (s *With) NodeSpan() Span        { return s.Span }
func (s *Try) NodeSpan() Span         { return s.Span }
func (s *Match) NodeSpan() Span       { return s.Span }
func (s *Return) NodeSpan() Span      { return s.Span }
func (s *ExprStmt) NodeSpan() Span    { return s.Span }
func (s *Break) NodeSpan() Span       { return s.Span }
func (s *Continue) NodeSpan() Span    { return s.Span }
func (s *Pass) NodeSpan() Span        { return s.Span }
func (s *Raise) NodeSpan() Span       { return s.Span }
func (s *Assert) NodeSpan() Span      { return s.Span }
func (s *Delete) NodeSpan() Span      { return s.Span }
func (s *Global) NodeSpan() Span      { return s.Span }
func (s *Import) NodeSpan() Span      { return s.Span }
func (s *RawStmt) NodeSpan() Span     { return s.Span }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Try) stmtNode()         {}
func (*Match) stmtNode()       {}
func (*Return) stmtNode()      {}
func (*ExprStmt) stmtNode()    {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Global) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*RawStmt) stmtNode()     {}

// ---------------------------------------------------------------------------
// Expressions

// Name is a bare identifier.
type Name struct {
	Span
	Id string
}

// Attribute is value.attr.
type Attribute struct {
	Span
	Value Expr
	Attr  string
}

// Keyword is a name=value call argument. Name is empty for **value.
type Keyword struct {
	Span
	Name  string
	Value Expr
}

func (k *Keyword) NodeSpan() Span { return k.Span }

// Call is a call expression.
type Call struct {
	Span
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// LiteralKind classifies a Literal.
type LiteralKind int

const (
	IntLiteral LiteralKind = iota + 1
	FloatLiteral
	StringLiteral
	BoolLiteral
	NoneLiteral
	EllipsisLiteral
)

// Literal is a constant. Value is the source spelling.
type Literal struct {
	Span
	Kind  LiteralKind
	Value string
}

// BinaryOp covers arithmetic, bitwise and boolean (and/or) operators.
type BinaryOp struct {
	Span
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp covers -x, +x, ~x and not x.
type UnaryOp struct {
	Span
	Op      string
	Operand Expr
}

// Compare is a (possibly chained) comparison.
type Compare struct {
	Span
	Left        Expr
	Ops         []string
	Comparators []Expr
}

// Paren is a parenthesized expression.
type Paren struct {
	Span
	X Expr
}

// Tuple is a tuple display or an unparenthesized comma list.
type Tuple struct {
	Span
	Elts        []Expr
	Parenthesed bool
}

// List is a list display.
type List struct {
	Span
	Elts []Expr
}

// Set is a set display.
type Set struct {
	Span
	Elts []Expr
}

// Dict is a dict display. A nil key marks a **mapping entry.
type Dict struct {
	Span
	Keys   []Expr
	Values []Expr
}

// Subscript is value[index].
type Subscript struct {
	Span
	Value Expr
	Index Expr
}

// Starred is *value or **value.
type Starred struct {
	Span
	Value  Expr
	Double bool
}

// Lambda is a lambda expression. Its body is an opaque sub-scope.
type Lambda struct {
	Span
	Params *Parameters
	Body   Expr
}

// IfExp is "body if test else orelse".
type IfExp struct {
	Span
	Test   Expr
	Body   Expr
	Orelse Expr
}

// NamedExpr is target := value.
type NamedExpr struct {
	Span
	Target *Name
	Value  Expr
}

// Await is await value.
type Await struct {
	Span
	Value Expr
}

// Yield is yield [value] or yield from value.
type Yield struct {
	Span
	Value Expr
	From  bool
}

// ComprehensionKind classifies a Comprehension.
type ComprehensionKind int

const (
	ListComp ComprehensionKind = iota + 1
	SetComp
	DictComp
	GeneratorExp
)

// CompFor is one "for target in iter [if cond]*" clause.
type CompFor struct {
	Span
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Async  bool
}

func (c *CompFor) NodeSpan() Span { return c.Span }

// Comprehension is a list/set/dict comprehension or generator expression.
// Key is set only for dict comprehensions.
type Comprehension struct {
	Span
	Kind       ComprehensionKind
	Key        Expr
	Elt        Expr
	Generators []*CompFor
}

// RawExpr is any expression kind the core does not model, such as f-strings
// and slices. Refs are the bare names read inside it.
type RawExpr struct {
	Span
	Kind string
	Text string
	Refs []*Name
}

func (e *Name) NodeSpan() Span          { return e.Span }
func (e *Attribute) NodeSpan() Span     { return e.Span }
func (e *Call) NodeSpan() Span          { return e.Span }
func (e *Literal) NodeSpan() Span       { return e.Span }
func (e *BinaryOp) NodeSpan() Span      { return e.Span }
func (e *UnaryOp) NodeSpan() Span       { return e.Span }
func (e *Compare) NodeSpan() Span       { return e.Span }
func (e *Paren) NodeSpan() Span         { return e.Span }
func (e *Tuple) NodeSpan() Span         { return e.Span }
func (e *List) NodeSpan() Span          { return e.Span }
func (e *Set) NodeSpan() Span           { return e.Span }
func (e *Dict) NodeSpan() Span          { return e.Span }
func (e *Subscript) NodeSpan() Span     { return e.Span }
func (e *Starred) NodeSpan() Span       { return e.Span }
func (e *Lambda) NodeSpan() Span        { return e.Span }
func (e *IfExp) NodeSpan() Span         { return e.Span }
func (e *NamedExpr) NodeSpan() Span     { return e.Span }
func (e *Await) NodeSpan() Span         { return e.Span }
func (e *Yield) NodeSpan() Span         { return e.Span }
func (e *Comprehension) NodeSpan() Span { return e.Span }
func (e *RawExpr) NodeSpan() Span       { return e.Span }

func (*Name) exprNode()          {}
func (*Attribute) exprNode()     {}
func (*Call) exprNode()          {}
func (*Literal) exprNode()       {}
func (*BinaryOp) exprNode()      {}
func (*UnaryOp) exprNode()       {}
func (*Compare) exprNode()       {}
func (*Paren) exprNode()         {}
func (*Tuple) exprNode()         {}
func (*List) exprNode()          {}
func (*Set) exprNode()           {}
func (*Dict) exprNode()          {}
func (*Subscript) exprNode()     {}
func (*Starred) exprNode()       {}
func (*Lambda) exprNode()        {}
func (*IfExp) exprNode()         {}
func (*NamedExpr) exprNode()     {}
func (*Await) exprNode()         {}
func (*Yield) exprNode()         {}
func (*Comprehension) exprNode() {}
func (*RawExpr) exprNode()       {}

// NewName returns a Name without position information.
func NewName(id string) *Name { return &Name{Id: id} }

// NewAttribute returns value.attr without position information.
func NewAttribute(value Expr, attr string) *Attribute {
	return &Attribute{Value: value, Attr: attr}
}
