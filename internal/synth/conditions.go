package synth

import (
	"math/big"
	"strings"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// SameValue reports whether two result expressions certainly evaluate to
// the same value: equal integer literals (in any base or spelling), equal
// plain string literals, the same True/False/None constant, or the same
// bare name. Anything else is conservatively different.
func SameValue(a, b syntax.Expr) bool {
	a, b = unparen(a), unparen(b)
	switch x := a.(type) {
	case *syntax.Literal:
		y, ok := b.(*syntax.Literal)
		if !ok || x.Kind != y.Kind {
			return false
		}
		switch x.Kind {
		case syntax.IntLiteral:
			return sameInt(x.Value, y.Value)
		case syntax.StringLiteral:
			return sameString(x.Value, y.Value)
		case syntax.BoolLiteral, syntax.NoneLiteral:
			return x.Value == y.Value
		}
	case *syntax.Name:
		y, ok := b.(*syntax.Name)
		return ok && x.Id == y.Id
	}
	return false
}

func unparen(x syntax.Expr) syntax.Expr {
	for {
		p, ok := x.(*syntax.Paren)
		if !ok {
			return x
		}
		x = p.X
	}
}

func sameInt(a, b string) bool {
	x, ok := new(big.Int).SetString(a, 0)
	if !ok {
		return false
	}
	y, ok := new(big.Int).SetString(b, 0)
	return ok && x.Cmp(y) == 0
}

// sameString compares string literals by content when both are plain,
// escape-free and in a single piece; otherwise by spelling.
func sameString(a, b string) bool {
	if a == b {
		return true
	}
	pa, ba, okA := plainString(a)
	pb, bb, okB := plainString(b)
	return okA && okB && pa == pb && ba == bb
}

// plainString splits a literal into its prefix and body. ok is false when
// the body could be read differently from its spelling.
func plainString(lit string) (prefix, body string, ok bool) {
	i := strings.IndexAny(lit, `'"`)
	if i < 0 {
		return "", "", false
	}
	prefix = strings.ToLower(lit[:i])
	if strings.ContainsAny(prefix, "rf") {
		return "", "", false
	}
	prefix = strings.ReplaceAll(prefix, "u", "")

	rest := lit[i:]
	quote := rest[:1]
	if strings.HasPrefix(rest, strings.Repeat(quote, 3)) && len(rest) >= 6 {
		quote = rest[:3]
	}
	if len(rest) < 2*len(quote) || !strings.HasSuffix(rest, quote) {
		return "", "", false
	}
	body = rest[len(quote) : len(rest)-len(quote)]
	if strings.ContainsAny(body, `\'"`) {
		return "", "", false
	}
	return prefix, body, true
}

// ConditionRun is a run of consecutive "if test: return value" statements
// in a block that all return the same value.
type ConditionRun struct {
	// Start and End index the first and last statement of the run.
	Start, End int
	Tests      []syntax.Expr
	Value      syntax.Expr
}

// SameResultRun finds the first run of at least two guard clauses in body
// that return the same value. Guards have a single return statement with a
// value and no else branch.
func SameResultRun(body []syntax.Stmt) (ConditionRun, bool) {
	var run ConditionRun
	for i, s := range body {
		test, value, guard := guardClause(s)
		switch {
		case guard && run.Value == nil:
			run = ConditionRun{Start: i, End: i, Tests: []syntax.Expr{test}, Value: value}
			continue
		case guard && SameValue(value, run.Value):
			run.End = i
			run.Tests = append(run.Tests, test)
			continue
		}
		if len(run.Tests) >= 2 {
			return run, true
		}
		run = ConditionRun{}
		if guard {
			run = ConditionRun{Start: i, End: i, Tests: []syntax.Expr{test}, Value: value}
		}
	}
	return run, len(run.Tests) >= 2
}

func guardClause(s syntax.Stmt) (test, value syntax.Expr, ok bool) {
	st, isIf := s.(*syntax.If)
	if !isIf || len(st.Orelse) != 0 || len(st.Body) != 1 {
		return nil, nil, false
	}
	ret, isReturn := st.Body[0].(*syntax.Return)
	if !isReturn || ret.Value == nil {
		return nil, nil, false
	}
	return st.Test, ret.Value, true
}

// Disjunction joins tests with "or", parenthesizing operands that bind
// more loosely than it.
func Disjunction(tests []syntax.Expr) syntax.Expr {
	var out syntax.Expr
	for _, t := range tests {
		t = syntax.CloneExpr(t)
		switch t.(type) {
		case *syntax.IfExp, *syntax.Lambda, *syntax.NamedExpr:
			t = &syntax.Paren{X: t}
		}
		if out == nil {
			out = t
			continue
		}
		out = &syntax.BinaryOp{Left: out, Op: "or", Right: t}
	}
	return out
}

// ConsolidatedConditions builds a predicate function returning the
// disjunction of run's tests, and the single guard that replaces the run.
// params are the names the tests read, passed through in order; a
// non-empty receiver makes the predicate a method called on it.
func ConsolidatedConditions(name string, run ConditionRun, params []string, receiver string) (*syntax.FunctionDef, *syntax.If) {
	fn := &syntax.FunctionDef{
		Name:   name,
		Params: Parameters(params, nil, receiver),
		Body:   []syntax.Stmt{&syntax.Return{Value: Disjunction(run.Tests)}},
	}

	var callee syntax.Expr = syntax.NewName(name)
	if receiver != "" {
		callee = syntax.NewAttribute(syntax.NewName(receiver), name)
	}
	guard := &syntax.If{
		Test: &syntax.Call{Func: callee, Args: names(params)},
		Body: []syntax.Stmt{&syntax.Return{Value: syntax.CloneExpr(run.Value)}},
	}
	return fn, guard
}
