package extract

import (
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// selectStatements returns the statements of the innermost block that
// wholly contains lines start..end.
func selectStatements(block []syntax.Stmt, start, end int) ([]syntax.Stmt, error) {
	var hit []syntax.Stmt
	for _, s := range block {
		sp := s.NodeSpan()
		if sp.StartLine() <= end && sp.EndLine() >= start {
			hit = append(hit, s)
		}
	}
	if len(hit) == 0 {
		return nil, &EmptyRangeError{Start: start, End: end}
	}

	firstSpan := hit[0].NodeSpan()
	lastSpan := hit[len(hit)-1].NodeSpan()
	if firstSpan.StartLine() >= start && lastSpan.EndLine() <= end {
		if elif, ok := hit[0].(*syntax.If); ok && elif.Elif {
			return nil, unsupported(elif.StartLine(), "range selects an elif clause without its if")
		}
		return hit, nil
	}

	if len(hit) > 1 {
		line := firstSpan.StartLine()
		if firstSpan.StartLine() >= start {
			line = lastSpan.StartLine()
		}
		return nil, unsupported(line, "range cuts a statement")
	}

	// One statement overlaps the range without fitting inside it.
	s := hit[0]
	header := s.NodeSpan().StartLine()
	blocks := syntax.Blocks(s)
	switch s.(type) {
	case *syntax.FunctionDef, *syntax.ClassDef:
		return nil, unsupported(header, "range is inside a nested definition")
	}
	if len(blocks) == 0 || start <= header {
		if start <= header {
			return nil, unsupported(header, "range cuts a statement")
		}
		return nil, &EmptyRangeError{Start: start, End: end}
	}

	var inner []syntax.Stmt
	for _, b := range blocks {
		if len(b) == 0 {
			continue
		}
		if b[0].NodeSpan().StartLine() <= end && b[len(b)-1].NodeSpan().EndLine() >= start {
			if inner != nil {
				return nil, unsupported(b[0].NodeSpan().StartLine(), "range spans more than one clause")
			}
			inner = b
		}
	}
	if inner == nil {
		return nil, &EmptyRangeError{Start: start, End: end}
	}
	return selectStatements(inner, start, end)
}

// checkControlFlow rejects statements that would leave the extracted
// function instead of the code around it. A return is allowed only as the
// last selected statement, in which case tail is true.
func checkControlFlow(stmts []syntax.Stmt) (tail bool, err error) {
	for i, s := range stmts {
		if ret, ok := s.(*syntax.Return); ok && i == len(stmts)-1 {
			if y := findYield(ret.Value); y != nil {
				return false, unsupported(y.StartLine(), "range yields")
			}
			return true, nil
		}
		if err := checkStmt(s, 0); err != nil {
			return false, err
		}
	}
	return false, nil
}

func checkStmt(s syntax.Stmt, loops int) error {
	line := s.NodeSpan().StartLine()
	switch s := s.(type) {
	case *syntax.FunctionDef, *syntax.ClassDef:
		for _, x := range exprsOf(s) {
			if y := findYield(x); y != nil {
				return unsupported(y.StartLine(), "range yields")
			}
		}
		return nil
	case *syntax.Return:
		return unsupported(line, "return is only allowed as the last statement of the range")
	case *syntax.Break:
		if loops == 0 {
			return unsupported(line, "break leaves a loop outside the range")
		}
	case *syntax.Continue:
		if loops == 0 {
			return unsupported(line, "continue targets a loop outside the range")
		}
	case *syntax.Global:
		return unsupported(line, "scope declarations cannot be moved")
	}

	for _, x := range exprsOf(s) {
		if y := findYield(x); y != nil {
			return unsupported(y.StartLine(), "range yields")
		}
	}

	for i, b := range syntax.Blocks(s) {
		depth := loops
		switch s.(type) {
		case *syntax.For, *syntax.While:
			if i == 0 {
				depth++
			}
		}
		for _, inner := range b {
			if err := checkStmt(inner, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// exprsOf returns the expressions a statement evaluates itself, excluding
// those of nested statements and nested definition bodies.
func exprsOf(s syntax.Stmt) []syntax.Expr {
	var out []syntax.Expr
	for _, c := range syntax.Children(s) {
		switch c := c.(type) {
		case syntax.Expr:
			out = append(out, c)
		case *syntax.WithItem:
			out = append(out, c.Context)
			if c.Target != nil {
				out = append(out, c.Target)
			}
		case *syntax.ExceptHandler:
			if c.Type != nil {
				out = append(out, c.Type)
			}
		case *syntax.MatchCase:
			if c.Guard != nil {
				out = append(out, c.Guard)
			}
		case *syntax.Parameters:
			for _, p := range c.List {
				if p.Default != nil {
					out = append(out, p.Default)
				}
			}
		}
	}
	return out
}

// findYield returns the first yield in x outside nested lambdas.
func findYield(x syntax.Expr) *syntax.Yield {
	var found *syntax.Yield
	if x == nil {
		return nil
	}
	syntax.Inspect(x, func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		switch n := n.(type) {
		case *syntax.Lambda:
			return false
		case *syntax.Yield:
			found = n
			return false
		}
		return true
	})
	return found
}

// awaits reports whether the statements await, or iterate or enter
// contexts asynchronously, outside nested definitions.
func awaits(stmts []syntax.Stmt) bool {
	found := false
	for _, s := range stmts {
		syntax.Inspect(s, func(n syntax.Node) bool {
			if found {
				return false
			}
			switch n := n.(type) {
			case *syntax.FunctionDef, *syntax.ClassDef, *syntax.Lambda:
				return false
			case *syntax.Await:
				found = true
			case *syntax.For:
				found = n.Async
			case *syntax.With:
				found = n.Async
			case *syntax.CompFor:
				found = n.Async
			}
			return !found
		})
	}
	return found
}
