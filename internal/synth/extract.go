package synth

import (
	"github.com/mvp-joe/pyrefactor/internal/extract"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// ExtractedFunction builds the def that replaces plan's range. body is the
// code to move, normally plan.Statements, and is used when nil. The
// receiver comes first when the range uses it, and the plan's output is
// returned at the end.
func ExtractedFunction(name string, plan *extract.Plan, body []syntax.Stmt) *syntax.FunctionDef {
	if body == nil {
		body = plan.Statements
	}
	stmts := syntax.CloneStmts(body)
	if plan.ReturnName != "" {
		stmts = append(stmts, &syntax.Return{Value: syntax.NewName(plan.ReturnName)})
	}
	var receiver string
	if plan.UsesReceiver {
		receiver = plan.Receiver
	}
	return &syntax.FunctionDef{
		Name:   name,
		Params: Parameters(plan.Parameters, nil, receiver),
		Body:   stmts,
		Async:  plan.Async,
	}
}

// CallSite builds the statement that takes the range's place: a call to
// the extracted function, bound to the output, returned, or standing alone.
func CallSite(name string, plan *extract.Plan) syntax.Stmt {
	var fn syntax.Expr = syntax.NewName(name)
	if plan.UsesReceiver {
		fn = syntax.NewAttribute(syntax.NewName(plan.Receiver), name)
	}
	var call syntax.Expr = &syntax.Call{Func: fn, Args: names(plan.Parameters)}
	if plan.Async {
		call = &syntax.Await{Value: call}
	}

	switch {
	case plan.TailReturn:
		return &syntax.Return{Value: call}
	case plan.ReturnName != "":
		return &syntax.Assign{
			Targets: []syntax.Expr{syntax.NewName(plan.ReturnName)},
			Value:   call,
		}
	}
	return &syntax.ExprStmt{Value: call}
}
