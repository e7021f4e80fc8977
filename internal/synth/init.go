package synth

import (
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// DefaultReceiver is used when InitOptions.Receiver is empty.
const DefaultReceiver = "self"

// InitOptions controls InitBody and InitMethod.
type InitOptions struct {
	// Receiver names the instance; DefaultReceiver when empty.
	Receiver string
	// Values maps a field to the expression assigned to it. Fields without
	// an entry are assigned the parameter of the same name.
	Values map[string]syntax.Expr
	// CallSuper emits super().__init__(SuperArgs...) before the fields.
	CallSuper bool
	SuperArgs []string
}

func (o InitOptions) receiver() string {
	if o.Receiver == "" {
		return DefaultReceiver
	}
	return o.Receiver
}

// InitBody builds one receiver.field = value assignment per field, in
// order, optionally preceded by a forwarding call to the base initializer.
func InitBody(fields []string, opts InitOptions) []syntax.Stmt {
	var body []syntax.Stmt
	if opts.CallSuper {
		call := &syntax.Call{
			Func: syntax.NewAttribute(&syntax.Call{Func: syntax.NewName("super")}, "__init__"),
			Args: names(opts.SuperArgs),
		}
		body = append(body, &syntax.ExprStmt{Value: call})
	}
	recv := opts.receiver()
	for _, field := range fields {
		var value syntax.Expr = syntax.NewName(field)
		if v, ok := opts.Values[field]; ok {
			value = syntax.CloneExpr(v)
		}
		body = append(body, &syntax.Assign{
			Targets: []syntax.Expr{syntax.NewAttribute(syntax.NewName(recv), field)},
			Value:   value,
		})
	}
	return body
}

// InitMethod wraps InitBody in an __init__ taking the receiver and params.
func InitMethod(params, fields []string, opts InitOptions) *syntax.FunctionDef {
	return &syntax.FunctionDef{
		Name:   "__init__",
		Params: Parameters(params, nil, opts.receiver()),
		Body:   InitBody(fields, opts),
	}
}
