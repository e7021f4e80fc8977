// Package synth builds the small set of tree shapes that refactorings keep
// producing: parameter lists, initializer bodies, attribute rewrites and
// the function/call pair of an extraction.
//
// Every builder returns new nodes. Expressions passed in are cloned, so the
// caller's trees are never shared with or modified by the result.
package synth

import (
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// ParamMeta is optional metadata for one parameter.
type ParamMeta struct {
	Annotation syntax.Expr
	Default    syntax.Expr
}

// Parameters builds a parameter list from names in order. A non-empty
// receiver is prepended without metadata.
func Parameters(names []string, meta map[string]ParamMeta, receiver string) *syntax.Parameters {
	params := &syntax.Parameters{List: make([]*syntax.Param, 0, len(names)+1)}
	if receiver != "" {
		params.List = append(params.List, &syntax.Param{Name: receiver})
	}
	for _, name := range names {
		m := meta[name]
		params.List = append(params.List, &syntax.Param{
			Name:       name,
			Annotation: syntax.CloneExpr(m.Annotation),
			Default:    syntax.CloneExpr(m.Default),
		})
	}
	return params
}

// names returns one Name node per identifier.
func names(ids []string) []syntax.Expr {
	if len(ids) == 0 {
		return nil
	}
	out := make([]syntax.Expr, len(ids))
	for i, id := range ids {
		out[i] = syntax.NewName(id)
	}
	return out
}
