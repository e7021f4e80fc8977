// Package extract computes what a line range needs in order to become a
// function of its own: the names it reads from before the range, the name it
// hands back, and whether it can be moved at all.
package extract

import (
	"slices"

	"github.com/mvp-joe/pyrefactor/internal/dataflow"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// Plan describes the extraction of a line range.
type Plan struct {
	// Parameters are the inputs, ordered by first use in the range.
	Parameters []string
	// ReturnName is the single output, empty when nothing escapes.
	ReturnName string
	Range      target.LineRange
	// UsesReceiver is set when the range refers to the receiver, which the
	// extracted function must then take as its first parameter.
	UsesReceiver bool
	Receiver     string
	// TailReturn is set when the range ends with the scope's own return
	// statement; the call site then returns the call's result.
	TailReturn bool
	// Async is set when the range awaits.
	Async bool
	// Statements are the selected statements of the analyzed tree. They
	// must not be modified.
	Statements []syntax.Stmt
}

// Compute plans the extraction of lines start..end of the analyzed scope.
// The analysis is only read, so repeated calls return equal plans.
func Compute(a *dataflow.Analysis, start, end int) (*Plan, error) {
	if start < 1 || end < start {
		return nil, &EmptyRangeError{Start: start, End: end}
	}

	stmts, err := selectStatements(a.Body, start, end)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Range:        target.LineRange{Start: start, End: end},
		Receiver:     a.Scope.Receiver,
		UsesReceiver: a.UsesReceiver(start, end),
		Statements:   stmts,
	}

	if p.TailReturn, err = checkControlFlow(stmts); err != nil {
		return nil, err
	}
	p.Async = awaits(stmts)

	inRange := func(s dataflow.Site) bool { return s.Line >= start && s.Line <= end }

	if err := checkCaptures(a, start, end); err != nil {
		return nil, err
	}

	capturedIn, capturedOut := closureReads(a, start, end)

	type input struct {
		name  string
		first dataflow.Site
	}
	var inputs []input
	var outputs []string
	for _, r := range a.Records() {
		firstUse, used := first(r.Uses, inRange)
		firstDef, defined := first(r.Definitions, inRange)
		if site, ok := capturedIn[r.Name]; ok && !defined && (!used || siteBefore(site, firstUse)) {
			firstUse, used = site, true
		}

		if used && (!defined || siteBefore(firstUse, firstDef)) {
			inputs = append(inputs, input{r.Name, firstUse})
		}
		if defined && !p.TailReturn && (usedAfter(r, end) || capturedOut[r.Name]) {
			outputs = append(outputs, r.Name)
		}
	}

	slices.SortStableFunc(inputs, func(x, y input) int {
		if x.first.Line != y.first.Line {
			return x.first.Line - y.first.Line
		}
		if x.first.Pos.Line != y.first.Pos.Line {
			return x.first.Pos.Line - y.first.Pos.Line
		}
		return x.first.Pos.Column - y.first.Pos.Column
	})
	for _, in := range inputs {
		p.Parameters = append(p.Parameters, in.name)
	}

	switch len(outputs) {
	case 0:
	case 1:
		p.ReturnName = outputs[0]
	default:
		return nil, &AmbiguousOutputError{Names: outputs}
	}
	return p, nil
}

// first returns the earliest site in pass order that satisfies keep.
func first(sites []dataflow.Site, keep func(dataflow.Site) bool) (dataflow.Site, bool) {
	var best dataflow.Site
	found := false
	for _, s := range sites {
		if keep(s) && (!found || siteBefore(s, best)) {
			best, found = s, true
		}
	}
	return best, found
}

func siteBefore(a, b dataflow.Site) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Seq < b.Seq
}

func usedAfter(r dataflow.VariableRecord, line int) bool {
	for _, u := range r.Uses {
		if u.Line > line {
			return true
		}
	}
	return false
}

// closureReads summarizes what nested functions, classes and lambdas
// capture. inside maps each name captured by a nested scope in the range
// and not bound in the range to the first such scope; outside holds the
// names captured by nested scopes elsewhere in the callable, which observe
// whatever the range binds.
func closureReads(a *dataflow.Analysis, start, end int) (inside map[string]dataflow.Site, outside map[string]bool) {
	inside = make(map[string]dataflow.Site)
	outside = make(map[string]bool)
	for _, o := range a.Opaque {
		in := o.Start >= start && o.Start <= end
		for _, name := range o.Captures {
			if !in {
				outside[name] = true
				continue
			}
			if _, seen := inside[name]; !seen {
				inside[name] = dataflow.Site{Line: o.Start, Pos: o.Pos}
			}
		}
	}
	return inside, outside
}

// checkCaptures rejects nested functions and lambdas in the range whose
// captured names are rebound after it. Moving them would change which value
// the closure sees.
func checkCaptures(a *dataflow.Analysis, start, end int) error {
	for _, o := range a.Opaque {
		if o.Start < start || o.Start > end {
			continue
		}
		for _, name := range o.Captures {
			r, _ := a.Record(name)
			for _, d := range r.Definitions {
				if d.Line > end {
					return unsupported(o.Start, "%s %s captures %q, which is rebound on line %d", o.Kind, o.Name, name, d.Line)
				}
			}
		}
	}
	return nil
}
