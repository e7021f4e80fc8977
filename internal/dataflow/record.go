// Package dataflow computes definition and use records for the names bound
// in one callable, and the lifetimes derived from them.
package dataflow

import (
	"slices"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// Site is one definition or use of a name. Line is the line of the
// statement or clause header the access belongs to; Pos is the exact
// position of the name. Seq orders accesses by the analysis pass.
type Site struct {
	Line int
	Pos  syntax.Position
	Seq  int
}

// before orders sites by line, then pass order.
func (s Site) before(o Site) bool {
	if s.Line != o.Line {
		return s.Line < o.Line
	}
	return s.Seq < o.Seq
}

// VariableRecord describes one name bound in the analyzed scope.
type VariableRecord struct {
	Name            string
	FirstDefinition int
	Definitions     []Site
	Uses            []Site
	IsParameter     bool
}

// UseLines returns the lines the name is read on, ascending and without
// duplicates.
func (r VariableRecord) UseLines() []int {
	lines := make([]int, 0, len(r.Uses))
	for _, u := range r.Uses {
		lines = append(lines, u.Line)
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

// DefinitionLines returns the lines the name is bound on, ascending and
// without duplicates.
func (r VariableRecord) DefinitionLines() []int {
	lines := make([]int, 0, len(r.Definitions))
	for _, d := range r.Definitions {
		lines = append(lines, d.Line)
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

func (r *VariableRecord) clone() VariableRecord {
	return VariableRecord{
		Name:            r.Name,
		FirstDefinition: r.FirstDefinition,
		Definitions:     slices.Clone(r.Definitions),
		Uses:            slices.Clone(r.Uses),
		IsParameter:     r.IsParameter,
	}
}

// ScopeInfo identifies the analyzed callable.
type ScopeInfo struct {
	Name      string
	Container string // enclosing class name, empty for module-level callables
	Start     int
	End       int
	Receiver  string
	Params    []string // declared parameters, receiver excluded
}

// OpaqueKind classifies an OpaqueScope.
type OpaqueKind string

const (
	OpaqueFunction OpaqueKind = "def"
	OpaqueClass    OpaqueKind = "class"
	OpaqueLambda   OpaqueKind = "lambda"
)

// OpaqueScope summarizes a nested def, class or lambda whose body the
// analysis does not enter. Captures are the names bound in the analyzed
// scope that the nested body refers to; they are not recorded as uses.
type OpaqueScope struct {
	Kind     OpaqueKind
	Name     string
	Start    int
	End      int
	Pos      syntax.Position
	Captures []string
}

// Analysis is the result of analyzing one callable. It is never modified
// after Analyze returns; accessors hand out copies.
type Analysis struct {
	Scope         ScopeInfo
	Free          []string
	Opaque        []OpaqueScope
	ReceiverLines []int
	Body          []syntax.Stmt

	records map[string]*VariableRecord
	order   []string
}

// Record returns the record for name.
func (a *Analysis) Record(name string) (VariableRecord, bool) {
	r, ok := a.records[name]
	if !ok {
		return VariableRecord{}, false
	}
	return r.clone(), true
}

// Records returns every record, parameters first in declaration order, then
// locals in order of first access.
func (a *Analysis) Records() []VariableRecord {
	out := make([]VariableRecord, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.mustRecord(name).clone())
	}
	return out
}

// Names returns the recorded names in Records order.
func (a *Analysis) Names() []string {
	return slices.Clone(a.order)
}

// Parameters returns the declared parameter names, receiver excluded.
func (a *Analysis) Parameters() []string {
	return slices.Clone(a.Scope.Params)
}

// Locals returns the names bound in the body that are not parameters.
func (a *Analysis) Locals() []string {
	var out []string
	for _, name := range a.order {
		if !a.mustRecord(name).IsParameter {
			out = append(out, name)
		}
	}
	return out
}

// IsParameter reports whether name is a declared parameter.
func (a *Analysis) IsParameter(name string) bool {
	r, ok := a.records[name]
	return ok && r.IsParameter
}

// ReadsInRange returns the recorded names read on lines start..end, in
// order of first read.
func (a *Analysis) ReadsInRange(start, end int) []string {
	return a.inRange(start, end, func(r *VariableRecord) []Site { return r.Uses })
}

// WritesInRange returns the recorded names bound on lines start..end, in
// order of first write.
func (a *Analysis) WritesInRange(start, end int) []string {
	return a.inRange(start, end, func(r *VariableRecord) []Site { return r.Definitions })
}

// UsesReceiver reports whether the receiver is referenced on lines
// start..end.
func (a *Analysis) UsesReceiver(start, end int) bool {
	for _, line := range a.ReceiverLines {
		if line >= start && line <= end {
			return true
		}
	}
	return false
}

func (a *Analysis) inRange(start, end int, sites func(*VariableRecord) []Site) []string {
	type hit struct {
		name string
		site Site
	}
	var hits []hit
	for _, name := range a.order {
		for _, s := range sites(a.mustRecord(name)) {
			if s.Line >= start && s.Line <= end {
				hits = append(hits, hit{name, s})
				break
			}
		}
	}
	slices.SortStableFunc(hits, func(x, y hit) int {
		switch {
		case x.site.before(y.site):
			return -1
		case y.site.before(x.site):
			return 1
		}
		return 0
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

func (a *Analysis) mustRecord(name string) *VariableRecord {
	r, ok := a.records[name]
	if !ok {
		panic("dataflow: name " + name + " listed without a record")
	}
	return r
}
