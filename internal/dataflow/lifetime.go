package dataflow

import (
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"
)

// Lifetime is the line interval between a name's first definition and its
// last use. LastUse is 0 for a name that is never read.
type Lifetime struct {
	Name            string
	FirstDefinition int
	LastUse         int
	ScopeStart      int
	ScopeEnd        int
}

// Dead reports whether the name is defined but never read.
func (l Lifetime) Dead() bool { return l.LastUse == 0 }

// End returns the last line the name is live on. A dead definition is live
// only on its own line.
func (l Lifetime) End() int {
	return max(l.FirstDefinition, l.LastUse)
}

// Lifetimes answers lifetime queries over one Analysis.
type Lifetimes struct {
	byName map[string]Lifetime
	uses   map[string][]int
	order  []string
}

// NewLifetimes derives a lifetime for every recorded name. Names that are
// read but never defined in the scope have no lifetime.
func NewLifetimes(a *Analysis) *Lifetimes {
	l := &Lifetimes{byName: make(map[string]Lifetime), uses: make(map[string][]int)}
	for _, name := range a.order {
		r := a.mustRecord(name)
		if len(r.Definitions) == 0 {
			continue
		}
		uses := r.UseLines()
		if !slices.IsSorted(uses) {
			panic("dataflow: use lines of " + name + " are not sorted")
		}
		lt := Lifetime{
			Name:            name,
			FirstDefinition: r.FirstDefinition,
			ScopeStart:      a.Scope.Start,
			ScopeEnd:        a.Scope.End,
		}
		if len(uses) > 0 {
			lt.LastUse = uses[len(uses)-1]
		}
		l.byName[name] = lt
		l.uses[name] = uses
		l.order = append(l.order, name)
	}
	return l
}

// Lifetime returns the lifetime of name.
func (l *Lifetimes) Lifetime(name string) (Lifetime, bool) {
	lt, ok := l.byName[name]
	return lt, ok
}

// All returns every lifetime, in Analysis.Records order.
func (l *Lifetimes) All() []Lifetime {
	out := make([]Lifetime, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.byName[name])
	}
	return out
}

// FirstDefinition returns the first definition line of name, or 0.
func (l *Lifetimes) FirstDefinition(name string) int {
	return l.byName[name].FirstDefinition
}

// LastUse returns the last use line of name, or 0.
func (l *Lifetimes) LastUse(name string) int {
	return l.byName[name].LastUse
}

// IsUsedBefore reports whether name is read on a line before line.
func (l *Lifetimes) IsUsedBefore(name string, line int) bool {
	uses := l.uses[name]
	return len(uses) > 0 && uses[0] < line
}

// IsUsedAfter reports whether name is read after line.
func (l *Lifetimes) IsUsedAfter(name string, line int) bool {
	lt, ok := l.byName[name]
	return ok && lt.LastUse > line
}

// Overlaps reports whether the live intervals of a and b intersect.
func (l *Lifetimes) Overlaps(a, b string) bool {
	la, ok := l.byName[a]
	if !ok {
		return false
	}
	lb, ok := l.byName[b]
	if !ok {
		return false
	}
	return la.FirstDefinition <= lb.End() && lb.FirstDefinition <= la.End()
}

// InterferenceGraph returns an undirected graph with one vertex per name and
// an edge between every pair of names whose lifetimes overlap. Names with no
// edges can share storage with, or be renamed to, any other name.
func (l *Lifetimes) InterferenceGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash)
	for _, name := range l.order {
		if err := g.AddVertex(name); err != nil {
			return nil, fmt.Errorf("add vertex %q: %w", name, err)
		}
	}
	for i, a := range l.order {
		for _, b := range l.order[i+1:] {
			if !l.Overlaps(a, b) {
				continue
			}
			if err := g.AddEdge(a, b); err != nil {
				return nil, fmt.Errorf("add edge %q-%q: %w", a, b, err)
			}
		}
	}
	return g, nil
}
