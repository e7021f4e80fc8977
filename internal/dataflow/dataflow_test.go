package dataflow

import (
	"context"
	"errors"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyrefactor/internal/pyparse"
	"github.com/mvp-joe/pyrefactor/internal/scope"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// Test Plan for Analyze and Lifetimes:
// - Parameters and locals are disjoint; parameters come first
// - Right-hand sides are read before targets are bound
// - Augmented assignment is a use then a definition
// - Loop, with, except, import and walrus targets are definitions
// - Receiver-only writes produce no locals but mark receiver lines
// - Unbound names (builtins, globals) are free, not records
// - Comprehension targets are neither records nor free names
// - Nested defs and lambdas are opaque; their captures are not uses
// - Match patterns bind captures and read value and class names
// - Reads and writes in a line range follow first-access order
// - Analysis is deterministic and accessors return copies
// - Lifetimes: first definition, last use, dead names, before/after queries
// - Overlapping lifetimes become interference graph edges

func analyze(t *testing.T, src, address string) *Analysis {
	t.Helper()
	mod, err := pyparse.New().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	loc, err := target.Parse(address)
	require.NoError(t, err)
	m, err := scope.Find(mod, loc)
	require.NoError(t, err)
	return Analyze(m)
}

const processSource = `def process(param1):
    local1 = 10
    local2 = 20
    result = local1 + local2 + param1
    return result
`

const totalsSource = `def totals(items, rate):
    subtotal = 0
    for item in items:
        price = item.price * rate
        subtotal += price
    if subtotal > 100:
        subtotal = subtotal - 10
    return subtotal
`

func TestAnalyze_ParametersAndLocals(t *testing.T) {
	t.Parallel()

	a := analyze(t, processSource, "process")

	assert.Equal(t, []string{"param1"}, a.Parameters())
	assert.Equal(t, []string{"local1", "local2", "result"}, a.Locals())
	assert.Equal(t, []string{"param1", "local1", "local2", "result"}, a.Names())
	assert.True(t, a.IsParameter("param1"))
	assert.False(t, a.IsParameter("local1"))
	assert.Empty(t, a.Free)

	for _, local := range a.Locals() {
		assert.NotContains(t, a.Parameters(), local)
	}

	param, ok := a.Record("param1")
	require.True(t, ok)
	assert.True(t, param.IsParameter)
	assert.Equal(t, 1, param.FirstDefinition)
	assert.Equal(t, []int{4}, param.UseLines())

	result, ok := a.Record("result")
	require.True(t, ok)
	assert.Equal(t, 4, result.FirstDefinition)
	assert.Equal(t, []int{5}, result.UseLines())

	assert.Equal(t, ScopeInfo{Name: "process", Start: 1, End: 5, Params: []string{"param1"}}, a.Scope)
}

func TestAnalyze_ReadsAndWritesInRange(t *testing.T) {
	t.Parallel()

	a := analyze(t, processSource, "process")

	assert.Equal(t, []string{"local1", "local2", "param1"}, a.ReadsInRange(4, 4))
	assert.Equal(t, []string{"result"}, a.WritesInRange(4, 4))
	assert.Equal(t, []string{"local1", "local2", "result"}, a.WritesInRange(2, 4))
	assert.Empty(t, a.ReadsInRange(2, 3))
}

func TestAnalyze_LoopsAndAugmentedAssignment(t *testing.T) {
	t.Parallel()

	a := analyze(t, totalsSource, "totals")

	subtotal, ok := a.Record("subtotal")
	require.True(t, ok)
	assert.Equal(t, 2, subtotal.FirstDefinition)
	assert.Equal(t, []int{2, 5, 7}, subtotal.DefinitionLines())
	assert.Equal(t, []int{5, 6, 7, 8}, subtotal.UseLines())

	item, ok := a.Record("item")
	require.True(t, ok)
	assert.Equal(t, 3, item.FirstDefinition)
	assert.Equal(t, []int{4}, item.UseLines())

	price, ok := a.Record("price")
	require.True(t, ok)
	assert.Equal(t, []int{5}, price.UseLines())

	// The augmented target is read before it is rebound.
	var useSeq, defSeq int
	for _, u := range subtotal.Uses {
		if u.Line == 5 {
			useSeq = u.Seq
		}
	}
	for _, d := range subtotal.Definitions {
		if d.Line == 5 {
			defSeq = d.Seq
		}
	}
	assert.Less(t, useSeq, defSeq)
}

func TestAnalyze_ReceiverOnlyWrites(t *testing.T) {
	t.Parallel()

	src := `class Order:
    def reset(self):
        self.total = 0
        self.items = []
`
	a := analyze(t, src, "Order::reset")

	assert.Empty(t, a.Locals())
	assert.Empty(t, a.Parameters())
	assert.Empty(t, a.Records())
	assert.Equal(t, "self", a.Scope.Receiver)
	assert.Equal(t, "Order", a.Scope.Container)
	assert.Equal(t, []int{3, 4}, a.ReceiverLines)
	assert.True(t, a.UsesReceiver(3, 3))
	assert.False(t, a.UsesReceiver(5, 9))
}

func TestAnalyze_FreeNames(t *testing.T) {
	t.Parallel()

	src := `def bump(x):
    global counter
    counter = counter + len(x)
    print(counter)
    return CONST
`
	a := analyze(t, src, "bump")

	assert.Equal(t, []string{"x"}, a.Names())
	assert.Equal(t, []string{"counter", "len", "print", "CONST"}, a.Free)
}

func TestAnalyze_BindingForms(t *testing.T) {
	t.Parallel()

	src := `def load(path):
    import json
    with open(path) as fh:
        data = json.load(fh)
    try:
        value = data["k"]
    except KeyError as err:
        value = None
    if (n := len(data)) > 1:
        return n
    return value
`
	a := analyze(t, src, "load")

	tests := []struct {
		name     string
		firstDef int
		uses     []int
	}{
		{"json", 2, []int{4}},
		{"fh", 3, []int{4}},
		{"data", 4, []int{6, 9}},
		{"value", 6, []int{11}},
		{"err", 7, []int{}},
		{"n", 9, []int{10}},
	}
	for _, tt := range tests {
		r, ok := a.Record(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.firstDef, r.FirstDefinition, tt.name)
		assert.Equal(t, tt.uses, r.UseLines(), tt.name)
	}

	value, _ := a.Record("value")
	assert.Equal(t, []int{6, 8}, value.DefinitionLines())
	assert.Equal(t, []string{"open", "KeyError", "len"}, a.Free)
}

func TestAnalyze_Comprehension(t *testing.T) {
	t.Parallel()

	src := `def squares(items):
    result = [x * x for x in items if x]
    return result
`
	a := analyze(t, src, "squares")

	assert.Equal(t, []string{"items", "result"}, a.Names())
	assert.Empty(t, a.Free)
	_, ok := a.Record("x")
	assert.False(t, ok)
}

func TestAnalyze_OpaqueScopes(t *testing.T) {
	t.Parallel()

	src := `def outer(n):
    base = 10
    def helper(k):
        return k + base
    scale = lambda v: v * n
    return helper(scale(base))
`
	a := analyze(t, src, "outer")

	require.Len(t, a.Opaque, 2)
	assert.Equal(t, OpaqueScope{
		Kind: OpaqueFunction, Name: "helper", Start: 3, End: 4,
		Pos: syntax.Position{Line: 3, Column: 4}, Captures: []string{"base"},
	}, a.Opaque[0])
	assert.Equal(t, OpaqueScope{
		Kind: OpaqueLambda, Name: "<lambda>", Start: 5, End: 5,
		Pos: syntax.Position{Line: 5, Column: 12}, Captures: []string{"n"},
	}, a.Opaque[1])

	// Captures are not uses of the enclosing scope.
	base, _ := a.Record("base")
	assert.Equal(t, []int{6}, base.UseLines())
	n, _ := a.Record("n")
	assert.Empty(t, n.UseLines())

	helper, ok := a.Record("helper")
	require.True(t, ok)
	assert.Equal(t, 3, helper.FirstDefinition)
	assert.Equal(t, []int{6}, helper.UseLines())

	_, ok = a.Record("k")
	assert.False(t, ok, "nested parameters belong to the nested scope")
}

func TestAnalyze_WalrusInStatements(t *testing.T) {
	t.Parallel()

	src := `def checked(g, h):
    assert (n := g()), "empty"
    if n < 0:
        raise ValueError(m := h(n))
    return n, m
`
	a := analyze(t, src, "checked")

	assert.Equal(t, []string{"g", "h", "n", "m"}, a.Names())
	assert.Equal(t, []string{"ValueError"}, a.Free)
	n, ok := a.Record("n")
	require.True(t, ok)
	assert.Equal(t, []int{2}, n.DefinitionLines())
	assert.Equal(t, []int{3, 4, 5}, n.UseLines())
}

func TestAnalyze_MatchStatement(t *testing.T) {
	t.Parallel()

	src := `def describe(shape, limit):
    match shape:
        case Point(x=px, y=0) if px > limit:
            kind = "axis"
        case [first, *rest] as seq:
            kind = first
        case {"r": radius}:
            kind = radius
        case Color.RED:
            kind = "red"
        case _:
            kind = None
    return kind
`
	a := analyze(t, src, "describe")

	assert.Equal(t, []string{"shape", "limit", "px", "kind", "first", "rest", "seq", "radius"}, a.Names())
	assert.Equal(t, []string{"Point", "Color"}, a.Free)

	tests := []struct {
		name string
		defs []int
		uses []int
	}{
		{"px", []int{3}, []int{3}},
		{"first", []int{5}, []int{6}},
		{"rest", []int{5}, []int{}},
		{"seq", []int{5}, []int{}},
		{"radius", []int{7}, []int{8}},
		{"kind", []int{4, 6, 8, 10, 12}, []int{13}},
		{"limit", []int{1}, []int{3}},
	}
	for _, tt := range tests {
		r, ok := a.Record(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.defs, r.DefinitionLines(), tt.name)
		assert.Equal(t, tt.uses, r.UseLines(), tt.name)
	}
}

func TestAnalyze_DeterministicCopies(t *testing.T) {
	t.Parallel()

	first := analyze(t, totalsSource, "totals")
	second := analyze(t, totalsSource, "totals")
	assert.Equal(t, first.Records(), second.Records())
	assert.Equal(t, first.Free, second.Free)

	r, _ := first.Record("subtotal")
	r.Uses[0].Line = 999
	again, _ := first.Record("subtotal")
	assert.NotEqual(t, 999, again.Uses[0].Line)
}

func TestLifetimes_Queries(t *testing.T) {
	t.Parallel()

	lt := NewLifetimes(analyze(t, totalsSource, "totals"))

	subtotal, ok := lt.Lifetime("subtotal")
	require.True(t, ok)
	assert.Equal(t, Lifetime{Name: "subtotal", FirstDefinition: 2, LastUse: 8, ScopeStart: 1, ScopeEnd: 8}, subtotal)

	assert.Equal(t, 3, lt.FirstDefinition("item"))
	assert.Equal(t, 4, lt.LastUse("item"))
	assert.True(t, lt.IsUsedAfter("subtotal", 7))
	assert.False(t, lt.IsUsedAfter("price", 5))
	assert.False(t, lt.IsUsedBefore("subtotal", 5))
	assert.True(t, lt.IsUsedBefore("subtotal", 6))

	_, ok = lt.Lifetime("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, lt.FirstDefinition("missing"))
	assert.Equal(t, 0, lt.LastUse("missing"))
	assert.False(t, lt.IsUsedAfter("missing", 0))
	assert.False(t, lt.IsUsedBefore("missing", 100))

	var names []string
	for _, l := range lt.All() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"items", "rate", "subtotal", "item", "price"}, names)
}

func TestLifetimes_DeadDefinition(t *testing.T) {
	t.Parallel()

	src := `def f():
    unused = compute()
    return 1
`
	lt := NewLifetimes(analyze(t, src, "f"))
	l, ok := lt.Lifetime("unused")
	require.True(t, ok)
	assert.True(t, l.Dead())
	assert.Equal(t, 0, l.LastUse)
	assert.Equal(t, 2, l.End())
}

func TestLifetimes_CaptureIsNotAUse(t *testing.T) {
	t.Parallel()

	src := `def make():
    x = 1
    def g():
        return x
    return g
`
	lt := NewLifetimes(analyze(t, src, "make"))
	x, ok := lt.Lifetime("x")
	require.True(t, ok)
	assert.True(t, x.Dead())
	assert.False(t, lt.IsUsedAfter("x", 2))
}

func TestLifetimes_InterferenceGraph(t *testing.T) {
	t.Parallel()

	src := `def chain():
    a = 1
    b = a + 1
    c = b * 2
    return c
`
	lt := NewLifetimes(analyze(t, src, "chain"))

	assert.True(t, lt.Overlaps("a", "b"))
	assert.True(t, lt.Overlaps("b", "c"))
	assert.False(t, lt.Overlaps("a", "c"))
	assert.False(t, lt.Overlaps("a", "missing"))

	g, err := lt.InterferenceGraph()
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, 3, order)

	_, err = g.Edge("a", "b")
	assert.NoError(t, err)
	_, err = g.Edge("c", "b")
	assert.NoError(t, err)
	_, err = g.Edge("a", "c")
	assert.True(t, errors.Is(err, graph.ErrEdgeNotFound))
}
