package pyparse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// Test Plan for Parser:
// - Functions keep their name, parameters and 1-based line spans
// - Methods are nested in class bodies; decorators are preserved
// - Chained, annotated and augmented assignments map to Assign/AugAssign
// - if/elif/else chains become nested If nodes marked Elif
// - for/while/with/try keep their clause bodies
// - Imports record the local names they bind
// - match statements keep per-case captures, reads, guards and bodies
// - Simple statements format back to their source text
// - Invalid source yields a *SyntaxError with the file path and line
// - Cancelled contexts are honoured before parsing

func parse(t *testing.T, src string) *syntax.Module {
	t.Helper()
	mod, err := New().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return mod
}

func TestParser_FunctionDef(t *testing.T) {
	t.Parallel()

	mod := parse(t, "def compute(a,\n            b=2, *rest, **opts):\n    x = a + b\n    return x\n")
	require.Len(t, mod.Body, 1)

	fn, ok := mod.Body[0].(*syntax.FunctionDef)
	require.True(t, ok)
	assert.Equal(t, "compute", fn.Name)
	assert.Equal(t, 1, fn.StartLine())
	assert.Equal(t, 4, fn.EndLine())
	assert.Equal(t, []string{"a", "b", "rest", "opts"}, fn.Params.Names())
	assert.Equal(t, "*", fn.Params.List[2].Star)
	assert.Equal(t, "**", fn.Params.List[3].Star)
	require.NotNil(t, fn.Params.List[1].Default)

	require.Len(t, fn.Body, 2)
	assign, ok := fn.Body[0].(*syntax.Assign)
	require.True(t, ok)
	assert.Equal(t, 3, assign.StartLine())
	_, ok = assign.Value.(*syntax.BinaryOp)
	assert.True(t, ok)
	ret, ok := fn.Body[1].(*syntax.Return)
	require.True(t, ok)
	assert.Equal(t, &syntax.Name{Span: ret.Value.NodeSpan(), Id: "x"}, ret.Value)
}

func TestParser_ClassWithDecoratedMethod(t *testing.T) {
	t.Parallel()

	src := "class Order(Base):\n    @staticmethod\n    def describe(order):\n        return order\n\n    def total(self):\n        return self.amount\n"
	mod := parse(t, src)
	require.Len(t, mod.Body, 1)

	cls, ok := mod.Body[0].(*syntax.ClassDef)
	require.True(t, ok)
	assert.Equal(t, "Order", cls.Name)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Body, 2)

	describe := cls.Body[0].(*syntax.FunctionDef)
	assert.Equal(t, "describe", describe.Name)
	assert.True(t, describe.HasDecorator("staticmethod"))

	total := cls.Body[1].(*syntax.FunctionDef)
	assert.False(t, total.HasDecorator("staticmethod"))
	ret := total.Body[0].(*syntax.Return)
	attr, ok := ret.Value.(*syntax.Attribute)
	require.True(t, ok)
	assert.Equal(t, "amount", attr.Attr)
	assert.Equal(t, "self", attr.Value.(*syntax.Name).Id)
}

func TestParser_Assignments(t *testing.T) {
	t.Parallel()

	mod := parse(t, "a = b = 1\ncount: int = 0\ntotal += a\nx, y = y, x\n")
	require.Len(t, mod.Body, 4)

	chained := mod.Body[0].(*syntax.Assign)
	assert.Len(t, chained.Targets, 2)
	assert.Equal(t, "1", chained.Value.(*syntax.Literal).Value)

	annotated := mod.Body[1].(*syntax.Assign)
	require.NotNil(t, annotated.Annotation)
	assert.Equal(t, "int", annotated.Annotation.(*syntax.Name).Id)

	aug := mod.Body[2].(*syntax.AugAssign)
	assert.Equal(t, "+=", aug.Op)
	assert.Equal(t, "total", aug.Target.(*syntax.Name).Id)

	swap := mod.Body[3].(*syntax.Assign)
	targets, ok := swap.Targets[0].(*syntax.Tuple)
	require.True(t, ok)
	assert.Len(t, targets.Elts, 2)
}

func TestParser_IfElifElse(t *testing.T) {
	t.Parallel()

	mod := parse(t, "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n")
	require.Len(t, mod.Body, 1)

	top := mod.Body[0].(*syntax.If)
	assert.False(t, top.Elif)
	require.Len(t, top.Orelse, 1)
	elif, ok := top.Orelse[0].(*syntax.If)
	require.True(t, ok)
	assert.True(t, elif.Elif)
	assert.Equal(t, 3, elif.StartLine())
	require.Len(t, elif.Orelse, 1)
	assert.Equal(t, 6, elif.Orelse[0].NodeSpan().StartLine())
}

func TestParser_CompoundStatements(t *testing.T) {
	t.Parallel()

	src := "for i in items:\n    total += i\nelse:\n    done = True\nwhile total:\n    total -= 1\nwith open(p) as fh:\n    data = fh.read()\ntry:\n    run()\nexcept ValueError as err:\n    log(err)\nfinally:\n    close()\n"
	mod := parse(t, src)
	require.Len(t, mod.Body, 4)

	loop := mod.Body[0].(*syntax.For)
	assert.Equal(t, "i", loop.Target.(*syntax.Name).Id)
	assert.Len(t, loop.Body, 1)
	assert.Len(t, loop.Orelse, 1)

	while := mod.Body[1].(*syntax.While)
	assert.Len(t, while.Body, 1)

	with := mod.Body[2].(*syntax.With)
	require.Len(t, with.Items, 1)
	assert.Equal(t, "fh", with.Items[0].Target.(*syntax.Name).Id)

	try := mod.Body[3].(*syntax.Try)
	require.Len(t, try.Handlers, 1)
	assert.Equal(t, "err", try.Handlers[0].Name)
	assert.Equal(t, "ValueError", try.Handlers[0].Type.(*syntax.Name).Id)
	assert.Len(t, try.Finally, 1)
}

func TestParser_ImportNames(t *testing.T) {
	t.Parallel()

	mod := parse(t, "import os.path\nimport numpy as np\nfrom collections import OrderedDict, deque as dq\n")
	require.Len(t, mod.Body, 3)

	assert.Equal(t, []string{"os"}, mod.Body[0].(*syntax.Import).Names)
	assert.Equal(t, []string{"np"}, mod.Body[1].(*syntax.Import).Names)
	assert.Equal(t, []string{"OrderedDict", "dq"}, mod.Body[2].(*syntax.Import).Names)
}

func TestParser_MatchStatement(t *testing.T) {
	t.Parallel()

	src := `match event, mode:
    case Click(pos=(x, y)) | Key(pos=(x, y)):
        handle(x, y)
    case {"id": ident, **extra} if ident:
        pass
    case State.IDLE as s:
        pass
`
	mod := parse(t, src)
	require.Len(t, mod.Body, 1)
	m, ok := mod.Body[0].(*syntax.Match)
	require.True(t, ok)

	subject, ok := m.Subject.(*syntax.Tuple)
	require.True(t, ok)
	assert.Len(t, subject.Elts, 2)
	require.Len(t, m.Cases, 3)

	ids := func(ns []*syntax.Name) []string {
		var out []string
		for _, n := range ns {
			out = append(out, n.Id)
		}
		return out
	}

	first := m.Cases[0]
	assert.Equal(t, "Click(pos=(x, y)) | Key(pos=(x, y))", first.Pattern)
	assert.Equal(t, []string{"x", "y", "x", "y"}, ids(first.Captures))
	assert.Equal(t, []string{"Click", "Key"}, ids(first.Reads))
	assert.Nil(t, first.Guard)
	assert.Equal(t, 2, first.StartLine())
	require.Len(t, first.Body, 1)

	second := m.Cases[1]
	assert.Equal(t, []string{"ident", "extra"}, ids(second.Captures))
	assert.Empty(t, second.Reads)
	assert.Equal(t, "ident", syntax.FormatExpr(second.Guard))

	third := m.Cases[2]
	assert.Equal(t, []string{"s"}, ids(third.Captures))
	assert.Equal(t, []string{"State"}, ids(third.Reads))
}

func TestParser_FormatRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []string{
		"x = a + b\n",
		"total += price * rate\n",
		"return compute(a, b, key=1)\n",
		"if x > 1:\n    y = x\nelse:\n    y = 0\n",
		"for item in self.items:\n    print(item.name)\n",
		"match cmd:\n    case [\"go\", where] if where:\n        move(where)\n    case _:\n        pass\n",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			body := src
			if src[:6] == "return" {
				body = "def f():\n    " + src
			}
			mod := parse(t, body)
			got := syntax.FormatStmts(mod.Body, 0)
			assert.Equal(t, body, got)
		})
	}
}

func TestParser_SyntaxError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := New().ParseFile(ctx, "../../testdata/python/broken.py")
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "../../testdata/python/broken.py", se.Path)
	assert.Equal(t, 1, se.Line)
	assert.Contains(t, err.Error(), "broken.py:1:")
}

func TestParser_ParseFileFixture(t *testing.T) {
	t.Parallel()

	mod, err := New().ParseFile(context.Background(), "../../testdata/python/orders.py")
	require.NoError(t, err)

	var names []string
	for _, s := range mod.Body {
		switch s := s.(type) {
		case *syntax.ClassDef:
			names = append(names, s.Name)
		case *syntax.FunctionDef:
			names = append(names, s.Name)
		}
	}
	assert.Equal(t, []string{"Order", "compute", "disability_amount"}, names)
}

func TestParser_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := New().ParseFile(context.Background(), "../../testdata/python/missing.py")
	assert.Error(t, err)
}

func TestParser_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Parse(ctx, []byte("x = 1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
