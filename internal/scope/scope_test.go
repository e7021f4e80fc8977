package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyrefactor/internal/pyparse"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// Test Plan for Tracker and Find:
// - Enter/Leave return new states and never modify the receiver
// - Leave with a frame other than the top one is an error
// - Depth counts same-named containers; only depth 1 matches an enclosing name
// - Callables entered inside an active callable are opaque and never match
// - Module-level addresses only match callables whose parent is the module
// - Find returns the callable, its container and its receiver
// - staticmethods have no receiver
// - Find reports *NotFoundError for unknown addresses
// - Addresses lists every resolvable callable
// - Addresses lists a redefined callable once
// - Replace swaps exactly the matched callable on a copy

const shapesSource = `class Shape:
    class Shape:
        def area(self):
            return 0

    def area(self):
        return 1

    @staticmethod
    def unit():
        return Shape()


def scale(shape, factor):
    def area(x):
        return x
    return shape.area() * factor
`

func parseSource(t *testing.T, src string) *syntax.Module {
	t.Helper()
	mod, err := pyparse.New().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return mod
}

func mustLocator(t *testing.T, address string) target.Locator {
	t.Helper()
	loc, err := target.Parse(address)
	require.NoError(t, err)
	return loc
}

func TestTracker_ValueSemantics(t *testing.T) {
	t.Parallel()

	base := New(mustLocator(t, "Order::total")).Enter(Frame{Kind: ModuleFrame})
	inClass := base.Enter(Frame{Kind: ContainerFrame, Name: "Order"})
	inMethod := inClass.Enter(Frame{Kind: CallableFrame, Name: "total"})

	assert.Len(t, base.Frames(), 1)
	assert.Len(t, inClass.Frames(), 2)
	assert.Len(t, inMethod.Frames(), 3)
	assert.False(t, inClass.Matches())
	assert.True(t, inMethod.Matches())

	back, err := inMethod.Leave(Frame{Kind: CallableFrame, Name: "total"})
	require.NoError(t, err)
	assert.Equal(t, inClass.Frames(), back.Frames())
	assert.True(t, inMethod.Matches(), "Leave must not modify the receiver")
}

func TestTracker_LeaveMismatch(t *testing.T) {
	t.Parallel()

	tr := New(target.Locator{Member: "f"}).Enter(Frame{Kind: ModuleFrame})
	tr = tr.Enter(Frame{Kind: ContainerFrame, Name: "A"})

	_, err := tr.Leave(Frame{Kind: ContainerFrame, Name: "B"})
	assert.Error(t, err)

	_, err = New(target.Locator{Member: "f"}).Leave(Frame{Kind: ModuleFrame})
	assert.Error(t, err)
}

func TestTracker_DepthAndOpaque(t *testing.T) {
	t.Parallel()

	tr := New(mustLocator(t, "Shape::area")).Enter(Frame{Kind: ModuleFrame})
	outer := tr.Enter(Frame{Kind: ContainerFrame, Name: "Shape"})
	inner := outer.Enter(Frame{Kind: ContainerFrame, Name: "Shape"})

	top, _ := inner.Top()
	assert.Equal(t, 2, top.Depth)
	assert.False(t, inner.Enter(Frame{Kind: CallableFrame, Name: "area"}).Matches())
	assert.True(t, outer.Enter(Frame{Kind: CallableFrame, Name: "area"}).Matches())

	fn := tr.Enter(Frame{Kind: CallableFrame, Name: "scale"})
	nested := fn.Enter(Frame{Kind: CallableFrame, Name: "area"})
	top, _ = nested.Top()
	assert.True(t, top.Opaque)
	assert.False(t, nested.Matches())
}

func TestFind(t *testing.T) {
	t.Parallel()

	mod := parseSource(t, shapesSource)

	tests := []struct {
		name      string
		address   string
		wantLine  int
		receiver  string
		container string
	}{
		{"outer method skips same-named nested class", "Shape::area", 6, "self", "Shape"},
		{"module function", "scale", 14, "", ""},
		{"staticmethod has no receiver", "Shape::unit", 10, "", "Shape"},
		{"range does not affect resolution", "scale#L16-L17", 14, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Find(mod, mustLocator(t, tt.address))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLine, m.Func.StartLine())
			assert.Equal(t, tt.receiver, m.Receiver)
			if tt.container == "" {
				assert.Nil(t, m.Container)
			} else {
				require.NotNil(t, m.Container)
				assert.Equal(t, tt.container, m.Container.Name)
			}
		})
	}
}

func TestFind_NotFound(t *testing.T) {
	t.Parallel()

	mod := parseSource(t, shapesSource)

	for _, address := range []string{"area", "Shape::missing", "scale::area", "Other::area"} {
		t.Run(address, func(t *testing.T) {
			t.Parallel()
			_, err := Find(mod, mustLocator(t, address))
			require.Error(t, err)
			var nf *NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, "TargetNotFoundError", nf.Kind())
		})
	}
}

func TestAddresses(t *testing.T) {
	t.Parallel()

	mod := parseSource(t, shapesSource)

	var got []string
	for _, loc := range Addresses(mod) {
		got = append(got, loc.String())
	}
	// The inner Shape's method has no address of its own.
	assert.Equal(t, []string{"Shape::area", "Shape::unit", "scale"}, got)
}

func TestAddresses_Redefined(t *testing.T) {
	t.Parallel()

	mod := parseSource(t, `class Account:
    @property
    def balance(self):
        return self._balance

    @balance.setter
    def balance(self, value):
        self._balance = value


def report():
    pass


def report():
    return 1
`)

	var got []string
	for _, loc := range Addresses(mod) {
		got = append(got, loc.String())
	}
	assert.Equal(t, []string{"Account::balance", "report"}, got)

	m, err := Find(mod, mustLocator(t, "Account::balance"))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Func.StartLine())
}

func TestReplace(t *testing.T) {
	t.Parallel()

	mod := parseSource(t, shapesSource)
	before := syntax.FormatStmts(mod.Body, 0)

	out, err := Replace(mod, mustLocator(t, "Shape::area"), func(fn *syntax.FunctionDef) *syntax.FunctionDef {
		fn.Body = []syntax.Stmt{&syntax.Return{Value: &syntax.Literal{Kind: syntax.IntLiteral, Value: "42"}}}
		return fn
	})
	require.NoError(t, err)

	assert.Equal(t, before, syntax.FormatStmts(mod.Body, 0), "input must not change")

	m, err := Find(out, mustLocator(t, "Shape::area"))
	require.NoError(t, err)
	require.Len(t, m.Func.Body, 1)
	assert.Equal(t, "return 42\n", syntax.FormatStmt(m.Func.Body[0]))

	inner := out.Body[0].(*syntax.ClassDef).Body[0].(*syntax.ClassDef)
	assert.Equal(t, "return 0\n", syntax.FormatStmt(inner.Body[0].(*syntax.FunctionDef).Body[0]))
}

func TestReplace_NotFound(t *testing.T) {
	t.Parallel()

	mod := parseSource(t, shapesSource)
	_, err := Replace(mod, mustLocator(t, "nothing"), func(fn *syntax.FunctionDef) *syntax.FunctionDef { return fn })
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}
