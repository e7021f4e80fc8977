// Package scope tracks where a tree walk is relative to a target address and
// resolves addresses to the callable they name.
package scope

import (
	"fmt"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// FrameKind classifies a Frame.
type FrameKind int

const (
	ModuleFrame FrameKind = iota
	ContainerFrame
	CallableFrame
)

func (k FrameKind) String() string {
	switch k {
	case ModuleFrame:
		return "module"
	case ContainerFrame:
		return "container"
	case CallableFrame:
		return "callable"
	}
	return fmt.Sprintf("FrameKind(%d)", int(k))
}

// Frame is one level of lexical nesting.
//
// Depth counts the Container frames with the same Name on the stack,
// including this one. Opaque marks a Callable entered while another
// Callable was already active; its body belongs to that outer callable.
// Enter computes both fields.
type Frame struct {
	Kind   FrameKind
	Name   string
	Depth  int
	Opaque bool
}

// FrameFor returns the frame a node opens, if any.
func FrameFor(n syntax.Node) (Frame, bool) {
	switch n := n.(type) {
	case *syntax.Module:
		return Frame{Kind: ModuleFrame}, true
	case *syntax.ClassDef:
		return Frame{Kind: ContainerFrame, Name: n.Name}, true
	case *syntax.FunctionDef:
		return Frame{Kind: CallableFrame, Name: n.Name}, true
	}
	return Frame{}, false
}

// Tracker is the frame stack of a walk, checked against one Locator.
// Trackers are values: Enter and Leave return the next state and never
// modify the receiver.
type Tracker struct {
	loc    target.Locator
	frames []Frame
}

// New returns an empty tracker for loc.
func New(loc target.Locator) Tracker {
	return Tracker{loc: loc}
}

// Locator returns the address the tracker matches against.
func (t Tracker) Locator() target.Locator { return t.loc }

// Frames returns a copy of the stack, outermost first.
func (t Tracker) Frames() []Frame {
	return append([]Frame(nil), t.frames...)
}

// Top returns the innermost frame.
func (t Tracker) Top() (Frame, bool) {
	if len(t.frames) == 0 {
		return Frame{}, false
	}
	return t.frames[len(t.frames)-1], true
}

// Parent returns the frame directly below the top.
func (t Tracker) Parent() (Frame, bool) {
	if len(t.frames) < 2 {
		return Frame{}, false
	}
	return t.frames[len(t.frames)-2], true
}

// InCallable reports whether a non-opaque callable is on the stack.
func (t Tracker) InCallable() bool {
	for _, f := range t.frames {
		if f.Kind == CallableFrame && !f.Opaque {
			return true
		}
	}
	return false
}

// Enter pushes f. Depth and Opaque are derived from the current stack.
func (t Tracker) Enter(f Frame) Tracker {
	f.Depth = 0
	f.Opaque = false
	switch f.Kind {
	case ContainerFrame:
		f.Depth = 1
		for _, g := range t.frames {
			if g.Kind == ContainerFrame && g.Name == f.Name {
				f.Depth++
			}
		}
	case CallableFrame:
		f.Opaque = t.InCallable()
	}

	frames := make([]Frame, len(t.frames), len(t.frames)+1)
	copy(frames, t.frames)
	return Tracker{loc: t.loc, frames: append(frames, f)}
}

// Leave pops f. Leaving a frame other than the top one is an unbalanced
// walk and returns an error.
func (t Tracker) Leave(f Frame) (Tracker, error) {
	top, ok := t.Top()
	if !ok {
		return t, fmt.Errorf("leave %s %q: frame stack is empty", f.Kind, f.Name)
	}
	if top.Kind != f.Kind || top.Name != f.Name {
		return t, fmt.Errorf("leave %s %q: top frame is %s %q", f.Kind, f.Name, top.Kind, top.Name)
	}
	return Tracker{loc: t.loc, frames: t.frames[:len(t.frames)-1]}, nil
}

// Matches reports whether the top frame is the callable the locator names.
func (t Tracker) Matches() bool {
	top, ok := t.Top()
	if !ok || top.Kind != CallableFrame || top.Opaque || top.Name != t.loc.Member {
		return false
	}
	parent, ok := t.Parent()
	if !ok {
		return false
	}
	if t.loc.Enclosing == "" {
		return parent.Kind == ModuleFrame
	}
	return parent.Kind == ContainerFrame && parent.Name == t.loc.Enclosing && parent.Depth == 1
}

// Address returns the address of the callable on top of the stack, in the
// form Matches accepts. It reports false when the top frame is not an
// addressable callable.
func (t Tracker) Address() (target.Locator, bool) {
	top, ok := t.Top()
	if !ok || top.Kind != CallableFrame || top.Opaque {
		return target.Locator{}, false
	}
	parent, ok := t.Parent()
	if !ok {
		return target.Locator{}, false
	}
	switch {
	case parent.Kind == ModuleFrame:
		return target.Locator{Member: top.Name}, true
	case parent.Kind == ContainerFrame && parent.Depth == 1:
		return target.Locator{Enclosing: parent.Name, Member: top.Name}, true
	}
	return target.Locator{}, false
}
