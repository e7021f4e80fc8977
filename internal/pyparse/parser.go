// Package pyparse builds syntax trees from Python source using tree-sitter.
package pyparse

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

// SyntaxError reports source that tree-sitter could not parse cleanly.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	where := e.Path
	if where == "" {
		where = "<source>"
	}
	return fmt.Sprintf("%s:%d:%d: invalid syntax near %q", where, e.Line, e.Column, e.Near)
}

// Parser parses Python files into syntax trees.
type Parser struct {
	language *sitter.Language
}

// New creates a new Python parser.
func New() *Parser {
	return &Parser{language: sitter.NewLanguage(python.Language())}
}

// ParseFile reads and parses a Python source file.
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*syntax.Module, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	mod, err := p.Parse(ctx, source)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Path = filePath
		}
		return nil, err
	}
	return mod, nil
}

// Parse parses Python source. Source with syntax errors is rejected rather
// than partially converted, since every analysis depends on exact lines.
func (p *Parser) Parse(ctx context.Context, source []byte) (*syntax.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(p.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse python source")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, source)
	}

	c := &converter{src: source}
	return &syntax.Module{Span: span(root), Body: c.block(root)}, nil
}

// firstError locates the first ERROR or MISSING node in source order.
func firstError(root *sitter.Node, source []byte) *SyntaxError {
	var bad *sitter.Node
	walkTree(root, func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return n.HasError()
	})
	if bad == nil {
		bad = root
	}
	near := extractNodeText(bad, source)
	if len(near) > 40 {
		near = near[:40]
	}
	pos := bad.StartPosition()
	return &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column), Near: near}
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

func span(n *sitter.Node) syntax.Span {
	s, e := n.StartPosition(), n.EndPosition()
	return syntax.Span{
		Start: syntax.Position{Line: int(s.Row) + 1, Column: int(s.Column)},
		End:   syntax.Position{Line: int(e.Row) + 1, Column: int(e.Column)},
	}
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(uint(i))
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// firstNamed returns the first non-comment named child of n.
func firstNamed(n *sitter.Node) *sitter.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// sameNode reports whether a and b cover the same bytes.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
