// Package ast is the tree-sitter parse boundary shared by internal/extract
// and internal/transform. It chooses a grammar by file extension, parses
// once, and exposes the small node-walking vocabulary both packages need so
// neither reimplements it independently.
package ast

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsx "github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// File is a parsed source file: its root node plus the original bytes
// every byte offset in the tree refers back into.
type File struct {
	Path   string
	Source []byte
	Root   *sitter.Node
}

// Parse parses content as TS or TSX depending on path's extension.
// A ".ts" file uses the plain TypeScript grammar; everything else
// (".tsx", ".jsx", unknown) uses TSX, since JSX is the common case for
// component source in this compiler's domain.
func Parse(path string, content []byte) (*File, error) {
	parser := sitter.NewParser()
	if strings.ToLower(filepath.Ext(path)) == ".ts" {
		parser.SetLanguage(ts.GetLanguage())
	} else {
		parser.SetLanguage(tsx.GetLanguage())
	}
	tree := parser.Parse(nil, content)
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("ast: parse failed for %s", path)
	}
	return &File{Path: path, Source: content, Root: tree.RootNode()}, nil
}

// NodeText returns the trimmed source text a node spans.
func NodeText(src []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(bytes.TrimSpace(src[n.StartByte():n.EndByte()]))
}

// RawText returns a node's span without trimming, for contexts (template
// literals, JSX text) where leading/trailing whitespace is meaningful.
func RawText(src []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// Line returns the 1-based line a node starts on, for diagnostic spans.
func Line(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Row) + 1
}

// Column returns the 1-based column a node starts on.
func Column(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Column) + 1
}

// FindChild returns the first named child of the given type, or nil.
func FindChild(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// FindChildText returns the text of the first named child of the given
// type, or "".
func FindChildText(src []byte, n *sitter.Node, typ string) string {
	return NodeText(src, FindChild(n, typ))
}

// Children returns all named children.
func Children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// FirstIdentifier does a depth-first search for the first identifier-like
// leaf (identifier, property_identifier, jsx_identifier) under n.
func FirstIdentifier(src []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "property_identifier", "jsx_identifier", "type_identifier":
		return NodeText(src, n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := FirstIdentifier(src, n.NamedChild(i)); name != "" {
			return name
		}
	}
	return ""
}

// JSXHeadIdent extracts the leading identifier of a JSX tag name,
// handling <Foo>, <Foo.Bar/> (member expressions), and namespaced names
// by returning the head identifier (Foo).
func JSXHeadIdent(src []byte, n *sitter.Node) string {
	if id := FindChild(n, "identifier"); id != nil {
		return NodeText(src, id)
	}
	if name := FindChild(n, "name"); name != nil {
		if id := FindChild(name, "identifier"); id != nil {
			return NodeText(src, id)
		}
		if head := FirstIdentifier(src, name); head != "" {
			return head
		}
	}
	if mem := FindChild(n, "jsx_namespace_name"); mem != nil {
		return FirstIdentifier(src, mem)
	}
	return FirstIdentifier(src, n)
}

// IsComponentName reports whether name starts with an uppercase letter,
// the convention this compiler (and JSX generally) uses to distinguish a
// component reference from a host element tag.
func IsComponentName(name string) bool {
	if name == "" {
		return false
	}
	r := rune(name[0])
	return r >= 'A' && r <= 'Z'
}

// Walk calls fn for every named node in the subtree rooted at n,
// pre-order. fn returning false skips that node's children.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		Walk(n.NamedChild(i), fn)
	}
}
