// Package extract implements spec.md §4.2: given one parsed source file,
// produce a tuple per component (props, signals, memos, module constants,
// local functions/variables, imports, default-export flag) plus that
// component's JSX return node for internal/transform to walk.
package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/barefootsplit/bfc/internal/ast"
	"github.com/barefootsplit/bfc/internal/diag"
)

// Prop is one component parameter: a destructured field name, its
// (best-effort) type annotation text, and its default expression if any.
type Prop struct {
	Name    string
	Type    string
	Default string
}

// Signal is a `const [get, set] = createSignal(init)` binding.
type Signal struct {
	Getter string
	Setter string
	Init   string
}

// Memo is a `const get = createMemo(expr)` binding.
type Memo struct {
	Getter string
	Expr   string
}

// Const is a file-scope `const` or `let` declaration. ClientUsed is set by
// internal/analyze.MarkClientUsedConstants once any client-emitted
// expression is found to reference Name (spec.md §3's "used in client
// code" classification); extract only records the declaration itself.
type Const struct {
	Name       string
	Text       string
	Reassigned bool
	ClientUsed bool
}

// LocalFunc is a component-scope function/arrow binding.
type LocalFunc struct {
	Name string
	Text string
}

// LocalVar is a component-scope `const`/`let` binding that is neither a
// signal, memo, nor function — server-only per spec.md §3/§4.2.
type LocalVar struct {
	Name string
	Text string
}

// Import is a preserved import for re-emission (spec.md §4.2's
// "imports" field).
type Import struct {
	LocalName string
	// ImportedName is the exported identifier a named import binds,
	// e.g. "Button" in `import { Button as UIButton }`. Empty for
	// default and namespace imports, and equal to LocalName for an
	// unaliased named import.
	ImportedName string
	Module       string
	IsDefault    bool
	IsNamespace  bool
	Text         string // full import_statement text, for verbatim re-emission
}

// Component is one extracted component: its signature plus its JSX
// return node for the transformer.
type Component struct {
	Name            string
	FilePath        string
	Props           []Prop
	Signals         []Signal
	Memos           []Memo
	ModuleConstants []*Const // shared with FileInfo.ModuleConstants
	LocalFunctions  []LocalFunc
	LocalVars       []LocalVar
	Imports         []Import
	IsDefaultExport bool
	IsExported      bool
	JSXReturn       *sitter.Node
	Source          []byte
}

// FileInfo is everything extracted from one file.
type FileInfo struct {
	Path            string
	Components      []*Component
	ModuleConstants []*Const
	Imports         []Import
}

// ExtractFile parses and extracts path/content. A parse failure yields a
// fatal diag.KindParse diagnostic and a nil FileInfo, per spec.md §4.2's
// failure rule.
func ExtractFile(path string, content []byte, bag *diag.Bag) *FileInfo {
	file, err := ast.Parse(path, content)
	if err != nil {
		bag.Parse("parse-error", err.Error(), diag.Span{Path: path})
		return nil
	}

	fi := &FileInfo{Path: path}
	src := file.Source

	for _, top := range ast.Children(file.Root) {
		switch top.Type() {
		case "import_statement":
			fi.Imports = append(fi.Imports, extractImports(src, top)...)

		case "lexical_declaration":
			for _, decl := range declarators(top) {
				id := ast.FindChild(decl, "identifier")
				value := valueOf(decl)
				if id != nil && value != nil && isArrowOrFunction(value) && ast.IsComponentName(ast.NodeText(src, id)) {
					comp := newComponent(path, src, ast.NodeText(src, id), false)
					extractArrowComponentBody(comp, src, value, fi, bag)
					fi.Components = append(fi.Components, comp)
					continue
				}
				if id != nil {
					fi.ModuleConstants = append(fi.ModuleConstants, &Const{
						Name: ast.NodeText(src, id),
						Text: ast.NodeText(src, top),
					})
				}
			}

		case "function_declaration":
			if id := ast.FindChild(top, "identifier"); id != nil && ast.IsComponentName(ast.NodeText(src, id)) {
				comp := newComponent(path, src, ast.NodeText(src, id), false)
				extractFunctionComponentBody(comp, src, top, fi, bag)
				fi.Components = append(fi.Components, comp)
			}

		case "export_statement":
			extractExport(path, src, top, fi, bag)
		}
	}

	markReassignments(src, file.Root, fi.ModuleConstants)

	for _, c := range fi.Components {
		c.ModuleConstants = fi.ModuleConstants
		c.Imports = fi.Imports
	}

	return fi
}

func newComponent(path string, src []byte, name string, isDefault bool) *Component {
	return &Component{Name: name, FilePath: path, IsDefaultExport: isDefault, Source: src}
}

// extractExport handles `export function Foo(){...}`, `export const Foo
// = ...`, and `export default ...`.
func extractExport(path string, src []byte, top *sitter.Node, fi *FileInfo, bag *diag.Bag) {
	isDefault := false
	for i := 0; i < int(top.ChildCount()); i++ {
		c := top.Child(i)
		if c != nil && c.Type() == "default" {
			isDefault = true
		}
	}

	if fn := ast.FindChild(top, "function_declaration"); fn != nil {
		id := ast.FindChild(fn, "identifier")
		name := ""
		if id != nil {
			name = ast.NodeText(src, id)
		}
		if name == "" {
			name = "default"
		}
		comp := newComponent(path, src, name, isDefault)
		comp.IsExported = true
		extractFunctionComponentBody(comp, src, fn, fi, bag)
		fi.Components = append(fi.Components, comp)
		return
	}

	if ld := ast.FindChild(top, "lexical_declaration"); ld != nil {
		for _, decl := range declarators(ld) {
			id := ast.FindChild(decl, "identifier")
			value := valueOf(decl)
			if id == nil || value == nil {
				continue
			}
			if isArrowOrFunction(value) {
				comp := newComponent(path, src, ast.NodeText(src, id), isDefault)
				comp.IsExported = true
				extractArrowComponentBody(comp, src, value, fi, bag)
				fi.Components = append(fi.Components, comp)
			} else {
				fi.ModuleConstants = append(fi.ModuleConstants, &Const{
					Name: ast.NodeText(src, id),
					Text: ast.NodeText(src, ld),
				})
			}
		}
		return
	}

	// `export default function(){...}` (anonymous): the component is
	// named "default". Other default exports (e.g. `export default
	// SomeIdentifier`) yield no component here.
	if isDefault {
		for i := 0; i < int(top.NamedChildCount()); i++ {
			child := top.NamedChild(i)
			if child.Type() == "function_declaration" {
				comp := newComponent(path, src, "default", true)
				comp.IsExported = true
				extractFunctionComponentBody(comp, src, child, fi, bag)
				fi.Components = append(fi.Components, comp)
				return
			}
		}
	}
}

func declarators(lexDecl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range ast.Children(lexDecl) {
		if c.Type() == "variable_declarator" {
			out = append(out, c)
		}
	}
	return out
}

// valueOf returns a variable_declarator's initializer (the node after
// the identifier/pattern), or nil for an uninitialized binding.
func valueOf(declarator *sitter.Node) *sitter.Node {
	children := ast.Children(declarator)
	if len(children) < 2 {
		return nil
	}
	return children[len(children)-1]
}

func isArrowOrFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function_expression", "function":
		return true
	default:
		return false
	}
}

// extractFunctionComponentBody walks a function_declaration's parameter
// list and body.
func extractFunctionComponentBody(c *Component, src []byte, fn *sitter.Node, fi *FileInfo, bag *diag.Bag) {
	if params := ast.FindChild(fn, "formal_parameters"); params != nil {
		c.Props = extractProps(src, params)
	}
	body := ast.FindChild(fn, "statement_block")
	if body == nil {
		bag.Unsupported("no-jsx-return", "component body is not statically analyzable", diag.Span{Path: c.FilePath, Line: ast.Line(fn)})
		return
	}
	walkComponentBody(c, src, body, bag)
}

// extractArrowComponentBody walks an arrow/function expression bound to
// a const, e.g. `const Comp = (props) => <div/>` or `const Comp =
// (props) => { ...; return <div/> }`.
func extractArrowComponentBody(c *Component, src []byte, fn *sitter.Node, fi *FileInfo, bag *diag.Bag) {
	if params := ast.FindChild(fn, "formal_parameters"); params != nil {
		c.Props = extractProps(src, params)
	} else if id := ast.FindChild(fn, "identifier"); id != nil {
		// Single unparenthesized parameter, e.g. `props => <div/>`.
		c.Props = []Prop{{Name: ast.NodeText(src, id)}}
	}

	children := ast.Children(fn)
	if len(children) == 0 {
		return
	}
	bodyNode := children[len(children)-1]
	if bodyNode.Type() == "statement_block" {
		walkComponentBody(c, src, bodyNode, bag)
		return
	}
	// Direct expression body: the whole thing is the JSX return.
	c.JSXReturn = unwrapParens(bodyNode)
}

// extractProps reads a formal_parameters node's single object_pattern
// parameter (`{ a, b: { type }, c = default }`) into an ordered Prop
// list. A non-destructured parameter (`props`) yields one Prop named
// after the parameter binding itself; callers are expected to reference
// fields off it directly (best-effort, matches spec.md §4.2's "ordered
// list of (name, type text, default expression or none)").
func extractProps(src []byte, params *sitter.Node) []Prop {
	var out []Prop
	for _, p := range ast.Children(params) {
		switch p.Type() {
		case "object_pattern":
			for _, field := range ast.Children(p) {
				out = append(out, propFromPatternField(src, field))
			}
		case "identifier":
			out = append(out, Prop{Name: ast.NodeText(src, p)})
		case "required_parameter", "optional_parameter":
			// TSX grammar sometimes wraps the pattern + type annotation.
			if pat := ast.FindChild(p, "object_pattern"); pat != nil {
				for _, field := range ast.Children(pat) {
					out = append(out, propFromPatternField(src, field))
				}
			} else if id := ast.FindChild(p, "identifier"); id != nil {
				out = append(out, Prop{Name: ast.NodeText(src, id)})
			}
		}
	}
	return out
}

func propFromPatternField(src []byte, field *sitter.Node) Prop {
	switch field.Type() {
	case "shorthand_property_identifier_pattern":
		return Prop{Name: ast.NodeText(src, field)}
	case "pair_pattern":
		// `key: value` destructuring — keep the original key as the prop
		// name; the binding name is a local rename we don't need here.
		key := field.NamedChild(0)
		return Prop{Name: ast.NodeText(src, key)}
	case "assignment_pattern", "object_assignment_pattern":
		left := field.NamedChild(0)
		right := field.NamedChild(1)
		name := ast.NodeText(src, left)
		if left != nil && left.Type() == "shorthand_property_identifier_pattern" {
			name = ast.NodeText(src, left)
		}
		return Prop{Name: name, Default: ast.NodeText(src, right)}
	default:
		return Prop{Name: ast.NodeText(src, field)}
	}
}

// walkComponentBody classifies every top-level statement in a
// component's body per spec.md §4.2's rules, and records the return
// statement's JSX argument.
func walkComponentBody(c *Component, src []byte, body *sitter.Node, bag *diag.Bag) {
	for _, stmt := range ast.Children(body) {
		switch stmt.Type() {
		case "lexical_declaration":
			for _, decl := range declarators(stmt) {
				classifyComponentBinding(c, src, decl)
			}
		case "function_declaration":
			if id := ast.FindChild(stmt, "identifier"); id != nil {
				c.LocalFunctions = append(c.LocalFunctions, LocalFunc{
					Name: ast.NodeText(src, id),
					Text: ast.NodeText(src, stmt),
				})
			}
		case "return_statement":
			if expr := firstExpr(stmt); expr != nil {
				c.JSXReturn = unwrapParens(expr)
			}
		}
	}
	if c.JSXReturn == nil {
		bag.Unsupported("no-jsx-return", "component has no statically analyzable JSX return", diag.Span{Path: c.FilePath})
	}
}

func firstExpr(returnStmt *sitter.Node) *sitter.Node {
	children := ast.Children(returnStmt)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func unwrapParens(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		inner := ast.Children(n)
		if len(inner) == 0 {
			break
		}
		n = inner[0]
	}
	return n
}

// classifyComponentBinding implements spec.md §4.2's binding rules: a
// destructured pair from createSignal is a signal; from createMemo is a
// memo; a function/arrow binding is a local function; anything else is a
// server-only local variable.
func classifyComponentBinding(c *Component, src []byte, decl *sitter.Node) {
	pattern := decl.NamedChild(0)
	value := valueOf(decl)
	if pattern == nil || value == nil {
		return
	}

	callee, args := callPartsWithSrc(src, value)

	if pattern.Type() == "array_pattern" && callee == "createSignal" {
		names := patternNames(src, pattern)
		if len(names) == 2 {
			c.Signals = append(c.Signals, Signal{Getter: names[0], Setter: names[1], Init: args})
			return
		}
	}
	if pattern.Type() == "identifier" && callee == "createMemo" {
		c.Memos = append(c.Memos, Memo{Getter: ast.NodeText(src, pattern), Expr: args})
		return
	}
	if pattern.Type() == "identifier" && isArrowOrFunction(value) {
		c.LocalFunctions = append(c.LocalFunctions, LocalFunc{
			Name: ast.NodeText(src, pattern),
			Text: ast.NodeText(src, pattern) + " = " + ast.NodeText(src, value),
		})
		return
	}
	if pattern.Type() == "identifier" {
		c.LocalVars = append(c.LocalVars, LocalVar{
			Name: ast.NodeText(src, pattern),
			Text: ast.NodeText(src, decl),
		})
	}
}

// callPartsWithSrc returns a call_expression's callee name and its
// argument list's textual form (without the surrounding parens), or
// ("", "") if value is not a call. It reads node text from src.
func callPartsWithSrc(src []byte, value *sitter.Node) (callee, args string) {
	if value.Type() != "call_expression" {
		return "", ""
	}
	children := ast.Children(value)
	if len(children) < 2 {
		return "", ""
	}
	callee = ast.NodeText(src, children[0])
	argsNode := children[1] // "arguments" node, includes the parens
	inner := ast.Children(argsNode)
	parts := make([]string, 0, len(inner))
	for _, a := range inner {
		parts = append(parts, ast.NodeText(src, a))
	}
	args = strings.Join(parts, ", ")
	return callee, args
}

func patternNames(src []byte, arrayPattern *sitter.Node) []string {
	var out []string
	for _, c := range ast.Children(arrayPattern) {
		if c.Type() == "identifier" {
			out = append(out, ast.NodeText(src, c))
		}
	}
	return out
}

// extractImports returns one Import per binding a statement introduces:
// a default/namespace import yields exactly one, but `import { A, B as
// C } from './x'` yields one per specifier, all sharing the statement's
// full Text so combine's per-module dedup still re-emits the whole
// clause verbatim from whichever specifier is kept.
func extractImports(src []byte, stmt *sitter.Node) []Import {
	mod := strings.Trim(ast.FindChildText(src, stmt, "string"), `'"`)
	text := ast.NodeText(src, stmt)

	clause := ast.FindChild(stmt, "import_clause")
	if clause == nil {
		return []Import{{Module: mod, Text: text}}
	}

	var imports []Import
	if id := ast.FindChild(clause, "identifier"); id != nil {
		imports = append(imports, Import{Module: mod, Text: text, LocalName: ast.NodeText(src, id), IsDefault: true})
	}
	if ns := ast.FindChild(clause, "namespace_import"); ns != nil {
		if id := ast.FindChild(ns, "identifier"); id != nil {
			imports = append(imports, Import{Module: mod, Text: text, LocalName: ast.NodeText(src, id), IsNamespace: true})
		}
	}
	if named := ast.FindChild(clause, "named_imports"); named != nil {
		for _, el := range ast.Children(named) {
			if el.Type() != "import_specifier" {
				continue
			}
			imported := ast.FindChildText(src, el, "identifier")
			local := imported
			if as := ast.FindChild(el, "as_clause"); as != nil {
				if aid := ast.FindChild(as, "identifier"); aid != nil {
					local = ast.NodeText(src, aid)
				}
			} else if ids := ast.Children(el); len(ids) == 2 {
				// `Icon as Glyph`: name and alias are two identifier children.
				local = ast.NodeText(src, ids[1])
			}
			if imported == "" {
				continue
			}
			imports = append(imports, Import{Module: mod, Text: text, LocalName: local, ImportedName: imported})
		}
	}
	if len(imports) == 0 {
		imports = append(imports, Import{Module: mod, Text: text})
	}
	return imports
}

// markReassignments flags any module constant that is the target of a
// plain assignment anywhere in the file, implementing the lint case from
// spec.md §9's first Open Question.
func markReassignments(src []byte, root *sitter.Node, consts []*Const) {
	if len(consts) == 0 {
		return
	}
	byName := map[string]*Const{}
	for _, c := range consts {
		byName[c.Name] = c
	}
	ast.Walk(root, func(n *sitter.Node) bool {
		if n.Type() == "assignment_expression" {
			if left := n.NamedChild(0); left != nil && left.Type() == "identifier" {
				if c, ok := byName[ast.NodeText(src, left)]; ok {
					c.Reassigned = true
				}
			}
		}
		return true
	})
}
