// Package transform implements spec.md §4.3: converting a component's JSX
// return value (a tree-sitter subtree) into the internal/ir tree the rest
// of the compiler operates on.
package transform

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/barefootsplit/bfc/internal/ast"
	"github.com/barefootsplit/bfc/internal/diag"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

// IDAllocator hands out per-component monotonic element ids. Ids are
// allocated during the single transform walk, so relative ordering is
// stable across recompiles of unchanged source (spec.md §4.3).
type IDAllocator struct{ next int }

// Next returns the next id, starting at 1.
func (a *IDAllocator) Next() int {
	a.next++
	return a.next
}

// Reactive is the set of names a component's JSX may reference that
// should be treated as reactive (signal/memo getters and props), used to
// classify attribute values and text children as static vs. dynamic.
type Reactive struct {
	names map[string]bool
}

// NewReactive builds a Reactive set from an extracted component.
func NewReactive(c *extract.Component) *Reactive {
	r := &Reactive{names: map[string]bool{}}
	for _, s := range c.Signals {
		r.names[s.Getter] = true
	}
	for _, m := range c.Memos {
		r.names[m.Getter] = true
	}
	for _, p := range c.Props {
		r.names[p.Name] = true
	}
	return r
}

// References reports whether expr textually references any reactive
// name. This is the same coarse textual-reference approach spec.md §9
// documents for local-binding classification ("loses precision across
// shadowing; the specification accepts this as a known limitation").
func (r *Reactive) References(expr string) bool {
	for name := range r.names {
		if containsIdent(expr, name) {
			return true
		}
	}
	return false
}

// containsIdent reports whether name appears in s as a whole identifier
// (not as a substring of a longer identifier).
func containsIdent(s, name string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], name)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(name)
		beforeOK := start == 0 || !isIdentByte(s[start-1])
		afterOK := end == len(s) || !isIdentByte(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Resolver maps a JSX tag's leading identifier to a child component
// reference, so the transformer can distinguish "refers to an imported
// or same-file component" (spec.md §4.3's ChildComponent rule) from a
// merely-capitalized identifier with no known definition.
type Resolver func(tagHead string) (componentName string, known bool)

// Context carries the per-component state the transformer threads
// through recursive calls.
type Context struct {
	Src      []byte
	Path     string
	Alloc    *IDAllocator
	Reactive *Reactive
	Resolve  Resolver
	Bag      *diag.Bag
}

// Transform converts jsxReturn into an internal/ir tree.
func Transform(ctx *Context, jsxReturn *sitter.Node) ir.Node {
	if jsxReturn == nil {
		return &ir.Fragment{}
	}
	return ctx.node(jsxReturn)
}

func (ctx *Context) node(n *sitter.Node) ir.Node {
	if n == nil {
		return &ir.Fragment{}
	}
	switch n.Type() {
	case "jsx_element":
		return ctx.element(n, false)
	case "jsx_self_closing_element":
		return ctx.element(n, true)
	case "jsx_fragment":
		return &ir.Fragment{Children: ctx.children(ast.Children(n))}
	case "jsx_expression":
		return ctx.expression(n)
	case "jsx_text":
		return &ir.Text{Value: strings.TrimSpace(ast.RawText(ctx.Src, n))}
	case "parenthesized_expression":
		inner := ast.Children(n)
		if len(inner) == 1 {
			return ctx.node(inner[0])
		}
		return &ir.Fragment{}
	default:
		// A bare expression reached as a JSX child root (e.g. the whole
		// return is `cond ? <A/> : <B/>` without a wrapping jsx_expression).
		return ctx.expression(n)
	}
}

// element builds an Element or ChildComponent IR node from a
// jsx_element/jsx_self_closing_element node.
func (ctx *Context) element(n *sitter.Node, selfClosing bool) ir.Node {
	opening := n
	if !selfClosing {
		if o := ast.FindChild(n, "jsx_opening_element"); o != nil {
			opening = o
		}
	}
	tagHead := ast.JSXHeadIdent(ctx.Src, opening)

	if ast.IsComponentName(tagHead) {
		return ctx.childComponent(n, opening, tagHead)
	}

	el := &ir.Element{ID: ctx.Alloc.Next(), Tag: tagHead}
	for _, attrNode := range ast.Children(opening) {
		if attrNode.Type() != "jsx_attribute" {
			continue
		}
		ctx.classifyAttribute(el, attrNode)
	}

	if !selfClosing {
		var kids []*sitter.Node
		for _, c := range ast.Children(n) {
			switch c.Type() {
			case "jsx_opening_element", "jsx_closing_element":
				continue
			default:
				kids = append(kids, c)
			}
		}
		el.Children = ctx.children(kids)
	}
	return el
}

// children transforms an ordered list of JSX child nodes, collapsing a
// run of jsx_text/jsx_expression siblings that together form mixed
// string content into a single TemplateLiteral per spec.md §4.3
// ("Mixed string concatenation becomes a template literal").
func (ctx *Context) children(nodes []*sitter.Node) []ir.Node {
	var out []ir.Node
	var mixedRun []ir.TLPart

	flush := func() {
		if len(mixedRun) == 0 {
			return
		}
		if len(mixedRun) == 1 && mixedRun[0].Literal {
			out = append(out, &ir.Text{Value: mixedRun[0].Text})
		} else if len(mixedRun) == 1 && !mixedRun[0].Literal {
			out = append(out, &ir.Interpolation{Expr: mixedRun[0].Text})
		} else {
			out = append(out, &ir.TemplateLiteral{Parts: append([]ir.TLPart(nil), mixedRun...)})
		}
		mixedRun = nil
	}

	textRunLen := 0
	for _, n := range nodes {
		switch n.Type() {
		case "jsx_text":
			text := strings.TrimSpace(ast.RawText(ctx.Src, n))
			if text == "" {
				continue
			}
			mixedRun = append(mixedRun, ir.TLPart{Literal: true, Text: text})
			textRunLen++
		case "jsx_expression":
			inner := exprInner(n)
			if inner == nil {
				continue
			}
			if isSimpleExprForRun(ctx.Src, inner) {
				mixedRun = append(mixedRun, ir.TLPart{Literal: false, Text: ast.NodeText(ctx.Src, inner)})
				textRunLen++
				continue
			}
			flush()
			out = append(out, ctx.node(n))
		default:
			flush()
			out = append(out, ctx.node(n))
		}
	}
	flush()
	return out
}

// isSimpleExprForRun reports whether a {expr} child is a plain
// value-producing expression (identifier, call, member access) eligible
// to join a surrounding text run, as opposed to a conditional, list, or
// nested JSX that must stay its own IR node.
func isSimpleExprForRun(src []byte, n *sitter.Node) bool {
	switch n.Type() {
	case "ternary_expression", "binary_expression", "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return false
	case "call_expression":
		// `arr.map(...)` is a list (see tryList), not a text value.
		if kids := ast.Children(n); len(kids) == 2 && kids[0].Type() == "member_expression" {
			if mk := ast.Children(kids[0]); len(mk) == 2 && ast.NodeText(src, mk[1]) == "map" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func exprInner(jsxExpr *sitter.Node) *sitter.Node {
	kids := ast.Children(jsxExpr)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

// expression classifies a `{...}` JSX child's inner expression per
// spec.md §4.3: ternary/`&&` become Conditional, `.map(...)` becomes
// List, a template_string becomes TemplateLiteral, otherwise it is a
// plain Interpolation.
func (ctx *Context) expression(jsxExprOrInner *sitter.Node) ir.Node {
	inner := jsxExprOrInner
	if jsxExprOrInner.Type() == "jsx_expression" {
		inner = exprInner(jsxExprOrInner)
	}
	if inner == nil {
		return &ir.Text{Value: ""}
	}

	switch inner.Type() {
	case "ternary_expression":
		return ctx.ternary(inner)
	case "binary_expression":
		if isLogicalAnd(ctx.Src, inner) {
			return ctx.logicalAnd(inner)
		}
		if isStringConcat(ctx.Src, inner) {
			return ctx.flattenConcat(inner)
		}
		return &ir.Interpolation{Expr: ast.NodeText(ctx.Src, inner)}
	case "call_expression":
		if list, ok := ctx.tryList(inner); ok {
			return list
		}
		return &ir.Interpolation{Expr: ast.NodeText(ctx.Src, inner)}
	case "template_string":
		return ctx.templateLiteral(inner)
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return ctx.node(inner)
	default:
		return &ir.Interpolation{Expr: ast.NodeText(ctx.Src, inner)}
	}
}

func isLogicalAnd(src []byte, n *sitter.Node) bool {
	return operatorText(src, n) == "&&"
}

func isStringConcat(src []byte, n *sitter.Node) bool {
	return operatorText(src, n) == "+"
}

// operatorText returns a binary_expression's operator token text. The
// operator is an anonymous child between the two named operand children,
// so it is found by scanning all children (not just named ones).
func operatorText(src []byte, n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() {
			t := ast.NodeText(src, c)
			if t == "&&" || t == "+" || t == "||" {
				return t
			}
		}
	}
	return ""
}

func (ctx *Context) ternary(n *sitter.Node) ir.Node {
	kids := ast.Children(n)
	if len(kids) != 3 {
		ctx.Bag.Unsupported("malformed-ternary", "ternary JSX expression could not be decomposed", diag.Span{Path: ctx.Path, Line: ast.Line(n)})
		return &ir.Fragment{}
	}
	id := ctx.Alloc.Next()
	cond := &ir.Conditional{
		ID:        id,
		Cond:      ast.NodeText(ctx.Src, kids[0]),
		WhenTrue:  ctx.markBranch(ctx.node(kids[1]), ir.CondWhenTrue),
		WhenFalse: ctx.markBranch(ctx.node(kids[2]), ir.CondWhenFalse),
	}
	return cond
}

func (ctx *Context) logicalAnd(n *sitter.Node) ir.Node {
	kids := ast.Children(n)
	if len(kids) != 2 {
		ctx.Bag.Unsupported("malformed-logical-and", "&& JSX expression could not be decomposed", diag.Span{Path: ctx.Path, Line: ast.Line(n)})
		return &ir.Fragment{}
	}
	id := ctx.Alloc.Next()
	return &ir.Conditional{
		ID:        id,
		Cond:      ast.NodeText(ctx.Src, kids[0]),
		WhenTrue:  ctx.markBranch(ctx.node(kids[1]), ir.CondWhenTrue),
		WhenFalse: &ir.Fragment{},
	}
}

// markBranch recursively tags every Element reachable through Fragment
// children and nested Conditional branches with which conditional branch
// it belongs to, for the path planner (spec.md §4.4: conditional
// branches are null-path). Mirrors markListItem's recursion shape.
func (ctx *Context) markBranch(n ir.Node, branch ir.CondBranch) ir.Node {
	switch v := n.(type) {
	case *ir.Element:
		v.Cond = branch
		for _, c := range v.Children {
			ctx.markBranch(c, branch)
		}
	case *ir.Fragment:
		for _, c := range v.Children {
			ctx.markBranch(c, branch)
		}
	case *ir.Conditional:
		ctx.markBranch(v.WhenTrue, branch)
		ctx.markBranch(v.WhenFalse, branch)
	}
	return n
}

// flattenConcat collapses a chain of `a + b + c` string-concatenation
// binary expressions into one TemplateLiteral, per spec.md §4.3's mixed
// string concatenation rule.
func (ctx *Context) flattenConcat(n *sitter.Node) ir.Node {
	var parts []ir.TLPart
	var walk func(*sitter.Node)
	walk = func(e *sitter.Node) {
		if e.Type() == "binary_expression" && isStringConcat(ctx.Src, e) {
			kids := ast.Children(e)
			if len(kids) == 2 {
				walk(kids[0])
				walk(kids[1])
				return
			}
		}
		if e.Type() == "string" {
			parts = append(parts, ir.TLPart{Literal: true, Text: strings.Trim(ast.NodeText(ctx.Src, e), `'"`)})
			return
		}
		parts = append(parts, ir.TLPart{Literal: false, Text: ast.NodeText(ctx.Src, e)})
	}
	walk(n)
	return &ir.TemplateLiteral{Parts: parts}
}

func (ctx *Context) templateLiteral(n *sitter.Node) ir.Node {
	var parts []ir.TLPart
	for _, c := range ast.Children(n) {
		switch c.Type() {
		case "string_fragment":
			parts = append(parts, ir.TLPart{Literal: true, Text: ast.RawText(ctx.Src, c)})
		case "template_substitution":
			inner := ast.Children(c)
			if len(inner) == 1 {
				parts = append(parts, ir.TLPart{Literal: false, Text: ast.NodeText(ctx.Src, inner[0])})
			}
		}
	}
	return &ir.TemplateLiteral{Parts: parts}
}

// tryList recognizes `expr.map((item[, index]) => JSX)` and builds a
// List IR node; ok is false for any other call shape.
func (ctx *Context) tryList(call *sitter.Node) (ir.Node, bool) {
	kids := ast.Children(call)
	if len(kids) != 2 {
		return nil, false
	}
	callee, argsNode := kids[0], kids[1]
	if callee.Type() != "member_expression" {
		return nil, false
	}
	memberKids := ast.Children(callee)
	if len(memberKids) != 2 || ast.NodeText(ctx.Src, memberKids[1]) != "map" {
		return nil, false
	}
	arrayExpr := ast.NodeText(ctx.Src, memberKids[0])

	args := ast.Children(argsNode)
	if len(args) != 1 || !isArrowOrFunction(args[0]) {
		return nil, false
	}
	callback := args[0]

	itemParam, indexParam := callbackParams(ctx.Src, callback)

	bodyNode := lastChild(callback)
	if bodyNode == nil {
		return nil, false
	}
	if bodyNode.Type() == "statement_block" {
		// `(item) => { return <li/> }` — find the return statement.
		var ret *sitter.Node
		for _, s := range ast.Children(bodyNode) {
			if s.Type() == "return_statement" {
				if rk := ast.Children(s); len(rk) > 0 {
					ret = rk[0]
				}
			}
		}
		if ret == nil {
			return nil, false
		}
		bodyNode = ret
	}

	item := ctx.node(unwrapParensLocal(bodyNode))

	id := ctx.Alloc.Next()
	list := &ir.List{
		ID:         id,
		ArrayExpr:  arrayExpr,
		ItemParam:  itemParam,
		IndexParam: indexParam,
		Item:       markListItem(item),
	}
	if el, ok := item.(*ir.Element); ok {
		list.KeyExpr = el.Key
	}
	return list, true
}

func unwrapParensLocal(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		kids := ast.Children(n)
		if len(kids) != 1 {
			break
		}
		n = kids[0]
	}
	return n
}

// markListItem recursively marks every Element in a list item's subtree
// as InList, so the path planner treats them as null-path (spec.md
// §4.4: "sits inside a list item template").
func markListItem(n ir.Node) ir.Node {
	switch v := n.(type) {
	case *ir.Element:
		v.InList = true
		for _, c := range v.Children {
			markListItem(c)
		}
	case *ir.Fragment:
		for _, c := range v.Children {
			markListItem(c)
		}
	case *ir.Conditional:
		markListItem(v.WhenTrue)
		markListItem(v.WhenFalse)
	}
	return n
}

func callbackParams(src []byte, callback *sitter.Node) (item, index string) {
	params := ast.FindChild(callback, "formal_parameters")
	if params == nil {
		if id := ast.FindChild(callback, "identifier"); id != nil {
			return ast.NodeText(src, id), ""
		}
		return "", ""
	}
	idents := []string{}
	for _, p := range ast.Children(params) {
		if p.Type() == "identifier" {
			idents = append(idents, ast.NodeText(src, p))
		}
	}
	if len(idents) > 0 {
		item = idents[0]
	}
	if len(idents) > 1 {
		index = idents[1]
	}
	return item, index
}

func lastChild(n *sitter.Node) *sitter.Node {
	kids := ast.Children(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

func isArrowOrFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function_expression":
		return true
	default:
		return false
	}
}

// childComponent builds a ChildComponent IR node, reconstructing a
// props-object textual expression from the invocation's non-event
// attributes (event-handler attributes are recorded via HasEventProps
// but elided from PropsExpr per spec.md §4.5 item 9 / §9's Open Question
// 3).
func (ctx *Context) childComponent(n, opening *sitter.Node, tagHead string) ir.Node {
	name, known := tagHead, true
	if ctx.Resolve != nil {
		if resolved, ok := ctx.Resolve(tagHead); ok {
			name = resolved
		} else {
			known = false
		}
	}
	if !known {
		ctx.Bag.Unsupported("unknown-component", "JSX tag <"+tagHead+"> does not resolve to a known component", diag.Span{Path: ctx.Path, Line: ast.Line(opening)})
	}

	var propFields []string
	hasEvents := false
	hasSpread := false
	for _, attrNode := range ast.Children(opening) {
		if attrNode.Type() != "jsx_attribute" {
			if strings.HasPrefix(ast.NodeText(ctx.Src, attrNode), "{...") {
				hasSpread = true
				propFields = append(propFields, "..."+strings.TrimPrefix(strings.TrimSuffix(ast.NodeText(ctx.Src, attrNode), "}"), "{..."))
			}
			continue
		}
		attrName := ast.FindChildText(ctx.Src, attrNode, "property_identifier")
		if attrName == "" {
			attrName = ast.FindChildText(ctx.Src, attrNode, "identifier")
		}
		if isEventAttr(attrName) {
			hasEvents = true
			continue
		}
		if attrName == "ref" {
			continue
		}
		val := attrValueText(ctx.Src, attrNode)
		propFields = append(propFields, attrName+": "+val)
	}
	if hasSpread && hasEvents {
		ctx.Bag.Unsupported("spread-with-event-props", "non-literal spread on child component combined with event-handler attributes cannot be statically separated", diag.Span{Path: ctx.Path, Line: ast.Line(opening)})
	}

	return &ir.ChildComponent{
		ID:            ctx.Alloc.Next(),
		Name:          name,
		PropsExpr:     "{ " + strings.Join(propFields, ", ") + " }",
		HasEventProps: hasEvents,
	}
}

func isEventAttr(name string) bool {
	if len(name) < 3 || !strings.HasPrefix(name, "on") {
		return false
	}
	r := rune(name[2])
	return r >= 'A' && r <= 'Z'
}

func eventNameFromAttr(name string) string {
	rest := name[2:]
	return strings.ToLower(rest[:1]) + rest[1:]
}

func attrValueText(src []byte, attrNode *sitter.Node) string {
	if s := ast.FindChild(attrNode, "string"); s != nil {
		return ast.NodeText(src, s)
	}
	if e := ast.FindChild(attrNode, "jsx_expression"); e != nil {
		if inner := exprInner(e); inner != nil {
			return ast.NodeText(src, inner)
		}
	}
	return "undefined"
}

// classifyAttribute implements spec.md §4.3's attribute classification
// rules and consumes the "key"/"ref" attributes into their dedicated
// Element fields rather than the Attrs list.
func (ctx *Context) classifyAttribute(el *ir.Element, attrNode *sitter.Node) {
	name := ast.FindChildText(ctx.Src, attrNode, "property_identifier")
	if name == "" {
		name = ast.FindChildText(ctx.Src, attrNode, "identifier")
	}
	if name == "" {
		return
	}

	if name == "key" {
		if e := ast.FindChild(attrNode, "jsx_expression"); e != nil {
			if inner := exprInner(e); inner != nil {
				el.Key = ast.NodeText(ctx.Src, inner)
			}
		} else if s := ast.FindChild(attrNode, "string"); s != nil {
			el.Key = ast.NodeText(ctx.Src, s)
		}
		return
	}
	if name == "ref" {
		if e := ast.FindChild(attrNode, "jsx_expression"); e != nil {
			if inner := exprInner(e); inner != nil {
				el.Ref = ast.NodeText(ctx.Src, inner)
			}
		}
		return
	}
	if isEventAttr(name) {
		if e := ast.FindChild(attrNode, "jsx_expression"); e != nil {
			if inner := exprInner(e); inner != nil {
				el.Attrs = append(el.Attrs, ir.Attribute{
					Name:      name,
					Class:     ir.AttrEvent,
					Value:     ast.NodeText(ctx.Src, inner),
					EventName: eventNameFromAttr(name),
				})
			}
		}
		return
	}

	if s := ast.FindChild(attrNode, "string"); s != nil {
		el.Attrs = append(el.Attrs, ir.Attribute{Name: name, Class: ir.AttrStatic, Value: strings.Trim(ast.NodeText(ctx.Src, s), `'"`)})
		return
	}

	e := ast.FindChild(attrNode, "jsx_expression")
	if e == nil {
		// Boolean-shorthand attribute, e.g. `<input disabled />`.
		el.Attrs = append(el.Attrs, ir.Attribute{Name: name, Class: ir.AttrStatic, Value: "true"})
		return
	}
	inner := exprInner(e)
	if inner == nil {
		return
	}

	if inner.Type() == "template_string" {
		tl := ctx.templateLiteral(inner).(*ir.TemplateLiteral)
		el.Attrs = append(el.Attrs, ir.Attribute{Name: name, Class: ir.AttrTemplateLiteral, Template: tl})
		return
	}
	if inner.Type() == "string" {
		el.Attrs = append(el.Attrs, ir.Attribute{Name: name, Class: ir.AttrStatic, Value: strings.Trim(ast.NodeText(ctx.Src, inner), `'"`)})
		return
	}

	text := ast.NodeText(ctx.Src, inner)
	class := ir.AttrStatic
	if ctx.Reactive.References(text) {
		class = ir.AttrDynamic
	}
	el.Attrs = append(el.Attrs, ir.Attribute{Name: name, Class: class, Value: text})
}
