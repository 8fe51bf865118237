// Package analyze implements spec.md §4.4: walking a component's IR tree
// to collect what the client hydration script needs (the five ordered
// "client needs" collections) and to assign each element a navigation
// path or null-path sentinel.
package analyze

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

// RefNeed is one ref callback attachment.
type RefNeed struct {
	ElementID int
	Expr      string
}

// InteractiveNeed is one element carrying at least one event-handler
// attribute.
type InteractiveNeed struct {
	ElementID int
	Events    []ir.Attribute
}

// DynamicTextNeed is one text/interpolation/template-literal position
// that must be kept live.
type DynamicTextNeed struct {
	ElementID int // the nearest enclosing element's id; 0 if the node is the component root text itself
	Node      ir.Node
}

// DynamicAttrNeed is one attribute that must be re-applied when its
// dependencies change.
type DynamicAttrNeed struct {
	ElementID int
	Attr      ir.Attribute
}

// ListNeed is one `.map` site. ElementID is the nearest enclosing
// element, which is where the client mounts the reconciled or
// innerHTML-joined rows.
type ListNeed struct {
	List      *ir.List
	ElementID int
}

// ConditionalNeed is one ternary/`&&` site.
type ConditionalNeed struct {
	Cond *ir.Conditional
}

// ChildInstance is one child-component invocation the client must
// initialize.
type ChildInstance struct {
	Child *ir.ChildComponent
}

// Needs is the ordered client-needs record for one component, per
// spec.md §4.4: "Interactive, DynamicText, DynamicAttrs, Lists,
// Conditionals, in that order", plus Refs and ChildInstances collected
// alongside.
type Needs struct {
	Interactive   []InteractiveNeed
	DynamicText   []DynamicTextNeed
	DynamicAttrs  []DynamicAttrNeed
	Lists         []ListNeed
	Conditionals  []ConditionalNeed
	Refs          []RefNeed
	ChildInstance []ChildInstance
}

// IsEmpty reports whether the component needs no client code at all
// (spec.md §4.5/§4.6: a component with empty Needs emits no hydration
// script).
func (n *Needs) IsEmpty() bool {
	return len(n.Interactive) == 0 && len(n.DynamicText) == 0 && len(n.DynamicAttrs) == 0 &&
		len(n.Lists) == 0 && len(n.Conditionals) == 0 && len(n.Refs) == 0 && len(n.ChildInstance) == 0
}

// Collect walks root and returns its client needs.
func Collect(root ir.Node) *Needs {
	n := &Needs{}
	collect(root, n, 0)
	return n
}

var clientExprIdent = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// MarkClientUsedConstants walks root and flags every constant in consts
// that at least one client-emitted expression references: event
// handlers, refs, dynamic text/attributes, conditional guards, list
// array/key expressions, and child-component props (spec.md §3/S5's
// "used in client code" classification). Static text and static
// attribute values are not scanned, since neither carries a JS
// expression a constant reference could appear in.
func MarkClientUsedConstants(root ir.Node, consts []*extract.Const) {
	if len(consts) == 0 {
		return
	}
	byName := map[string]*extract.Const{}
	for _, c := range consts {
		byName[c.Name] = c
	}
	mark := func(expr string) {
		for _, id := range clientExprIdent.FindAllString(expr, -1) {
			if c, ok := byName[id]; ok {
				c.ClientUsed = true
			}
		}
	}
	walkClientExprs(root, mark)
}

func walkClientExprs(n ir.Node, mark func(string)) {
	switch v := n.(type) {
	case *ir.Element:
		for _, a := range v.Attrs {
			switch a.Class {
			case ir.AttrEvent, ir.AttrRef, ir.AttrDynamic:
				mark(a.Value)
			case ir.AttrTemplateLiteral:
				markTemplateLiteralExprs(a.Template, mark)
			}
		}
		if v.Ref != "" {
			mark(v.Ref)
		}
		if v.Key != "" {
			mark(v.Key)
		}
		for _, c := range v.Children {
			walkClientExprs(c, mark)
		}

	case *ir.Interpolation:
		mark(v.Expr)

	case *ir.TemplateLiteral:
		markTemplateLiteralExprs(v, mark)

	case *ir.Conditional:
		mark(v.Cond)
		walkClientExprs(v.WhenTrue, mark)
		walkClientExprs(v.WhenFalse, mark)

	case *ir.List:
		mark(v.ArrayExpr)
		if v.KeyExpr != "" {
			mark(v.KeyExpr)
		}
		walkClientExprs(v.Item, mark)

	case *ir.ChildComponent:
		mark(v.PropsExpr)

	case *ir.Fragment:
		for _, c := range v.Children {
			walkClientExprs(c, mark)
		}
	}
}

func markTemplateLiteralExprs(tl *ir.TemplateLiteral, mark func(string)) {
	if tl == nil {
		return
	}
	for _, p := range tl.Parts {
		if !p.Literal {
			mark(p.Text)
		}
	}
}

func collect(node ir.Node, needs *Needs, enclosingID int) {
	switch v := node.(type) {
	case *ir.Element:
		var events []ir.Attribute
		for _, a := range v.Attrs {
			switch a.Class {
			case ir.AttrEvent:
				events = append(events, a)
			case ir.AttrDynamic, ir.AttrTemplateLiteral:
				needs.DynamicAttrs = append(needs.DynamicAttrs, DynamicAttrNeed{ElementID: v.ID, Attr: a})
			}
		}
		if len(events) > 0 {
			needs.Interactive = append(needs.Interactive, InteractiveNeed{ElementID: v.ID, Events: events})
		}
		if v.Ref != "" {
			needs.Refs = append(needs.Refs, RefNeed{ElementID: v.ID, Expr: v.Ref})
		}
		for _, c := range v.Children {
			collect(c, needs, v.ID)
		}

	case *ir.Text:
		// Static text needs nothing.

	case *ir.Interpolation:
		needs.DynamicText = append(needs.DynamicText, DynamicTextNeed{ElementID: enclosingID, Node: v})

	case *ir.TemplateLiteral:
		if hasExprPart(v) {
			needs.DynamicText = append(needs.DynamicText, DynamicTextNeed{ElementID: enclosingID, Node: v})
		}

	case *ir.Conditional:
		needs.Conditionals = append(needs.Conditionals, ConditionalNeed{Cond: v})
		collect(v.WhenTrue, needs, enclosingID)
		collect(v.WhenFalse, needs, enclosingID)

	case *ir.List:
		// The item subtree is deliberately not walked generically: it
		// has no singular DOM element to bind Interactive/DynamicText/
		// DynamicAttrs/Refs entries to (it's a template repeated per
		// row). internal/emit's list renderers walk v.Item directly to
		// build the row template and its event-delegation table.
		needs.Lists = append(needs.Lists, ListNeed{List: v, ElementID: enclosingID})

	case *ir.ChildComponent:
		needs.ChildInstance = append(needs.ChildInstance, ChildInstance{Child: v})

	case *ir.Fragment:
		for _, c := range v.Children {
			collect(c, needs, enclosingID)
		}
	}
}

func hasExprPart(tl *ir.TemplateLiteral) bool {
	for _, p := range tl.Parts {
		if !p.Literal {
			return true
		}
	}
	return false
}

// Path is one element's DOM navigation plan, computed relative to the
// component's scope root (spec.md §4.4).
//
// Base names the local variable Steps chains from: "__scope" for the
// component's own scope root, or "__el<id>" for another element's
// already-declared variable. Every non-null Path other than the scope
// root's (Base "__scope", no steps) holds exactly one step
// ("firstElementChild" or "nextElementSibling"), because a shorter path
// declared earlier always serves as the base for the next: the client
// emitter declares each element's variable in Path order, so Base is
// never a forward reference.
type Path struct {
	ElementID int
	// NullPath is true when the element cannot be reached by relative
	// navigation and must instead be found via its data-bf="<ElementID>"
	// sentinel attribute.
	NullPath bool
	Base     string
	Steps    []string
}

// Plan walks root and assigns every Element a Path, per spec.md §4.4's
// null-path rules: an element is null-path if it is in a list item
// template, inside a conditional branch, or is the first host element
// following a child-component invocation, a list, or a conditional among
// its parent's children. The scope root itself gets the empty path (its
// variable is __scope), so its children chain from __scope.
func Plan(root ir.Node) map[int]*Path {
	paths := map[int]*Path{}
	switch v := root.(type) {
	case *ir.Element:
		paths[v.ID] = &Path{ElementID: v.ID, Base: "__scope"}
		walkSiblings(v.Children, &cursor{baseVar: "__scope", firstPending: true}, paths)
	case *ir.Fragment:
		walkSiblings(v.Children, &cursor{baseVar: "__scope", firstPending: true}, paths)
	}
	return paths
}

func elVar(id int) string {
	return fmt.Sprintf("__el%d", id)
}

// asChildren normalizes any IR node into the list of children a path
// walk should start from: a single-node slice holding an Element itself
// (so a branch or item root gets its own path), a Fragment's children,
// or a single-node slice for anything else.
func asChildren(n ir.Node) []ir.Node {
	switch v := n.(type) {
	case *ir.Element:
		return []ir.Node{v}
	case *ir.Fragment:
		return v.Children
	default:
		return []ir.Node{v}
	}
}

// cursor tracks the running state of a sibling walk: the variable the
// next addressable element chains from, whether that next element is
// the first host element seen at this level (firstElementChild vs.
// nextElementSibling), and whether it immediately follows a
// child-component invocation, a list, or a conditional (forcing one
// null-path re-anchor).
type cursor struct {
	baseVar      string
	firstPending bool
	afterUnknown bool
}

// walkSiblings assigns paths to elements in an ordered sibling list,
// mutating cur as it goes so that Fragment children (which don't
// introduce their own addressable node) thread straight through the
// same counters as their surrounding siblings.
func walkSiblings(nodes []ir.Node, cur *cursor, paths map[int]*Path) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ir.Element:
			path := &Path{ElementID: v.ID}
			switch {
			case v.InList, v.Cond != ir.CondNone:
				path.NullPath = true
			case cur.afterUnknown:
				v.AfterChildSibling = true
				path.NullPath = true
			case cur.firstPending:
				path.Base, path.Steps = cur.baseVar, []string{"firstElementChild"}
			default:
				path.Base, path.Steps = cur.baseVar, []string{"nextElementSibling"}
			}
			paths[v.ID] = path

			// Once resolved, by whichever means, this element's own
			// variable re-anchors the chain for whatever comes next.
			cur.baseVar = elVar(v.ID)
			cur.firstPending = false
			cur.afterUnknown = false

			walkSiblings(v.Children, &cursor{baseVar: cur.baseVar, firstPending: true}, paths)

		case *ir.ChildComponent:
			cur.firstPending = false
			cur.afterUnknown = true

		case *ir.Conditional:
			walkSiblings(asChildren(v.WhenTrue), &cursor{firstPending: true}, paths)
			walkSiblings(asChildren(v.WhenFalse), &cursor{firstPending: true}, paths)
			cur.firstPending = false
			cur.afterUnknown = true

		case *ir.List:
			walkSiblings(asChildren(v.Item), &cursor{firstPending: true}, paths)
			cur.firstPending = false
			cur.afterUnknown = true

		case *ir.Fragment:
			walkSiblings(v.Children, cur, paths)

		default:
			// Text/Interpolation/TemplateLiteral consume no DOM path.
		}
	}
}

// String renders a path's navigation chain as JavaScript expression text, e.g.
// "__scope.firstElementChild" or "__el3.nextElementSibling", for the
// client emitter. A null path renders as the data-bf sentinel lookup.
func (p *Path) String() string {
	if p.NullPath {
		return fmt.Sprintf(`__scope.querySelector('[data-bf="%s"]')`, strconv.Itoa(p.ElementID))
	}
	if len(p.Steps) == 0 {
		return p.Base
	}
	expr := p.Base
	for _, step := range p.Steps {
		expr += "." + step
	}
	return expr
}
