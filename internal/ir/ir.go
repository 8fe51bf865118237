// Package ir defines the tagged intermediate representation (spec.md §3)
// that internal/transform builds from a component's JSX return value, and
// that internal/analyze and internal/emit/* consume. Nodes are not
// modified once internal/transform has built them, except that
// internal/analyze.Plan sets Element.AfterChildSibling.
package ir

// Kind tags a Node's concrete type for callers that need to switch on it
// without a type assertion.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindInterpolation
	KindConditional
	KindList
	KindChildComponent
	KindFragment
	KindTemplateLiteral
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindInterpolation:
		return "interpolation"
	case KindConditional:
		return "conditional"
	case KindList:
		return "list"
	case KindChildComponent:
		return "child-component"
	case KindFragment:
		return "fragment"
	case KindTemplateLiteral:
		return "template-literal"
	default:
		return "unknown"
	}
}

// Node is any IR tree node.
type Node interface {
	Kind() Kind
}

// AttrClass classifies an attribute's value per spec.md §3.
type AttrClass int

const (
	AttrStatic AttrClass = iota
	AttrEvent
	AttrRef
	AttrDynamic
	AttrTemplateLiteral
)

// Attribute is one JSX attribute on an Element.
type Attribute struct {
	Name  string
	Class AttrClass
	// Value holds the literal text (AttrStatic), the handler/ref/dynamic
	// expression's textual form (AttrEvent, AttrRef, AttrDynamic), or is
	// unused in favor of Template (AttrTemplateLiteral).
	Value string
	// Template holds the parsed parts when Class == AttrTemplateLiteral.
	Template *TemplateLiteral
	// EventName is set when Class == AttrEvent, e.g. "click" for onClick.
	EventName string
}

// CondBranch marks which side of a Conditional an Element sits in, used
// by the path planner to decide null-path status.
type CondBranch int

const (
	CondNone CondBranch = iota
	CondWhenTrue
	CondWhenFalse
)

// Element is a host (lowercase-tag) DOM element.
type Element struct {
	ID       int
	Tag      string
	Attrs    []Attribute
	Children []Node
	// Key is the key expression's textual form, "" if this element is
	// not a list-item root or carries no key attribute.
	Key string
	// Ref is the ref callback's textual form, "" if none.
	Ref string
	// InList marks an element that is (or is nested inside) a list item
	// template; such elements are null-path (spec.md §4.4).
	InList bool
	// AfterChildSibling marks an element that directly follows a
	// child-component invocation, a list, or a conditional among its
	// parent's children; also null-path.
	AfterChildSibling bool
	// Cond marks which conditional branch this element's subtree root
	// sits in, CondNone if not inside a conditional.
	Cond CondBranch
}

func (*Element) Kind() Kind { return KindElement }

// Text is a literal string child.
type Text struct {
	Value string
}

func (*Text) Kind() Kind { return KindText }

// Interpolation is a `{expr}` JSX child expression. internal/transform
// builds one for any such value expression; it does not check whether
// the expression references a signal, memo, or prop. Fallback is not set
// by internal/transform and is always empty.
type Interpolation struct {
	Expr     string
	Fallback string
}

func (*Interpolation) Kind() Kind { return KindInterpolation }

// Conditional is `cond ? A : B` or `cond && A` (WhenFalse is an empty
// Fragment in the `&&` case).
type Conditional struct {
	ID        int
	Cond      string
	WhenTrue  Node
	WhenFalse Node
}

func (*Conditional) Kind() Kind { return KindConditional }

// List is `array.map((item[, index]) => JSX)`.
type List struct {
	ID         int
	ArrayExpr  string
	ItemParam  string
	IndexParam string // "" if the callback takes no index parameter
	KeyExpr    string // "" if unkeyed
	Item       Node
}

func (*List) Kind() Kind { return KindList }

// ChildComponent is a JSX tag whose name resolves to another component.
type ChildComponent struct {
	ID        int
	Name      string
	PropsExpr string
	// HasEventProps records whether any elided event-handler attribute
	// was present on the invocation (spec.md §4.3, §4.5 item 9) so
	// diagnostics can flag spread+handler combinations (§4.8).
	HasEventProps bool
}

func (*ChildComponent) Kind() Kind { return KindChildComponent }

// Fragment is an ordered sequence of children with no wrapper element.
type Fragment struct {
	Children []Node
}

func (*Fragment) Kind() Kind { return KindFragment }

// TLPart is one part of a TemplateLiteral: either a literal run or an
// embedded expression.
type TLPart struct {
	Literal bool
	Text    string // literal text, or the expression's textual form
}

// TemplateLiteral is a template string made of literal and expression
// parts, used both as an attribute value and as mixed-text JSX children.
type TemplateLiteral struct {
	Parts []TLPart
}

func (*TemplateLiteral) Kind() Kind { return KindTemplateLiteral }

// Root returns the component's scope root element if the component's
// JSX return is (or unwraps to) a single Element, else nil.
func Root(n Node) *Element {
	if el, ok := n.(*Element); ok {
		return el
	}
	return nil
}

// IsFragment reports whether n is a Fragment node.
func IsFragment(n Node) bool {
	_, ok := n.(*Fragment)
	return ok
}
