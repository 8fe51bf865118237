package server

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

// TemplateAdapter is the default Adapter: it renders each component as a
// named Go html/template block driven by the internal/runtime/bf helper
// functions, in the style of the real BareFootJS Go runtime this package
// is grounded on. Unlike that runtime's hand-authored templates, these
// are machine-generated from the IR; the bf helper names and the
// hydration-marker vocabulary carry over.
type TemplateAdapter struct{}

// NewTemplateAdapter constructs the default adapter.
func NewTemplateAdapter() *TemplateAdapter { return &TemplateAdapter{} }

var _ Adapter = (*TemplateAdapter)(nil)
var _ FileAdapter = (*TemplateAdapter)(nil)

// GenerateServerComponent implements spec.md §4.5's nine obligations.
func (a *TemplateAdapter) GenerateServerComponent(in *ComponentInput) (string, error) {
	addressable := addressableIDs(in)

	var body strings.Builder
	rc := &renderCtx{
		props:     in.Props,
		signals:   in.Signals,
		memos:     in.Memos,
		localVars: in.LocalVars,
		consts:    in.ModuleConstants,
		addr:      addressable,
	}
	rc.renderNode(&body, in.JSX, true, in.Name)

	var out strings.Builder
	fmt.Fprintf(&out, "{{/* generated server component: %s */}}\n", in.Name)
	fmt.Fprintf(&out, `{{define "%s"}}`+"\n", in.Name)
	out.WriteString(body.String())
	out.WriteString("\n{{end}}\n")
	return out.String(), nil
}

// GenerateServerFile implements §4.7's combined-file operation: one Go
// template source concatenating every component defined in sourcePath
// under one header comment naming that path. The file's preserved
// imports are not written into the template text.
func (a *TemplateAdapter) GenerateServerFile(in *ServerFileInput, perComponent []string) (string, error) {
	var out strings.Builder
	fmt.Fprintf(&out, "{{/* combined server templates for %s */}}\n", in.SourcePath)
	for _, c := range perComponent {
		out.WriteString(c)
		out.WriteString("\n")
	}
	return out.String(), nil
}

// addressableIDs implements obligations 2 and 3 for the generic element
// path (renderElement): interactive, dynamic-text, dynamic-attribute,
// and ref-target elements get data-bf, whether or not their path is
// otherwise reachable. List item roots are marked by renderList's own
// bfKey/bfEventID rendering; a single-element conditional branch root
// gets bfCond from renderSingleCondBranch, plus bfMark when it is in
// this set.
func addressableIDs(in *ComponentInput) map[int]bool {
	set := map[int]bool{}
	if in.Needs == nil {
		return set
	}
	for _, n := range in.Needs.Interactive {
		set[n.ElementID] = true
	}
	for _, n := range in.Needs.DynamicText {
		set[n.ElementID] = true
	}
	for _, n := range in.Needs.DynamicAttrs {
		set[n.ElementID] = true
	}
	for _, n := range in.Needs.Refs {
		set[n.ElementID] = true
	}
	return set
}

// renderCtx threads the component signature needed to best-effort
// render initial dynamic values (obligation 6).
type renderCtx struct {
	props     []extract.Prop
	signals   []extract.Signal
	memos     []extract.Memo
	localVars []extract.LocalVar
	consts    []*extract.Const
	addr      map[int]bool
}

// renderNode appends n's server markup to out. isRoot marks the
// outermost call, which carries data-bf-scope and the props-script
// sibling; the props script is emitted for every component root,
// whether or not the component is root-eligible.
func (rc *renderCtx) renderNode(out *strings.Builder, n ir.Node, isRoot bool, name string) {
	switch v := n.(type) {
	case *ir.Element:
		rc.renderElement(out, v, isRoot, name)

	case *ir.Text:
		out.WriteString(escapeText(v.Value))

	case *ir.Interpolation:
		out.WriteString(rc.initialValueText(v.Expr))

	case *ir.TemplateLiteral:
		for _, p := range v.Parts {
			if p.Literal {
				out.WriteString(escapeText(p.Text))
			} else {
				out.WriteString(rc.initialValueText(p.Text))
			}
		}

	case *ir.Conditional:
		rc.renderConditional(out, v)

	case *ir.List:
		rc.renderList(out, v)

	case *ir.ChildComponent:
		// Obligation (S4): child markup renders inline via a nested
		// template invocation; the child's own data-bf-scope only
		// appears if the child is itself root-eligible, which is a
		// property of the child's compiled output, not this call site.
		fmt.Fprintf(out, `{{template "%s" %s}}`, v.Name, v.PropsExpr)

	case *ir.Fragment:
		for _, c := range v.Children {
			rc.renderNode(out, c, false, name)
		}
	}
}

func (rc *renderCtx) renderElement(out *strings.Builder, el *ir.Element, isRoot bool, name string) {
	fmt.Fprintf(out, "<%s", el.Tag)

	if isRoot {
		fmt.Fprintf(out, ` {{bfScope "%s"}}`, name)
	}
	if rc.addr[el.ID] {
		fmt.Fprintf(out, ` {{bfMark "%d"}}`, el.ID)
	}
	// el.Key (when set) is rendered by renderList's dedicated item-root
	// handling, which has the item/index parameter names this element's
	// key expression is scoped to; a list item never reaches this
	// generic path.

	for _, attr := range el.Attrs {
		rc.renderAttr(out, attr)
	}
	out.WriteString(">")

	for _, c := range el.Children {
		rc.renderNode(out, c, false, name)
	}

	fmt.Fprintf(out, "</%s>", el.Tag)

	if isRoot {
		// Obligation 5: sibling props script, for every component root.
		fmt.Fprintf(out, `{{bfPropsScript "%s" .}}`, name)
	}
}

// renderAttr implements obligation 9 (event handlers elided) and
// obligation 1/6 (static verbatim, dynamic best-effort initial value).
func (rc *renderCtx) renderAttr(out *strings.Builder, attr ir.Attribute) {
	switch attr.Class {
	case ir.AttrEvent, ir.AttrRef:
		return // client-only
	case ir.AttrStatic:
		fmt.Fprintf(out, ` %s="%s"`, attr.Name, escapeAttr(attr.Value))
	case ir.AttrDynamic:
		fmt.Fprintf(out, ` %s="%s"`, attr.Name, rc.initialValueText(attr.Value))
	case ir.AttrTemplateLiteral:
		out.WriteString(" " + attr.Name + `="`)
		if attr.Template != nil {
			for _, p := range attr.Template.Parts {
				if p.Literal {
					out.WriteString(escapeAttr(p.Text))
				} else {
					out.WriteString(rc.initialValueText(p.Text))
				}
			}
		}
		out.WriteString(`"`)
	}
}

// renderConditional implements obligation 8: a single-element branch on
// each side renders with a data-bf-cond switch target; any fragment
// branch makes the whole conditional render with comment markers
// instead, per §9's Open Question 2 (prefer the comment-pair form
// whenever any branch is a fragment, to keep the invariant uniform).
func (rc *renderCtx) renderConditional(out *strings.Builder, c *ir.Conditional) {
	id := fmt.Sprintf("%d", c.ID)
	anyFragment := ir.IsFragment(c.WhenTrue) || ir.IsFragment(c.WhenFalse)

	action := fmt.Sprintf(`{{if %s}}`, rc.condExprToAction(c.Cond))
	if anyFragment {
		fmt.Fprintf(out, `{{bfCondStart "%s"}}`, id)
		out.WriteString(action)
		rc.renderNode(out, c.WhenTrue, false, "")
		out.WriteString("{{else}}")
		rc.renderNode(out, c.WhenFalse, false, "")
		out.WriteString("{{end}}")
		fmt.Fprintf(out, `{{bfCondEnd "%s"}}`, id)
		return
	}

	out.WriteString(action)
	rc.renderSingleCondBranch(out, c.WhenTrue, id)
	out.WriteString("{{else}}")
	rc.renderSingleCondBranch(out, c.WhenFalse, id)
	out.WriteString("{{end}}")
}

func (rc *renderCtx) renderSingleCondBranch(out *strings.Builder, n ir.Node, condID string) {
	el, ok := n.(*ir.Element)
	if !ok {
		rc.renderNode(out, n, false, "")
		return
	}
	fmt.Fprintf(out, "<%s {{bfCond \"%s\"}}", el.Tag, condID)
	if rc.addr[el.ID] {
		fmt.Fprintf(out, ` {{bfMark "%d"}}`, el.ID)
	}
	for _, attr := range el.Attrs {
		rc.renderAttr(out, attr)
	}
	out.WriteString(">")
	for _, c := range el.Children {
		rc.renderNode(out, c, false, "")
	}
	fmt.Fprintf(out, "</%s>", el.Tag)
}

// renderList implements obligation 7: the array expression becomes a Go
// template range over the best-effort field it maps to, the item root
// gains data-key when keyed, and item-level events become
// data-event-id/data-index markers rather than attached handlers.
func (rc *renderCtx) renderList(out *strings.Builder, l *ir.List) {
	field := rc.jsExprToFieldAction(l.ArrayExpr)
	fmt.Fprintf(out, "{{range $i, $%s := %s}}", safeIdent(l.ItemParam), field)

	item, ok := l.Item.(*ir.Element)
	if !ok {
		rc.renderNode(out, l.Item, false, "")
		out.WriteString("{{end}}")
		return
	}

	fmt.Fprintf(out, "<%s", item.Tag)
	if l.KeyExpr != "" {
		fmt.Fprintf(out, ` {{bfKey %s}}`, rc.itemPipeline(l.KeyExpr, l.ItemParam, l.IndexParam))
	}
	eventIdx := 0
	for _, attr := range item.Attrs {
		if attr.Class == ir.AttrEvent {
			eid := fmt.Sprintf("%d-%d", l.ID, eventIdx)
			fmt.Fprintf(out, ` {{bfEventID "%s"}} {{bfIndex $i}}`, eid)
			eventIdx++
			continue
		}
		rc.renderAttr(out, attr)
	}
	out.WriteString(">")
	for _, c := range item.Children {
		rc.renderItemChild(out, c, l.ItemParam, l.IndexParam)
	}
	fmt.Fprintf(out, "</%s>", item.Tag)
	out.WriteString("{{end}}")
}

func (rc *renderCtx) renderItemChild(out *strings.Builder, n ir.Node, itemParam, indexParam string) {
	switch v := n.(type) {
	case *ir.Text:
		out.WriteString(escapeText(v.Value))
	case *ir.Interpolation:
		out.WriteString(rc.itemExprToAction(v.Expr, itemParam, indexParam))
	case *ir.TemplateLiteral:
		for _, p := range v.Parts {
			if p.Literal {
				out.WriteString(escapeText(p.Text))
			} else {
				out.WriteString(rc.itemExprToAction(p.Text, itemParam, indexParam))
			}
		}
	case *ir.Element:
		fmt.Fprintf(out, "<%s", v.Tag)
		for _, attr := range v.Attrs {
			if attr.Class == ir.AttrEvent {
				continue
			}
			rc.renderAttr(out, attr)
		}
		out.WriteString(">")
		for _, c := range v.Children {
			rc.renderItemChild(out, c, itemParam, indexParam)
		}
		fmt.Fprintf(out, "</%s>", v.Tag)
	default:
		rc.renderNode(out, n, false, "")
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*`)

// jsExprToFieldAction maps a JS array expression to the Go template
// field it most likely corresponds to: a matching prop name becomes
// ".PropName"; anything else falls back to ".Items", documented as a
// best-effort mapping (the compiler has no request-time type
// information to resolve arbitrary expressions to struct fields).
func (rc *renderCtx) jsExprToFieldAction(expr string) string {
	head := identPattern.FindString(strings.TrimSpace(expr))
	for _, p := range rc.props {
		if p.Name == head {
			return "." + capitalize(p.Name)
		}
	}
	return ".Items"
}

// itemPipeline rewrites a JS expression scoped to a list item
// (`item.field`, bare `item`, or `index`) into a bare Go template
// pipeline (`$item.Field`, `$item`, `$i`) suitable either for embedding
// in text as `{{pipeline}}` or for passing as an argument to another
// action.
func (rc *renderCtx) itemPipeline(expr, itemParam, indexParam string) string {
	expr = strings.TrimSpace(expr)
	if indexParam != "" && expr == indexParam {
		return "$i"
	}
	if itemParam != "" && expr == itemParam {
		return "$" + safeIdent(itemParam)
	}
	if itemParam != "" && strings.HasPrefix(expr, itemParam+".") {
		field := strings.TrimPrefix(expr, itemParam+".")
		return "$" + safeIdent(itemParam) + "." + capitalize(field)
	}
	return "" // unmapped expression, best effort
}

// itemExprToAction is itemPipeline wrapped as a standalone `{{...}}`
// text action.
func (rc *renderCtx) itemExprToAction(expr, itemParam, indexParam string) string {
	p := rc.itemPipeline(expr, itemParam, indexParam)
	if p == "" {
		return ""
	}
	return "{{" + p + "}}"
}

// condExprToAction renders a boolean condition expression as a Go
// template pipeline: prop references become `.Field`, everything else
// renders as a literal boolean-ish placeholder best effort.
func (rc *renderCtx) condExprToAction(expr string) string {
	head := identPattern.FindString(strings.TrimSpace(expr))
	for _, p := range rc.props {
		if p.Name == head {
			return "." + capitalize(p.Name)
		}
	}
	for _, s := range rc.signals {
		if s.Getter == head {
			return literalize(s.Init)
		}
	}
	return "true"
}

// initialValueText implements obligation 6: render a dynamic
// expression's initial value using signal initial values, prop values
// (as a live template reference, since those are known at render time),
// and server-only local variables.
func (rc *renderCtx) initialValueText(expr string) string {
	expr = strings.TrimSpace(expr)
	head := identPattern.FindString(expr)

	for _, p := range rc.props {
		if p.Name == head {
			if expr == head {
				return fmt.Sprintf("{{.%s}}", capitalize(p.Name))
			}
		}
	}
	for _, s := range rc.signals {
		if expr == s.Getter+"()" {
			return literalize(s.Init)
		}
	}
	for _, m := range rc.memos {
		if expr == m.Getter+"()" {
			return literalize(m.Expr)
		}
	}
	for _, lv := range rc.localVars {
		if expr == lv.Name {
			return literalize(lv.Text)
		}
	}
	for _, c := range rc.consts {
		if expr == c.Name {
			if v, ok := constValueText(c.Text); ok {
				return literalize(v)
			}
		}
	}
	return ""
}

// constValueText splits a module constant's full declaration text
// ("const NAME = <value>") at its first "=" to recover just the value
// expression, for literalize's best-effort literal rendering. Only
// string/number/boolean-literal constants render anything; anything
// else (objects, arrays, computed expressions) is not evaluated at
// compile time and falls back to "".
func constValueText(declText string) (string, bool) {
	idx := strings.Index(declText, "=")
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(declText[idx+1:]), true
}

var (
	stringLiteral = regexp.MustCompile(`^['"](.*)['"]$`)
	numberLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// literalize renders a JS expression as server-side text when it is a
// simple literal (string/number/boolean); anything else yields "",
// since the compiler does not evaluate arbitrary JS at compile time.
func literalize(expr string) string {
	expr = strings.TrimSpace(expr)
	if m := stringLiteral.FindStringSubmatch(expr); m != nil {
		return escapeText(m[1])
	}
	if numberLiteral.MatchString(expr) || expr == "true" || expr == "false" {
		return expr
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func safeIdent(s string) string {
	if s == "" {
		return "item"
	}
	return s
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", `"`, "&quot;")
	return r.Replace(s)
}
