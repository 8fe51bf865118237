// Package client implements spec.md §4.6: for a component with any
// client obligation, assemble the hydration initializer body in its
// fixed ten-step order, plus the auto-hydration bootstrap snippet that
// locates and calls it.
package client

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/barefootsplit/bfc/internal/analyze"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

// Input is everything the initializer body needs: the component's
// signature, its IR, the analyzer's needs/paths, and the declarations a
// client projection must carry along (signals, memos, local functions,
// and the module constants the client side actually references).
type Input struct {
	Name            string
	Props           []extract.Prop
	JSX             ir.Node
	Needs           *analyze.Needs
	Paths           map[int]*analyze.Path
	Signals         []extract.Signal
	Memos           []extract.Memo
	LocalFunctions  []extract.LocalFunc
	ModuleConstants []*extract.Const
	ChildComponents []*ir.ChildComponent
	// IsRootEligible mirrors spec.md §4.6(a): true when the component has
	// props or instantiates children, meaning it needs the
	// init<Name>(props, instanceIndex, parentScope) function form rather
	// than bare top-level code.
	IsRootEligible bool
}

var boolAttrs = map[string]bool{
	"disabled": true, "checked": true, "hidden": true, "readonly": true,
	"required": true, "value": true,
}

var capturePhaseEvents = map[string]bool{
	"focus": true, "blur": true, "mouseenter": true, "mouseleave": true, "scroll": true,
}

// GenerateInitializer assembles one component's hydration script body,
// per spec.md §4.6's ten steps, and returns "" if the component has no
// client obligation at all.
func GenerateInitializer(in *Input) string {
	if in.Needs == nil || in.Needs.IsEmpty() {
		return ""
	}

	var body strings.Builder

	// Step 1: scope lookup.
	fmt.Fprintf(&body, "  const __matches = (parentScope ?? document).querySelectorAll('[data-bf-scope=\"%s\"]')\n", in.Name)
	body.WriteString("  const __scope = __matches[instanceIndex ?? 0]\n")

	// Step 2: element resolution, declared in ElementID order so a
	// shorter path's variable is always declared before the longer
	// path that chains off it (internal/analyze.Plan guarantees this).
	for _, id := range addressableIDs(in) {
		p := in.Paths[id]
		if p == nil {
			continue
		}
		fmt.Fprintf(&body, "  const __el%d = %s\n", id, p.String())
	}

	// Step 3: declarations.
	for _, c := range in.ModuleConstants {
		if c.ClientUsed {
			fmt.Fprintf(&body, "  %s\n", c.Text)
		}
	}
	for _, s := range in.Signals {
		fmt.Fprintf(&body, "  const [%s, %s] = createSignal(%s)\n", s.Getter, s.Setter, s.Init)
	}
	for _, m := range in.Memos {
		fmt.Fprintf(&body, "  const %s = createMemo(%s)\n", m.Getter, m.Expr)
	}
	for _, f := range in.LocalFunctions {
		body.WriteString("  " + declText(f) + "\n")
	}

	// Step 4: refs.
	for _, r := range in.Needs.Refs {
		fmt.Fprintf(&body, "  if (__el%d) { (%s)(__el%d) }\n", r.ElementID, r.Expr, r.ElementID)
	}

	// Step 5: reactive updaters.
	for _, d := range in.Needs.DynamicText {
		writeDynamicText(&body, d)
	}
	for _, d := range in.Needs.DynamicAttrs {
		writeDynamicAttr(&body, d)
	}

	// Step 6: lists.
	for _, l := range in.Needs.Lists {
		writeList(&body, l)
	}

	// Step 7: conditionals.
	for _, c := range in.Needs.Conditionals {
		writeConditional(&body, c.Cond)
	}

	// Step 8: event delegation for list items.
	for _, l := range in.Needs.Lists {
		writeListEventDelegation(&body, l)
	}

	// Step 9: direct event handlers.
	for _, ev := range in.Needs.Interactive {
		writeDirectHandlers(&body, ev)
	}

	// Step 10: child-component inits.
	childInstanceIndex := map[string]int{}
	for _, ci := range in.Needs.ChildInstance {
		writeChildInit(&body, ci.Child, childInstanceIndex)
	}

	if !in.IsRootEligible {
		return body.String()
	}
	return fmt.Sprintf("function init%s(props, instanceIndex, parentScope) {\n%s}\n", in.Name, body.String())
}

// Bootstrap emits the auto-hydration snippet for one root-eligible
// component, per spec.md §4.6's closing code block.
func Bootstrap(name string) string {
	return fmt.Sprintf(`const el = document.querySelector('[data-bf-scope="%s"]')
if (el && !el.parentElement?.closest('[data-bf-scope]')) {
  const propsEl = document.querySelector('script[data-bf-props="%s"]')
  const props = propsEl ? JSON.parse(propsEl.textContent || '{}') : {}
  init%s(props)
}
`, name, name, name)
}

// addressableIDs returns every element id that needs a local binding in
// step 2, sorted ascending (construction order, which internal/analyze's
// Plan also guarantees is dependency order for path chaining):
// interactive, dynamic-text, dynamic-attr, and ref elements, plus each
// list's enclosing element (the reconciler/innerHTML mount point).
// Conditional branch roots need no binding: writeConditional locates
// them at update time via the scope-relative comment walk or
// data-bf-cond query, never through a declared variable.
func addressableIDs(in *Input) []int {
	set := map[int]bool{}
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
	for _, l := range in.Needs.Lists {
		set[l.ElementID] = true
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func declText(f extract.LocalFunc) string {
	if strings.HasPrefix(strings.TrimSpace(f.Text), "function") {
		return f.Text
	}
	return "const " + f.Text
}

func writeDynamicText(body *strings.Builder, d analyze.DynamicTextNeed) {
	expr := textExprOf(d.Node)
	fmt.Fprintf(body, "  createEffect(() => { __el%d.textContent = String(%s) })\n", d.ElementID, expr)
}

// textExprOf returns the JS expression text that produces a dynamic
// text node's live value: an Interpolation's expression directly, or a
// template-literal rebuilt as a JS template string so its literal and
// expression parts interleave the same way they did in source.
func textExprOf(n ir.Node) string {
	switch v := n.(type) {
	case *ir.Interpolation:
		return v.Expr
	case *ir.TemplateLiteral:
		var sb strings.Builder
		sb.WriteString("`")
		for _, p := range v.Parts {
			if p.Literal {
				sb.WriteString(p.Text)
			} else {
				sb.WriteString("${" + p.Text + "}")
			}
		}
		sb.WriteString("`")
		return sb.String()
	default:
		return ""
	}
}

func writeDynamicAttr(body *strings.Builder, d analyze.DynamicAttrNeed) {
	expr := d.Attr.Value
	if d.Attr.Class == ir.AttrTemplateLiteral {
		expr = textExprOf(d.Attr.Template)
	}
	el := fmt.Sprintf("__el%d", d.ElementID)
	switch {
	case d.Attr.Name == "class" || d.Attr.Name == "className":
		fmt.Fprintf(body, "  createEffect(() => { %s.className = String(%s) })\n", el, expr)
	case d.Attr.Name == "style" && looksLikeObjectLiteral(expr):
		fmt.Fprintf(body, "  createEffect(() => { Object.assign(%s.style, %s) })\n", el, expr)
	case d.Attr.Name == "style":
		fmt.Fprintf(body, "  createEffect(() => { %s.style.cssText = String(%s) })\n", el, expr)
	case boolAttrs[d.Attr.Name]:
		fmt.Fprintf(body, "  createEffect(() => { %s.%s = %s })\n", el, d.Attr.Name, expr)
	default:
		fmt.Fprintf(body, "  createEffect(() => { %s.setAttribute(%q, String(%s)) })\n", el, d.Attr.Name, expr)
	}
}

func looksLikeObjectLiteral(expr string) bool {
	t := strings.TrimSpace(expr)
	return strings.HasPrefix(t, "{")
}

// writeList emits step 6: a keyed list calls the reconciler, an unkeyed
// list assigns innerHTML to the mapped-and-joined item HTML. The target
// DOM node is the list's nearest enclosing element, resolved in step 2.
func writeList(body *strings.Builder, n analyze.ListNeed) {
	l := n.List
	root := fmt.Sprintf("__el%d", n.ElementID)
	itemTemplate := itemTemplateJS(l)
	if l.KeyExpr != "" {
		keyFn := fmt.Sprintf("(%s) => %s", l.ItemParam, l.KeyExpr)
		fmt.Fprintf(body, "  createEffect(() => { reconcileList(%s, %s, %s, %s) })\n",
			root, l.ArrayExpr, itemTemplate, keyFn)
		return
	}
	indexParam := l.IndexParam
	if indexParam == "" {
		indexParam = "__i"
	}
	fmt.Fprintf(body, "  createEffect(() => { %s.innerHTML = %s.map((%s, %s) => %s).join('') })\n",
		root, l.ArrayExpr, l.ItemParam, indexParam, itemTemplate)
}

// itemTemplateJS renders the list item as a JS template literal string
// producing that item's HTML, with the same `${...}` substitution for
// dynamic parts that textExprOf uses for ordinary dynamic text, so the
// reconciler and the innerHTML fallback both receive real markup.
func itemTemplateJS(l *ir.List) string {
	el, ok := l.Item.(*ir.Element)
	if !ok {
		return "() => ''"
	}
	var sb strings.Builder
	sb.WriteString("`<" + el.Tag)
	if l.KeyExpr != "" {
		sb.WriteString(fmt.Sprintf(` data-key="${%s}"`, l.KeyExpr))
	}
	// Only the item root's event attributes are marked: each one adds its
	// own data-event-id attribute to the root tag. Event attributes on
	// nested item elements are not rendered (writeItemChildrenJS drops all
	// nested attributes) and are not delegated.
	eventIdx := 0
	for _, a := range el.Attrs {
		switch a.Class {
		case ir.AttrEvent:
			eid := fmt.Sprintf("%d-%d", l.ID, eventIdx)
			sb.WriteString(fmt.Sprintf(` data-event-id="%s"`, eid))
			eventIdx++
		case ir.AttrStatic:
			sb.WriteString(fmt.Sprintf(` %s="%s"`, a.Name, a.Value))
		case ir.AttrDynamic:
			sb.WriteString(fmt.Sprintf(` %s="${%s}"`, a.Name, a.Value))
		case ir.AttrTemplateLiteral:
			sb.WriteString(fmt.Sprintf(` %s="%s"`, a.Name, textExprOf(a.Template)))
		}
	}
	if l.IndexParam != "" || eventIdx > 0 {
		idx := l.IndexParam
		if idx == "" {
			idx = "__i"
		}
		sb.WriteString(fmt.Sprintf(` data-index="${%s}"`, idx))
	}
	sb.WriteString(">")
	writeItemChildrenJS(&sb, el.Children)
	sb.WriteString("</" + el.Tag + ">`")
	indexParam := l.IndexParam
	if indexParam == "" {
		indexParam = "__i"
	}
	return fmt.Sprintf("(%s, %s) => %s", l.ItemParam, indexParam, sb.String())
}

func writeItemChildrenJS(sb *strings.Builder, nodes []ir.Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ir.Text:
			sb.WriteString(v.Value)
		case *ir.Interpolation:
			sb.WriteString("${" + v.Expr + "}")
		case *ir.TemplateLiteral:
			for _, p := range v.Parts {
				if p.Literal {
					sb.WriteString(p.Text)
				} else {
					sb.WriteString("${" + p.Text + "}")
				}
			}
		case *ir.Element:
			sb.WriteString("<" + v.Tag + ">")
			writeItemChildrenJS(sb, v.Children)
			sb.WriteString("</" + v.Tag + ">")
		}
	}
}

// writeConditional emits step 7. Fragment branches swap the region
// between the bf-cond-start/end comment markers; single-element
// branches replace the element outright via replaceWith, and the code
// tolerates either form currently being present in the DOM (the server
// emitter prefers the comment-pair form whenever either branch is a
// fragment, per spec.md §9, so in practice only one form appears per
// conditional, but the client switcher does not assume which).
func writeConditional(body *strings.Builder, c *ir.Conditional) {
	trueHTML := branchHTML(c.WhenTrue)
	falseHTML := branchHTML(c.WhenFalse)
	fmt.Fprintf(body, `  createEffect(() => {
    const __html = (%s) ? %s : %s
    const __startId = "%d"
    let __s = null, __e = null
    const __walker = document.createTreeWalker(__scope, NodeFilter.SHOW_COMMENT)
    while (__walker.nextNode()) {
      const node = __walker.currentNode
      if (node.nodeValue === "bf-cond-start:" + __startId) __s = node
      if (node.nodeValue === "bf-cond-end:" + __startId) __e = node
    }
    if (__s && __e) {
      while (__s.nextSibling && __s.nextSibling !== __e) __s.nextSibling.remove()
      const __tpl = document.createElement('template')
      __tpl.innerHTML = __html
      __e.before(...__tpl.content.childNodes)
      return
    }
    const __cur = __scope.querySelector('[data-bf-cond="%d"]')
    if (__cur) {
      const __tpl = document.createElement('template')
      __tpl.innerHTML = __html
      __cur.replaceWith(...__tpl.content.childNodes)
    }
  })
`, c.Cond, trueHTML, falseHTML, c.ID, c.ID)
}

// branchHTML renders a conditional branch as a JS template-literal
// expression producing that branch's markup.
func branchHTML(n ir.Node) string {
	switch v := n.(type) {
	case *ir.Element:
		var sb strings.Builder
		sb.WriteString("`<" + v.Tag + ">")
		writeItemChildrenJS(&sb, v.Children)
		sb.WriteString("</" + v.Tag + ">`")
		return sb.String()
	case *ir.Fragment:
		var sb strings.Builder
		sb.WriteString("`")
		writeItemChildrenJS(&sb, v.Children)
		sb.WriteString("`")
		return sb.String()
	default:
		return "``"
	}
}

// delegatedEvent is one item-level event handler awaiting its delegated
// listener, keyed by the data-event-id itemTemplateJS gave its element.
type delegatedEvent struct {
	eventID string
	body    string
}

// writeListEventDelegation emits step 8: one capture-or-bubble listener
// per distinct event name among the item root's event attributes,
// attached to the list root. The listener dispatches on the data-event-id
// of the closest marked ancestor of the event target. Only the item root
// is marked, so event attributes on nested item elements get no handler.
func writeListEventDelegation(body *strings.Builder, n analyze.ListNeed) {
	l := n.List
	el, ok := l.Item.(*ir.Element)
	if !ok {
		return
	}
	root := fmt.Sprintf("__el%d", n.ElementID)
	indexParam := l.IndexParam
	if indexParam == "" {
		indexParam = "__i"
	}

	order := []string{}
	byName := map[string][]delegatedEvent{}
	eventIdx := 0
	for _, a := range el.Attrs {
		if a.Class != ir.AttrEvent {
			continue
		}
		eid := fmt.Sprintf("%d-%d", l.ID, eventIdx)
		eventIdx++
		if _, ok := byName[a.EventName]; !ok {
			order = append(order, a.EventName)
		}
		byName[a.EventName] = append(byName[a.EventName], delegatedEvent{eid, handlerAsStatement(a.Value)})
	}

	for _, name := range order {
		phase := "false"
		if capturePhaseEvents[name] {
			phase = "true"
		}
		fmt.Fprintf(body, `  %s.addEventListener("%s", (ev) => {
    const __target = ev.target.closest('[data-event-id]')
    if (!__target || !%s.contains(__target)) return
    const %s = Number(__target.getAttribute('data-index'))
    const %s = %s[%s]
    switch (__target.getAttribute('data-event-id')) {
`, root, name, root, indexParam, l.ItemParam, l.ArrayExpr, indexParam)
		for _, ev := range byName[name] {
			fmt.Fprintf(body, "      case %q: %s; break\n", ev.eventID, ev.body)
		}
		fmt.Fprintf(body, "    }\n  }, %s)\n", phase)
	}
}

// writeDirectHandlers emits step 9: each event attribute on a
// non-list-item element is assigned to el.on<Name>.
func writeDirectHandlers(body *strings.Builder, n analyze.InteractiveNeed) {
	for _, a := range n.Events {
		fmt.Fprintf(body, "  __el%d.on%s = %s\n", n.ElementID, a.EventName, handlerAsValue(a.Value))
	}
}

// handlerAsValue returns an expression suitable for direct assignment to
// el.on<Name>: the handler expression as written (an arrow function or a
// bare function reference both work unchanged), except a `cond &&
// action()` body, which is rewritten to `(ev) => { if (cond) { action() } }`
// (spec.md §4.6 step 9) so a falsy && result doesn't get returned from
// the handler and suppress default behavior.
func handlerAsValue(expr string) string {
	e := strings.TrimSpace(expr)
	if cond, action, ok := splitLogicalAnd(e); ok {
		return fmt.Sprintf("(ev) => { if (%s) { %s } }", cond, action)
	}
	return e
}

// handlerAsStatement returns a statement that executes a list-item
// handler's effect inline, for the delegated listener body where the
// item parameter has already been rebound locally: the same `cond &&
// action()` rewrite as handlerAsValue, or a direct call of the handler
// expression otherwise.
func handlerAsStatement(expr string) string {
	e := strings.TrimSpace(expr)
	if cond, action, ok := splitLogicalAnd(e); ok {
		return fmt.Sprintf("if (%s) { %s }", cond, action)
	}
	return fmt.Sprintf("(%s)(ev)", e)
}

// splitLogicalAnd finds a top-level `&&` (not nested inside parens or
// brackets) and splits expr around it.
func splitLogicalAnd(expr string) (left, right string, ok bool) {
	depth := 0
	for i := 0; i < len(expr)-1; i++ {
		switch expr[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth == 0 && expr[i] == '&' && expr[i+1] == '&' {
			return strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[i+2:]), true
		}
	}
	return "", "", false
}

// writeChildInit emits step 10: one init call per child-component
// instance, passing its props expression, a per-(parent, child-name)
// instance counter, and __scope as the parent scope.
func writeChildInit(body *strings.Builder, c *ir.ChildComponent, counters map[string]int) {
	idx := counters[c.Name]
	counters[c.Name] = idx + 1
	fmt.Fprintf(body, "  init%s(%s, %s, __scope)\n", c.Name, c.PropsExpr, strconv.Itoa(idx))
}
