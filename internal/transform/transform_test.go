package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barefootsplit/bfc/internal/diag"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

func extractOne(t *testing.T, path string, src []byte) (*extract.Component, []byte) {
	t.Helper()
	var bag diag.Bag
	fi := extract.ExtractFile(path, src, &bag)
	require.NotNil(t, fi)
	require.Empty(t, bag.All())
	require.Len(t, fi.Components, 1)
	return fi.Components[0], src
}

func newCtx(c *extract.Component, src []byte) *Context {
	bag := &diag.Bag{}
	return &Context{
		Src:      src,
		Path:     c.FilePath,
		Alloc:    &IDAllocator{},
		Reactive: NewReactive(c),
		Resolve:  func(head string) (string, bool) { return head, true },
		Bag:      bag,
	}
}

func TestTransform_StaticAndDynamicAttrs(t *testing.T) {
	src := []byte(`
export function Counter({ label }) {
	const [n, setN] = createSignal(0)
	return (
		<div class="card" data-count={n()}>
			<p>{n()}</p>
		</div>
	)
}
`)
	c, src := extractOne(t, "Counter.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root, ok := node.(*ir.Element)
	require.True(t, ok)
	require.Equal(t, "div", root.Tag)
	require.Len(t, root.Attrs, 2)
	require.Equal(t, "class", root.Attrs[0].Name)
	require.Equal(t, ir.AttrStatic, root.Attrs[0].Class)
	require.Equal(t, "card", root.Attrs[0].Value)
	require.Equal(t, "data-count", root.Attrs[1].Name)
	require.Equal(t, ir.AttrDynamic, root.Attrs[1].Class)

	require.Len(t, root.Children, 1)
	p, ok := root.Children[0].(*ir.Element)
	require.True(t, ok)
	require.Equal(t, "p", p.Tag)
	require.Len(t, p.Children, 1)
	_, ok = p.Children[0].(*ir.Interpolation)
	require.True(t, ok)
}

func TestTransform_EventAttributeClassifiedAndNamed(t *testing.T) {
	src := []byte(`
export function Btn() {
	const [n, setN] = createSignal(0)
	return <button onClick={() => setN(n() + 1)}>+</button>
}
`)
	c, src := extractOne(t, "Btn.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	require.Equal(t, "button", root.Tag)
	require.Len(t, root.Attrs, 1)
	require.Equal(t, ir.AttrEvent, root.Attrs[0].Class)
	require.Equal(t, "click", root.Attrs[0].EventName)
}

func TestTransform_TernaryBuildsConditional(t *testing.T) {
	src := []byte(`
export function Status({ ok }) {
	return <div>{ok ? <span>yes</span> : <span>no</span>}</div>
}
`)
	c, src := extractOne(t, "Status.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	require.Len(t, root.Children, 1)
	cond, ok := root.Children[0].(*ir.Conditional)
	require.True(t, ok)
	require.Equal(t, "ok", cond.Cond)

	trueEl, ok := cond.WhenTrue.(*ir.Element)
	require.True(t, ok)
	require.Equal(t, ir.CondWhenTrue, trueEl.Cond)

	falseEl, ok := cond.WhenFalse.(*ir.Element)
	require.True(t, ok)
	require.Equal(t, ir.CondWhenFalse, falseEl.Cond)
}

func TestTransform_TernaryWithFragmentBranchMarksNestedElements(t *testing.T) {
	src := []byte(`
export function Panel({ ok }) {
	const [n, setN] = createSignal(0)
	return <div>{ok ? <><h1>{n()}</h1><p>B</p></> : <span>C</span>}</div>
}
`)
	c, src := extractOne(t, "Panel.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	cond := root.Children[0].(*ir.Conditional)

	frag, ok := cond.WhenTrue.(*ir.Fragment)
	require.True(t, ok)
	require.Len(t, frag.Children, 2)

	h1, ok := frag.Children[0].(*ir.Element)
	require.True(t, ok)
	require.Equal(t, ir.CondWhenTrue, h1.Cond)

	p, ok := frag.Children[1].(*ir.Element)
	require.True(t, ok)
	require.Equal(t, ir.CondWhenTrue, p.Cond)

	falseEl, ok := cond.WhenFalse.(*ir.Element)
	require.True(t, ok)
	require.Equal(t, ir.CondWhenFalse, falseEl.Cond)
}

func TestTransform_LogicalAndHasEmptyFalseBranch(t *testing.T) {
	src := []byte(`
export function Maybe({ show }) {
	return <div>{show && <span>hi</span>}</div>
}
`)
	c, src := extractOne(t, "Maybe.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	cond := root.Children[0].(*ir.Conditional)
	require.Equal(t, "show", cond.Cond)
	require.True(t, ir.IsFragment(cond.WhenFalse))
}

func TestTransform_ListWithKeyMarksItemsInList(t *testing.T) {
	src := []byte(`
export function Items({ rows }) {
	return (
		<ul>
			{rows.map((row, i) => <li key={row.id}>{row.label}</li>)}
		</ul>
	)
}
`)
	c, src := extractOne(t, "Items.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	require.Len(t, root.Children, 1)
	list, ok := root.Children[0].(*ir.List)
	require.True(t, ok)
	require.Equal(t, "rows", list.ArrayExpr)
	require.Equal(t, "row", list.ItemParam)
	require.Equal(t, "i", list.IndexParam)
	require.Equal(t, "row.id", list.KeyExpr)

	item, ok := list.Item.(*ir.Element)
	require.True(t, ok)
	require.True(t, item.InList)
	require.Equal(t, "li", item.Tag)
}

func TestTransform_ChildComponentElidesEventProps(t *testing.T) {
	src := []byte(`
export function Parent() {
	return <Child name="a" onClick={() => {}} />
}
`)
	c, src := extractOne(t, "Parent.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	child, ok := node.(*ir.ChildComponent)
	require.True(t, ok)
	require.Equal(t, "Child", child.Name)
	require.True(t, child.HasEventProps)
	require.Contains(t, child.PropsExpr, "name:")
	require.NotContains(t, child.PropsExpr, "onClick")
}

func TestTransform_TemplateLiteralAttribute(t *testing.T) {
	src := []byte(`
export function Tag({ id }) {
	return <div class={` + "`item-${id}`" + `} />
}
`)
	c, src := extractOne(t, "Tag.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	require.Len(t, root.Attrs, 1)
	require.Equal(t, ir.AttrTemplateLiteral, root.Attrs[0].Class)
	require.NotNil(t, root.Attrs[0].Template)
	require.Len(t, root.Attrs[0].Template.Parts, 2)
	require.True(t, root.Attrs[0].Template.Parts[0].Literal)
	require.Equal(t, "item-", root.Attrs[0].Template.Parts[0].Text)
	require.False(t, root.Attrs[0].Template.Parts[1].Literal)
	require.Equal(t, "id", root.Attrs[0].Template.Parts[1].Text)
}

func TestTransform_MixedTextAndExpressionBecomesTemplateLiteral(t *testing.T) {
	src := []byte(`
export function Hello({ name }) {
	return <p>Hello, {name}!</p>
}
`)
	c, src := extractOne(t, "Hello.tsx", src)
	ctx := newCtx(c, src)
	node := Transform(ctx, c.JSXReturn)

	root := node.(*ir.Element)
	require.Len(t, root.Children, 1)
	tl, ok := root.Children[0].(*ir.TemplateLiteral)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(tl.Parts), 3)
}
