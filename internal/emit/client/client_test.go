package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barefootsplit/bfc/internal/analyze"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

func TestGenerateInitializer_EmptyNeedsYieldsNoScript(t *testing.T) {
	root := &ir.Element{ID: 1, Tag: "div", Children: []ir.Node{&ir.Text{Value: "static"}}}
	needs := analyze.Collect(root)
	paths := analyze.Plan(root)
	out := GenerateInitializer(&Input{Name: "Static", JSX: root, Needs: needs, Paths: paths})
	require.Equal(t, "", out)
}

func TestGenerateInitializer_CounterStepOrderAndForms(t *testing.T) {
	root := &ir.Element{
		ID:  1,
		Tag: "div",
		Children: []ir.Node{
			&ir.Element{ID: 2, Tag: "p", Children: []ir.Node{&ir.Interpolation{Expr: "n()"}}},
			&ir.Element{
				ID:  3,
				Tag: "button",
				Attrs: []ir.Attribute{
					{Name: "onClick", Class: ir.AttrEvent, EventName: "click", Value: "() => setN(k => k + 1)"},
				},
				Children: []ir.Node{&ir.Text{Value: "+"}},
			},
		},
	}
	needs := analyze.Collect(root)
	paths := analyze.Plan(root)
	in := &Input{
		Name:           "Counter",
		JSX:            root,
		Needs:          needs,
		Paths:          paths,
		Signals:        []extract.Signal{{Getter: "n", Setter: "setN", Init: "0"}},
		IsRootEligible: false,
	}
	out := GenerateInitializer(in)

	require.Contains(t, out, `const __matches = (parentScope ?? document).querySelectorAll('[data-bf-scope="Counter"]')`)
	require.Contains(t, out, "const __scope = __matches[instanceIndex ?? 0]")
	require.Contains(t, out, "const __el2 = __scope.firstElementChild")
	require.Contains(t, out, "const __el3 = __el2.nextElementSibling")
	require.Contains(t, out, "const [n, setN] = createSignal(0)")
	require.Contains(t, out, "createEffect(() => { __el2.textContent = String(n()) })")
	require.Contains(t, out, "__el3.onclick = () => setN(k => k + 1)")

	elIdx := indexOf(out, "const __el2")
	sigIdx := indexOf(out, "createSignal")
	effectIdx := indexOf(out, "createEffect")
	handlerIdx := indexOf(out, "__el3.onclick")
	require.True(t, elIdx < sigIdx)
	require.True(t, sigIdx < effectIdx)
	require.True(t, effectIdx < handlerIdx)
}

func TestGenerateInitializer_RootEligibleWrapsInitFunction(t *testing.T) {
	root := &ir.Element{
		ID:  1,
		Tag: "div",
		Attrs: []ir.Attribute{
			{Name: "data-n", Class: ir.AttrDynamic, Value: "count"},
		},
	}
	needs := analyze.Collect(root)
	paths := analyze.Plan(root)
	out := GenerateInitializer(&Input{Name: "Badge", JSX: root, Needs: needs, Paths: paths, IsRootEligible: true})
	require.Contains(t, out, "function initBadge(props, instanceIndex, parentScope) {")
	require.Contains(t, out, `__el1.setAttribute("data-n", String(count))`)
}

func TestGenerateInitializer_GuardedHandlerRewritesToIfStatement(t *testing.T) {
	root := &ir.Element{
		ID:  1,
		Tag: "button",
		Attrs: []ir.Attribute{
			{Name: "onClick", Class: ir.AttrEvent, EventName: "click", Value: "open && close()"},
		},
	}
	needs := analyze.Collect(root)
	paths := analyze.Plan(root)
	out := GenerateInitializer(&Input{Name: "X", JSX: root, Needs: needs, Paths: paths})
	require.Contains(t, out, "__el1.onclick = (ev) => { if (open) { close() } }")
}

func TestGenerateInitializer_KeyedListUsesReconcilerAndDelegation(t *testing.T) {
	item := &ir.Element{
		ID:  2,
		Tag: "li",
		Key: "t.id",
		Attrs: []ir.Attribute{
			{Name: "onClick", Class: ir.AttrEvent, EventName: "click", Value: "() => remove(t.id)"},
		},
		Children: []ir.Node{&ir.Interpolation{Expr: "t.text"}},
		InList:   true,
	}
	list := &ir.List{ID: 5, ArrayExpr: "todos", ItemParam: "t", KeyExpr: "t.id", Item: item}
	root := &ir.Element{ID: 1, Tag: "ul", Children: []ir.Node{list}}

	needs := analyze.Collect(root)
	paths := analyze.Plan(root)
	out := GenerateInitializer(&Input{Name: "Todos", JSX: root, Needs: needs, Paths: paths})

	require.Contains(t, out, "const __el1 = __scope")
	require.Contains(t, out, "reconcileList(__el1, todos,")
	require.Contains(t, out, `data-key="${t.id}"`)
	require.Contains(t, out, `data-event-id="5-0"`)
	require.Contains(t, out, `ev.target.closest('[data-event-id]')`)
	require.Contains(t, out, "const t = todos[__i]")
	require.Contains(t, out, `case "5-0": (() => remove(t.id))(ev); break`)
}

func TestBootstrap_RendersHydrationSnippet(t *testing.T) {
	out := Bootstrap("Counter")
	require.Contains(t, out, `document.querySelector('[data-bf-scope="Counter"]')`)
	require.Contains(t, out, "initCounter(props)")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
