package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barefootsplit/bfc/internal/analyze"
	"github.com/barefootsplit/bfc/internal/extract"
	"github.com/barefootsplit/bfc/internal/ir"
)

func TestGenerateServerComponent_CounterObligations(t *testing.T) {
	root := &ir.Element{
		ID:  1,
		Tag: "div",
		Children: []ir.Node{
			&ir.Element{ID: 2, Tag: "p", Attrs: []ir.Attribute{{Name: "class", Class: ir.AttrStatic, Value: "c"}},
				Children: []ir.Node{&ir.Interpolation{Expr: "n()"}}},
			&ir.Element{ID: 3, Tag: "button",
				Attrs:    []ir.Attribute{{Name: "onClick", Class: ir.AttrEvent, EventName: "click", Value: "() => setN(k => k + 1)"}},
				Children: []ir.Node{&ir.Text{Value: "+"}}},
		},
	}
	needs := analyze.Collect(root)
	in := &ComponentInput{
		Name:    "C",
		JSX:     root,
		Needs:   needs,
		Signals: []extract.Signal{{Getter: "n", Setter: "setN", Init: "0"}},
	}

	adapter := NewTemplateAdapter()
	out, err := adapter.GenerateServerComponent(in)
	require.NoError(t, err)

	require.Contains(t, out, `{{define "C"}}`)
	require.Contains(t, out, `{{bfScope "C"}}`)
	require.Contains(t, out, `class="c"`)
	require.Contains(t, out, ">0<")
	require.NotContains(t, out, "onClick")
	require.NotContains(t, out, "setN")
	require.Contains(t, out, `{{bfPropsScript "C" .}}`)
}

func TestGenerateServerComponent_InterpolationRendersModuleConstantLiteral(t *testing.T) {
	root := &ir.Element{
		ID:  1,
		Tag: "p",
		Children: []ir.Node{
			&ir.Interpolation{Expr: "GREETING"},
		},
	}
	needs := analyze.Collect(root)
	in := &ComponentInput{
		Name:            "C",
		JSX:             root,
		Needs:           needs,
		ModuleConstants: []*extract.Const{{Name: "GREETING", Text: `const GREETING = "hi"`}},
	}

	adapter := NewTemplateAdapter()
	out, err := adapter.GenerateServerComponent(in)
	require.NoError(t, err)
	require.Contains(t, out, ">hi<")
}

func TestRenderList_EmitsKeyAndEventDelegationMarkers(t *testing.T) {
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
	in := &ComponentInput{Name: "Todos", JSX: root, Needs: needs}

	adapter := NewTemplateAdapter()
	out, err := adapter.GenerateServerComponent(in)
	require.NoError(t, err)

	require.Contains(t, out, "{{range $i, $t := .Items}}")
	require.Contains(t, out, `{{bfKey $t.Id}}`)
	require.Contains(t, out, `{{bfEventID "5-0"}}`)
	require.Contains(t, out, `{{bfIndex $i}}`)
	require.NotContains(t, out, "remove(")
}

func TestRenderConditional_FragmentBranchUsesCommentMarkers(t *testing.T) {
	cond := &ir.Conditional{
		ID:       9,
		Cond:     "open",
		WhenTrue: &ir.Fragment{Children: []ir.Node{&ir.Element{ID: 2, Tag: "h1", Children: []ir.Node{&ir.Text{Value: "A"}}}}},
		WhenFalse: &ir.Element{ID: 3, Tag: "span", Cond: ir.CondWhenFalse, Children: []ir.Node{&ir.Text{Value: "C"}}},
	}
	root := &ir.Element{ID: 1, Tag: "div", Children: []ir.Node{cond}}
	needs := analyze.Collect(root)
	in := &ComponentInput{Name: "Status", JSX: root, Needs: needs, Props: []extract.Prop{{Name: "open"}}}

	adapter := NewTemplateAdapter()
	out, err := adapter.GenerateServerComponent(in)
	require.NoError(t, err)

	require.Contains(t, out, `{{bfCondStart "9"}}`)
	require.Contains(t, out, `{{bfCondEnd "9"}}`)
	require.Contains(t, out, "{{if .Open}}")
}
