package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddEdge_DropsSelfAndEmpty(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")
	g.AddEdge("", "b")
	g.AddEdge("a", "")
	require.Empty(t, g.Nodes())
}

func TestImpacted_TransitiveReverse(t *testing.T) {
	g := New()
	g.AddEdge("Page.tsx", "Layout.tsx")
	g.AddEdge("Layout.tsx", "Header.tsx")
	g.AddEdge("Sidebar.tsx", "Header.tsx")

	require.ElementsMatch(t, []string{"Page.tsx", "Layout.tsx", "Sidebar.tsx"}, g.Impacted("Header.tsx"))
	require.ElementsMatch(t, []string{"Page.tsx"}, g.Impacted("Layout.tsx"))
	require.Empty(t, g.Impacted("Page.tsx"))
}

func TestDependsOn_DetectsCycle(t *testing.T) {
	g := New()
	g.AddEdge("A.tsx", "B.tsx")
	g.AddEdge("B.tsx", "A.tsx")

	require.True(t, g.DependsOn("A.tsx", "B.tsx"))
	require.True(t, g.DependsOn("B.tsx", "A.tsx"))
	require.False(t, g.DependsOn("A.tsx", "C.tsx"))
}

func TestMarshalUnmarshalJSON_RoundTrips(t *testing.T) {
	g := New()
	g.AddEdge("Page.tsx", "Layout.tsx")
	g.AddEdge("Layout.tsx", "Header.tsx")
	g.Touch("Orphan.tsx")

	b, err := json.Marshal(g)
	require.NoError(t, err)

	got := New()
	require.NoError(t, json.Unmarshal(b, got))

	require.ElementsMatch(t, g.Nodes(), got.Nodes())
	require.ElementsMatch(t, []string{"Page.tsx"}, got.Impacted("Layout.tsx"))
	require.True(t, got.DependsOn("Page.tsx", "Header.tsx"))
}

func TestTouch_RegistersIsolatedNode(t *testing.T) {
	g := New()
	g.Touch("Leaf.tsx")
	require.Equal(t, []string{"Leaf.tsx"}, g.Nodes())
	require.Empty(t, g.Impacted("Leaf.tsx"))
}
