// Package graph is the component dependency graph the compiler driver
// (spec.md §4.1, §5) records instantiation edges in and the "graph" CLI
// command answers impact queries from. Cycle detection does not use it:
// the driver tracks its own in-progress set. Nodes are component keys
// ("<path>" or "<path>#<Name>"), edges are "this component's JSX
// instantiates that component".
package graph

import (
	"encoding/json"
	"sort"
)

// Graph is a directed graph of component-key nodes.
type Graph struct {
	// edges[a] is the set of components a instantiates.
	edges map[string]map[string]struct{}

	// reverse[b] is the set of components that instantiate b.
	reverse map[string]map[string]struct{}
}

func New() *Graph {
	return &Graph{
		edges:   make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// AddEdge records that from instantiates to. A self-edge is dropped: a
// component cannot be its own child within the same render.
func (g *Graph) AddEdge(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}

	if _, ok := g.edges[from]; !ok {
		g.edges[from] = make(map[string]struct{})
	}
	g.edges[from][to] = struct{}{}

	if _, ok := g.reverse[to]; !ok {
		g.reverse[to] = make(map[string]struct{})
	}
	g.reverse[to][from] = struct{}{}
}

// Touch ensures n exists as a node even if it has no edges yet, so a
// component with no children still appears in Nodes().
func (g *Graph) Touch(n string) {
	if n == "" {
		return
	}
	if _, ok := g.edges[n]; !ok {
		g.edges[n] = make(map[string]struct{})
	}
	if _, ok := g.reverse[n]; !ok {
		g.reverse[n] = make(map[string]struct{})
	}
}

// Nodes returns every node added by Touch or appearing as either
// endpoint of an edge, sorted for stable output.
func (g *Graph) Nodes() []string {
	seen := map[string]struct{}{}
	for node := range g.edges {
		seen[node] = struct{}{}
	}
	for node := range g.reverse {
		seen[node] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for node := range seen {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}

// DependsOn reports whether to is reachable from from by following edges
// forward (from instantiates ... instantiates to, transitively). The
// compiler driver does not call it; its cycle check uses its own
// in-progress set.
func (g *Graph) DependsOn(from, to string) bool {
	visited := map[string]bool{}
	var dfs func(n string) bool
	dfs = func(n string) bool {
		if n == to {
			return true
		}
		if visited[n] {
			return false
		}
		visited[n] = true
		for next := range g.edges[n] {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

// Impacted returns every node that directly or indirectly instantiates
// start, i.e. "if start's render output changes, which components need
// recompiling". Walks the reverse adjacency map.
func (g *Graph) Impacted(start string) []string {
	visited := map[string]bool{}
	var dfs func(n string)
	dfs = func(node string) {
		preds, ok := g.reverse[node]
		if !ok {
			return
		}
		for predecessor := range preds {
			if !visited[predecessor] {
				visited[predecessor] = true
				dfs(predecessor)
			}
		}
	}

	dfs(start)
	out := make([]string, 0, len(visited))
	for node := range visited {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}

// jsonEdge is the wire shape of one edge in MarshalJSON/UnmarshalJSON.
type jsonEdge struct{ From, To string }

// MarshalJSON renders the graph as {nodes, edges} for the manifest and
// for the "graph" CLI command's --manifest file.
func (g *Graph) MarshalJSON() ([]byte, error) {
	edges := []jsonEdge{}
	for from, tos := range g.edges {
		for to := range tos {
			edges = append(edges, jsonEdge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return json.Marshal(struct {
		Nodes []string   `json:"nodes"`
		Edges []jsonEdge `json:"edges"`
	}{
		Nodes: g.Nodes(),
		Edges: edges,
	})
}

// UnmarshalJSON rebuilds a Graph from MarshalJSON's {nodes, edges}
// shape, so the "graph" CLI command can load a manifest a previous
// "compile" run wrote and answer --impacted queries against it without
// re-parsing any source.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var wire struct {
		Nodes []string   `json:"nodes"`
		Edges []jsonEdge `json:"edges"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	g.edges = make(map[string]map[string]struct{})
	g.reverse = make(map[string]map[string]struct{})
	for _, n := range wire.Nodes {
		g.Touch(n)
	}
	for _, e := range wire.Edges {
		g.AddEdge(e.From, e.To)
	}
	return nil
}
