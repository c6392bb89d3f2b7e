// Package connectivity computes the strongly and weakly connected components of a
// finished state graph. Only components with at least two nodes are reported.
package connectivity

import (
	"slices"

	"github.com/aretw0/passgraph/pkg/graph"
)

// Source is the read-only view of a graph the analyzer needs.
type Source interface {
	NodeCount() int
	Edges() []graph.Edge
	Successors(id graph.NodeID) []graph.NodeID
}

// Component is a set of node ids, sorted ascending.
type Component []graph.NodeID

// Report holds the components of a graph. Each list is ordered by the smallest
// member of its components.
type Report struct {
	Strong []Component
	Weak   []Component
}

// IsEmpty reports whether no multi-node component was found.
func (r Report) IsEmpty() bool {
	return len(r.Strong) == 0 && len(r.Weak) == 0
}

// StrongIndex returns the index of the strongly connected component holding id, or -1.
func (r Report) StrongIndex(id graph.NodeID) int {
	return indexOf(r.Strong, id)
}

// WeakIndex returns the index of the weakly connected component holding id, or -1.
func (r Report) WeakIndex(id graph.NodeID) int {
	return indexOf(r.Weak, id)
}

func indexOf(components []Component, id graph.NodeID) int {
	for i, c := range components {
		if _, found := slices.BinarySearch(c, id); found {
			return i
		}
	}
	return -1
}

// Analyze computes both component lists in time linear in nodes + edges.
// It never mutates the graph.
func Analyze(g Source) Report {
	n := g.NodeCount()
	if n == 0 {
		return Report{}
	}
	adj := make([][]graph.NodeID, n)
	for id := range adj {
		adj[id] = g.Successors(graph.NodeID(id))
	}

	return Report{
		Strong: filter(StronglyConnected(n, adj)),
		Weak:   filter(WeaklyConnected(n, g.Edges())),
	}
}

// StronglyConnected runs Tarjan's algorithm over an adjacency list of n nodes and
// returns every component, singletons included.
func StronglyConnected(n int, adj [][]graph.NodeID) []Component {
	t := &tarjan{
		adj:     adj,
		index:   make([]int, n),
		low:     make([]int, n),
		onStack: make([]bool, n),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for v := 0; v < n; v++ {
		if t.index[v] == -1 {
			t.visit(graph.NodeID(v))
		}
	}
	return t.components
}

type tarjan struct {
	adj        [][]graph.NodeID
	index      []int
	low        []int
	onStack    []bool
	stack      []graph.NodeID
	next       int
	components []Component
}

func (t *tarjan) visit(v graph.NodeID) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.adj[v] {
		switch {
		case t.index[w] == -1:
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		case t.onStack[w]:
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var comp Component
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, comp)
}

// WeaklyConnected groups n nodes by reachability ignoring edge direction.
// Singletons are included.
func WeaklyConnected(n int, edges []graph.Edge) []Component {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range edges {
		a, b := find(int(e.Source)), find(int(e.Target))
		if a != b {
			parent[max(a, b)] = min(a, b)
		}
	}

	groups := make(map[int]Component)
	var order []int
	for v := 0; v < n; v++ {
		r := find(v)
		if _, ok := groups[r]; !ok {
			order = append(order, r)
		}
		groups[r] = append(groups[r], graph.NodeID(v))
	}
	out := make([]Component, 0, len(order))
	for _, r := range order {
		out = append(out, groups[r])
	}
	return out
}

func filter(components []Component) []Component {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if len(c) < 2 {
			continue
		}
		slices.Sort(c)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Component) int {
		return int(a[0] - b[0])
	})
	return out
}
