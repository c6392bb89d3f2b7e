package connectivity_test

import (
	"testing"

	"github.com/aretw0/passgraph/pkg/connectivity"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build creates n nodes and the given edges (all labeled "t").
func build(t *testing.T, n int, edges ...[2]graph.NodeID) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i := 0; i < n; i++ {
		_, err := g.AddNode(domain.Representation{Path: string(rune('A' + i))}, graph.NoParent, "")
		require.NoError(t, err)
	}
	for _, e := range edges {
		require.NoError(t, g.AddOrMergeEdge(e[0], e[1], "t"))
	}
	return g
}

func TestAnalyze_CycleWithPendant(t *testing.T) {
	// A→B→C→A plus C→D
	const A, B, C, D = 0, 1, 2, 3
	g := build(t, 4, [2]graph.NodeID{A, B}, [2]graph.NodeID{B, C}, [2]graph.NodeID{C, A}, [2]graph.NodeID{C, D})
	g.Freeze()

	report := connectivity.Analyze(g)

	assert.Equal(t, []connectivity.Component{{A, B, C}}, report.Strong)
	assert.Equal(t, []connectivity.Component{{A, B, C, D}}, report.Weak)
	assert.Equal(t, -1, report.StrongIndex(D))
	assert.Equal(t, 0, report.StrongIndex(B))
	assert.Equal(t, 0, report.WeakIndex(D))
}

func TestAnalyze_Tables(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		edges  [][2]graph.NodeID
		strong []connectivity.Component
		weak   []connectivity.Component
	}{
		{
			name:   "Empty graph",
			n:      0,
			strong: nil,
			weak:   nil,
		},
		{
			name:   "Single root",
			n:      1,
			strong: []connectivity.Component{},
			weak:   []connectivity.Component{},
		},
		{
			name:   "Self loop is not a component",
			n:      2,
			edges:  [][2]graph.NodeID{{0, 0}, {0, 1}},
			strong: []connectivity.Component{},
			weak:   []connectivity.Component{{0, 1}},
		},
		{
			name:  "Two disjoint cycles joined one way",
			n:     7,
			edges: [][2]graph.NodeID{{0, 1}, {1, 0}, {1, 2}, {2, 3}, {3, 4}, {4, 2}, {5, 6}},
			strong: []connectivity.Component{
				{0, 1},
				{2, 3, 4},
			},
			weak: []connectivity.Component{
				{0, 1, 2, 3, 4},
				{5, 6},
			},
		},
		{
			name:   "Chain has no strong component",
			n:      3,
			edges:  [][2]graph.NodeID{{0, 1}, {1, 2}},
			strong: []connectivity.Component{},
			weak:   []connectivity.Component{{0, 1, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.n, tt.edges...)
			report := connectivity.Analyze(g)
			assert.Equal(t, tt.strong, report.Strong)
			assert.Equal(t, tt.weak, report.Weak)
		})
	}
}

func TestAnalyze_DoesNotMutate(t *testing.T) {
	g := build(t, 3, [2]graph.NodeID{0, 1}, [2]graph.NodeID{1, 0}, [2]graph.NodeID{1, 2})
	before := g.Edges()
	_ = connectivity.Analyze(g)
	assert.Equal(t, before, g.Edges())
	assert.Equal(t, 3, g.NodeCount())
}

func TestAnalyze_LongChainCycle(t *testing.T) {
	const n = 5000
	g := graph.New()
	for i := 0; i < n; i++ {
		_, err := g.AddNode(domain.Representation{}, graph.NoParent, "")
		require.NoError(t, err)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, g.AddOrMergeEdge(graph.NodeID(i), graph.NodeID((i+1)%n), "t"))
	}

	report := connectivity.Analyze(g)
	require.Len(t, report.Strong, 1)
	assert.Len(t, report.Strong[0], n)
}
